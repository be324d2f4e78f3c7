// Package chaintypes defines the wire-level data model (§3) and the
// canonical, fixed-width binary encoding (§4.1, §6) every hashable
// entity in the system is serialized through.
package chaintypes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// HashSize is the digest size of every hash in the protocol.
const HashSize = sha256.Size

// Hash is a 32-byte SHA-256 digest.
type Hash [HashSize]byte

// Sum256 hashes data into a Hash.
func Sum256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// String returns the lowercase hex encoding of the hash.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// IsZero reports whether the hash is the all-zero digest (used for the
// empty-transactions Merkle root per §4.6).
func (h Hash) IsZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

// LessThan compares two hashes lexicographically, used by fork choice
// tie-breaking (§5) and canonical transaction ordering (§4.6).
func (h Hash) LessThan(o Hash) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}

// HashFromHex decodes a lowercase hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("decode hash hex: %w", err)
	}
	if len(raw) != HashSize {
		return Hash{}, fmt.Errorf("invalid hash length: expected %d, got %d", HashSize, len(raw))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

// CID returns the content identifier (CIDv1, raw codec, SHA-256
// multihash) for a hash (see SPEC_FULL.md domain stack: go-cid/go-multihash).
// The stores key blocks and transactions by the hash itself or its String
// form, not by the CID.
func (h Hash) CID() (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, fmt.Errorf("encode multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
