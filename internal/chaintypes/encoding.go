package chaintypes

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"math"
)

// writer is a tiny fixed-width/length-prefixed binary encoder. Every
// hashable entity in the protocol is serialized through it so the
// wire format used for hashing, signing, and PoW is identical
// everywhere (§6: "no optional padding").
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}
func (w *writer) i64(v int64) { w.u64(uint64(v)) }
func (w *writer) f64(v float64) {
	w.u64(math.Float64bits(v))
}
func (w *writer) fixed(b []byte) { w.buf.Write(b) }
func (w *writer) lenPrefixed(b []byte) {
	w.u64(uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

// TxSigningBytes returns the canonical bytes a Transaction's hash and
// signature are computed over: every field except Signature and Hash
// (§3).
func TxSigningBytes(tx *Transaction) []byte {
	w := &writer{}
	w.lenPrefixed(tx.Sender)
	w.lenPrefixed(tx.Receiver)
	w.u64(tx.Amount)
	w.u64(tx.Fee)
	w.u64(tx.Nonce)
	w.i64(tx.Timestamp)
	w.u8(uint8(tx.Type))
	return w.bytes()
}

// ComputeTxHash computes tx.Hash = SHA256(canonical-bytes-without-sig-without-hash).
func ComputeTxHash(tx *Transaction) Hash {
	return Sum256(TxSigningBytes(tx))
}

// VRFAnnounceSigningBytes returns the canonical bytes a VRFAnnouncement
// is signed over for the gossip contract's `signature_over_tuple` (§6).
func VRFAnnounceSigningBytes(a *VRFAnnouncement) []byte {
	w := &writer{}
	w.u64(a.Round)
	w.lenPrefixed(a.PublicKey)
	w.fixed(a.Output[:])
	w.fixed(a.Proof[:])
	w.f64(a.Score)
	w.i64(a.Timestamp)
	return w.bytes()
}

// BlockHeaderBytes returns the canonical header bytes used for both
// BlockHash and the PoW check (§3: "header includes every field above
// except signatures and blockHash itself").
func BlockHeaderBytes(b *Block) []byte {
	w := &writer{}
	w.u64(b.Height)
	w.fixed(b.PreviousHash[:])
	w.i64(b.Timestamp)
	w.u64(b.Round)
	w.lenPrefixed(b.ProposerPk)
	w.fixed(b.VRFOutput[:])
	w.fixed(b.VRFProof[:])

	w.u64(uint64(len(b.AllVRFAnnouncements)))
	for i := range b.AllVRFAnnouncements {
		w.lenPrefixed(VRFAnnounceSigningBytes(&b.AllVRFAnnouncements[i]))
	}

	w.u64(uint64(len(b.RewardedTopX)))
	for _, pk := range b.RewardedTopX {
		w.lenPrefixed(pk)
	}

	w.u64(uint64(len(b.Transactions)))
	for i := range b.Transactions {
		w.lenPrefixed(TxWireBytes(&b.Transactions[i]))
	}

	w.fixed(b.MerkleRoot[:])
	w.u64(b.Nonce)
	w.lenPrefixed(b.DifficultyTarget.Bytes())

	return w.bytes()
}

// TxWireBytes is the full on-wire encoding of a transaction including
// its signature and hash, used when a transaction is embedded inside a
// block header (the header commits to the full transaction, not just
// its pre-signature bytes) and for gossip TX messages (§6).
func TxWireBytes(tx *Transaction) []byte {
	w := &writer{}
	w.fixed(TxSigningBytes(tx))
	w.lenPrefixed(tx.Signature)
	w.fixed(tx.Hash[:])
	return w.bytes()
}

// ComputeBlockHash computes blockHash = SHA256(header) (§3).
func ComputeBlockHash(b *Block) Hash {
	return Sum256(BlockHeaderBytes(b))
}

// RoundVRFInput returns I_round = SHA256(prevBlockHash || round_be_u64), the
// canonical message every committee member's VRF evaluation for a round is
// computed over (§4.2, §4.4).
func RoundVRFInput(prevBlockHash Hash, round uint64) []byte {
	w := &writer{}
	w.fixed(prevBlockHash[:])
	w.u64(round)
	h := Sum256(w.bytes())
	return h[:]
}

// ValidatePublicKey checks a public key has the expected Ed25519
// length before it is used in any canonical encoding; a short or long
// key would silently corrupt every downstream hash otherwise.
func ValidatePublicKey(pk ed25519.PublicKey) error {
	if len(pk) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length: expected %d, got %d", ed25519.PublicKeySize, len(pk))
	}
	return nil
}
