// Package vrf implements the VRF primitive (C3): a deterministic
// evaluate/verify pair bound to an Ed25519 keypair, plus the score
// projection used by the round scoring calculator (C4).
//
// The construction is sign-then-hash: the "proof" is an Ed25519
// signature over a domain-separated message, and the "output" is a
// hash of that signature. This is the same construction the teacher's
// own DefaultVRFProvider (internal/consensus/vrf.go) uses and
// documents as a stand-in for a standardized VRF — see
// SPEC_FULL.md Open Question 3. It satisfies the abstract contract in
// spec.md §4.2: deterministic, and anyone holding (pk, input, output,
// proof) can verify without the private key, because proof is a
// signature ed25519.Verify can check directly.
package vrf

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	domainProve  = "CHAINCORE_VRF_PROVE_V1"
	domainOutput = "CHAINCORE_VRF_OUTPUT_V1"
)

// Output is the 32-byte pseudo-random VRF output plus its 64-byte
// Ed25519 proof (§3 VRFOutput).
type Output struct {
	Value [32]byte
	Proof [64]byte
}

// message builds the domain-separated bytes that get signed: any two
// distinct (domain, input) pairs must never collide on the signed
// message, so distinct components are length-prefixed rather than
// concatenated bare.
func message(domain string, input []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(input)))
	h.Write(lenBuf[:])
	h.Write(input)
	return h.Sum(nil)
}

// Evaluate computes (output, proof) for input under sk. Equal
// (sk, input) always yields equal (output, proof) — spec.md §4.2.
func Evaluate(sk ed25519.PrivateKey, input []byte) (Output, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return Output{}, fmt.Errorf("invalid private key size: expected %d, got %d", ed25519.PrivateKeySize, len(sk))
	}
	if len(input) == 0 {
		return Output{}, fmt.Errorf("vrf input must not be empty")
	}

	sig := ed25519.Sign(sk, message(domainProve, input))

	var out Output
	copy(out.Proof[:], sig)
	out.Value = deriveOutput(sig, input)
	return out, nil
}

func deriveOutput(proof []byte, input []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domainOutput))
	h.Write(proof)
	h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Verify reports whether output is the unique value pk would produce
// for input, and that proof binds both — spec.md §4.2's invariant:
// verify(pk, I, out, proof) ⇒ evaluate(sk, I) = out.
func Verify(pk ed25519.PublicKey, input []byte, output [32]byte, proof [64]byte) bool {
	if len(pk) != ed25519.PublicKeySize {
		return false
	}
	if len(input) == 0 {
		return false
	}
	if !ed25519.Verify(pk, message(domainProve, input), proof[:]) {
		return false
	}
	expected := deriveOutput(proof[:], input)
	return expected == output
}

// Score projects a VRF output into [0, 1) by interpreting its first 8
// bytes as a big-endian unsigned integer normalized by 2^64 — spec.md
// §3/§4.2.
func Score(output [32]byte) float64 {
	u := binary.BigEndian.Uint64(output[:8])
	return float64(u) / math.Pow(2, 64)
}
