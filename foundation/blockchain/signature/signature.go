// Package signature provides the hashing, key, and address primitives used
// throughout the ledger. All hashes are SHA-256 rendered as lowercase hex.
package signature

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidSignature indicates a signature did not verify against the
// claimed public key and preimage.
var ErrInvalidSignature = errors.New("invalid signature")

// ErrMalformedKey indicates a hex-encoded key could not be parsed.
var ErrMalformedKey = errors.New("malformed key")

// ZeroHash is the previous-hash value used by the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// AddressPrefix identifies the Kaidos network. Addresses from foreign
// networks must be rejected by checking this prefix.
const AddressPrefix = "KD"

// AddressLength is the fixed length of a Kaidos address string: a 2
// character network prefix plus the unpadded base32 encoding of a 20 byte
// hash (32 characters).
const AddressLength = 34

// Address is a network-prefixed, base32-encoded public key hash.
type Address string

// PrivateKey wraps a secp256k1 scalar for signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 point for verification and address derivation.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GenerateKey creates a new random keypair.
func GenerateKey() (PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("generating private key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// PrivateKeyFromHex parses a hex-encoded 32 byte scalar.
func PrivateKeyFromHex(s string) (PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return PrivateKey{}, ErrMalformedKey
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return PrivateKey{key: key}, nil
}

// String hex-encodes the private key scalar.
func (pk PrivateKey) String() string {
	return hex.EncodeToString(pk.key.Serialize())
}

// Public returns the corresponding public key.
func (pk PrivateKey) Public() PublicKey {
	return PublicKey{key: pk.key.PubKey()}
}

// PublicKeyFromHex parses a hex-encoded compressed public key.
func PublicKeyFromHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, ErrMalformedKey
	}
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, ErrMalformedKey
	}
	return PublicKey{key: key}, nil
}

// String hex-encodes the compressed public key.
func (pub PublicKey) String() string {
	return hex.EncodeToString(pub.key.SerializeCompressed())
}

// Hash returns the lowercase hex SHA-256 digest of the canonical JSON
// encoding of value. Fields must already be in their canonical shape;
// callers that need a stable preimage should marshal a purpose-built
// struct rather than relying on map ordering.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the lowercase hex SHA-256 digest of raw bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sign produces a 64 byte raw (R|S) signature, hex-encoded, over the
// SHA-256 digest of preimage.
func (pk PrivateKey) Sign(preimage []byte) (string, error) {
	digest := sha256.Sum256(preimage)
	sig := ecdsa.Sign(pk.key, digest[:])

	sigR := sig.R()
	sigS := sig.S()
	r := sigR.Bytes()
	s := sigS.Bytes()

	out := make([]byte, 64)
	copy(out[32-len(r):32], r[:])
	copy(out[64-len(s):64], s[:])

	return hex.EncodeToString(out), nil
}

// Verify checks a hex-encoded 64 byte raw (R|S) signature against the
// SHA-256 digest of preimage for the given hex-encoded public key.
func Verify(preimage []byte, sigHex, pubKeyHex string) error {
	pub, err := PublicKeyFromHex(pubKeyHex)
	if err != nil {
		return err
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil || len(sigBytes) != 64 {
		return ErrInvalidSignature
	}

	r := new(secp256k1.ModNScalar)
	s := new(secp256k1.ModNScalar)
	r.SetByteSlice(sigBytes[:32])
	s.SetByteSlice(sigBytes[32:])

	sig := ecdsa.NewSignature(r, s)

	digest := sha256.Sum256(preimage)
	if !sig.Verify(digest[:], pub.key) {
		return ErrInvalidSignature
	}

	return nil
}

// PublicKeyToAddress derives the network address for a hex-encoded public key:
// "KD" + base32(SHA256(pubkey)[:20]), unpadded, uppercase.
func PublicKeyToAddress(pubKeyHex string) (Address, error) {
	pub, err := PublicKeyFromHex(pubKeyHex)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(pub.key.SerializeCompressed())
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:20])

	return Address(AddressPrefix + enc), nil
}

// IsValidAddress checks the fixed length and network prefix of an address.
func IsValidAddress(addr Address) bool {
	return len(addr) == AddressLength && addr[:len(AddressPrefix)] == AddressPrefix
}

// RandomNonce returns a random byte string used to disambiguate coinbase
// transactions that would otherwise be identical at different heights.
func RandomNonce(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
