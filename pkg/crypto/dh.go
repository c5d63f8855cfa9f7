package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// SizePubKey is the encoded width of DH public and private values: the byte
// length of the 1536-bit group prime.
const SizePubKey = 192

// primeHex is the 1536-bit MODP safe prime of RFC 3526 (group 5).
const primeHex = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA237327FFFFFFFFFFFFFFFF"

// generator is the group generator G.
const generator = 2

var (
	groupP       = mustParsePrime(primeHex)
	groupG       = big.NewInt(generator)
	groupPMinus1 = new(big.Int).Sub(groupP, big.NewInt(1))
	one          = big.NewInt(1)
)

func mustParsePrime(s string) *big.Int {
	p, ok := new(big.Int).SetString(strings.ToLower(s), 16)
	if !ok {
		panic("crypto: bad DH prime constant")
	}
	return p
}

// Prime returns a copy of the group prime P.
func Prime() *big.Int {
	return new(big.Int).Set(groupP)
}

// Generator returns a copy of the group generator G.
func Generator() *big.Int {
	return new(big.Int).Set(groupG)
}

// KeyPair is a Diffie-Hellman key pair in the fixed 1536-bit group.
// A KeyPair is only ever returned fully initialized.
type KeyPair struct {
	priv *big.Int
	pub  *big.Int
}

// GenerateDHKeyPair generates a key pair with a fresh random exponent.
func GenerateDHKeyPair() (*KeyPair, error) {
	return GenerateDHKeyPairFrom(rand.Reader)
}

// GenerateDHKeyPairFrom generates a key pair drawing the exponent from r.
// The exponent is uniform in [2, P-2].
func GenerateDHKeyPairFrom(r io.Reader) (*KeyPair, error) {
	// [0, P-3) shifted by 2.
	bound := new(big.Int).Sub(groupP, big.NewInt(3))
	x, err := rand.Int(r, bound)
	if err != nil {
		return nil, fmt.Errorf("%w: generate private exponent: %w", ErrCrypto, err)
	}
	x.Add(x, big.NewInt(2))
	return newKeyPair(x)
}

// GeneratePrebuiltDHKeyPair builds the key pair for a caller-supplied
// private exponent (big-endian). The same input always yields the same
// public value, which lets a retry reuse a previously published key.
func GeneratePrebuiltDHKeyPair(priv []byte) (*KeyPair, error) {
	if len(priv) == 0 || len(priv) > SizePubKey {
		return nil, fmt.Errorf("%w: %w: length %d", ErrCrypto, ErrInvalidPrivateKey, len(priv))
	}
	x := new(big.Int).SetBytes(priv)
	return newKeyPair(x)
}

// newKeyPair validates the exponent and computes G^x mod P. Nothing is
// returned unless every step succeeded.
func newKeyPair(x *big.Int) (*KeyPair, error) {
	if x.Cmp(one) <= 0 || x.Cmp(groupPMinus1) >= 0 {
		x.SetInt64(0)
		return nil, fmt.Errorf("%w: %w", ErrCrypto, ErrInvalidPrivateKey)
	}
	y := new(big.Int).Exp(groupG, x, groupP)
	if y.Cmp(one) <= 0 {
		x.SetInt64(0)
		return nil, fmt.Errorf("%w: degenerate public value", ErrCrypto)
	}
	return &KeyPair{priv: x, pub: y}, nil
}

// PublicKey returns the public value encoded to SizePubKey bytes.
func (kp *KeyPair) PublicKey() []byte {
	return mustEncode(kp.pub)
}

// PrivateKey returns the private exponent encoded to SizePubKey bytes.
func (kp *KeyPair) PrivateKey() []byte {
	return mustEncode(kp.priv)
}

// mustEncode encodes a key pair value. Both values of a KeyPair are
// checked to be below P when the pair is built, so they always fit.
func mustEncode(x *big.Int) []byte {
	b, err := EncodePublicOrPrivate(x)
	if err != nil {
		panic(fmt.Sprintf("crypto: key pair value does not fit: %v", err))
	}
	return b
}

// SharedSecret computes DHKey = SHA-256(peer^priv mod P), with the shared
// value encoded to SizePubKey bytes before hashing. The peer value must lie
// in (1, P-1).
func (kp *KeyPair) SharedSecret(peerPub []byte) ([]byte, error) {
	peer, err := DecodeKey(peerPub)
	if err != nil {
		return nil, err
	}
	if peer.Cmp(one) <= 0 || peer.Cmp(groupPMinus1) >= 0 {
		return nil, ErrInvalidPublicKey
	}

	z := new(big.Int).Exp(peer, kp.priv, groupP)
	defer z.SetInt64(0)

	encoded, err := EncodePublicOrPrivate(z)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	defer clear(encoded)

	sum := ComputeHash(encoded)
	return sum[:], nil
}

// Zeroize clears the private exponent. The key pair is unusable afterwards.
func (kp *KeyPair) Zeroize() {
	if kp == nil || kp.priv == nil {
		return
	}
	kp.priv.SetInt64(0)
}

// EncodePublicOrPrivate exports x as exactly SizePubKey big-endian bytes,
// left-padding short values with zeros.
func EncodePublicOrPrivate(x *big.Int) ([]byte, error) {
	if x == nil || x.Sign() < 0 {
		return nil, ErrInvalidParameters
	}
	if x.BitLen() > SizePubKey*8 {
		return nil, ErrEncodingTooLarge
	}
	out := make([]byte, SizePubKey)
	x.FillBytes(out)
	return out, nil
}

// DecodeKey is the inverse of EncodePublicOrPrivate. The input must be
// exactly SizePubKey bytes.
func DecodeKey(b []byte) (*big.Int, error) {
	if len(b) != SizePubKey {
		return nil, fmt.Errorf("%w: key length %d, want %d", ErrInvalidParameters, len(b), SizePubKey)
	}
	return new(big.Int).SetBytes(b), nil
}

// DerivePrivateKeyAndHash generates a fresh key pair and returns its encoded
// private exponent together with the 160-bit hash of its encoded public
// value. Either both are returned or neither.
func DerivePrivateKeyAndHash() (priv []byte, pubHash [PubKeyHashLen]byte, err error) {
	return derivePrivateKeyAndHash(rand.Reader)
}

func derivePrivateKeyAndHash(r io.Reader) ([]byte, [PubKeyHashLen]byte, error) {
	kp, err := GenerateDHKeyPairFrom(r)
	if err != nil {
		return nil, [PubKeyHashLen]byte{}, err
	}
	defer kp.Zeroize()

	pub, err := EncodePublicOrPrivate(kp.pub)
	if err != nil {
		return nil, [PubKeyHashLen]byte{}, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	priv, err := EncodePublicOrPrivate(kp.priv)
	if err != nil {
		return nil, [PubKeyHashLen]byte{}, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return priv, PublicKeyHash(pub), nil
}
