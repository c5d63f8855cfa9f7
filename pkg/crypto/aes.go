package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
)

// AES-CBC sizes used by Encrypted Settings.
const (
	// AESKeySize is the AES-128 key size in bytes (KeyWrapKey).
	AESKeySize = 16

	// AESBlockSize is the AES block and IV size in bytes.
	AESBlockSize = aes.BlockSize
)

// Encrypt encrypts plaintext with AES-128-CBC under key using a freshly
// generated random IV and PKCS#7 padding.
func Encrypt(plaintext, key []byte) (iv, ciphertext []byte, err error) {
	return EncryptWithRand(rand.Reader, plaintext, key)
}

// EncryptWithRand is Encrypt with an explicit IV source.
func EncryptWithRand(r io.Reader, plaintext, key []byte) (iv, ciphertext []byte, err error) {
	if len(key) != AESKeySize {
		return nil, nil, fmt.Errorf("%w: AES key must be %d bytes", ErrInvalidParameters, AESKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	iv = make([]byte, AESBlockSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, nil, fmt.Errorf("%w: generate IV: %w", ErrCrypto, err)
	}

	padLen := AESBlockSize - len(plaintext)%AESBlockSize
	ciphertext = make([]byte, len(plaintext)+padLen)
	copy(ciphertext, plaintext)
	for i := len(plaintext); i < len(ciphertext); i++ {
		ciphertext[i] = byte(padLen)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, ciphertext)
	return iv, ciphertext, nil
}

// Decrypt decrypts an AES-128-CBC ciphertext and strips its PKCS#7 padding.
// The plaintext length comes from the padding, never from an outside claim.
func Decrypt(ciphertext, iv, key []byte) ([]byte, error) {
	if len(key) != AESKeySize || len(iv) != AESBlockSize {
		return nil, fmt.Errorf("%w: key %d bytes, iv %d bytes", ErrInvalidParameters, len(key), len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%AESBlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedCiphertext, len(ciphertext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padLen := int(plaintext[len(plaintext)-1])
	if padLen == 0 || padLen > AESBlockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformedCiphertext)
	}
	want := make([]byte, padLen)
	for i := range want {
		want[i] = byte(padLen)
	}
	if subtle.ConstantTimeCompare(plaintext[len(plaintext)-padLen:], want) != 1 {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformedCiphertext)
	}
	return plaintext[:len(plaintext)-padLen], nil
}
