package sessionstore

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/2beens/garminpartner/pkg"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltSize   = 16
	keyFileLen = 32

	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

var (
	sealMagic = []byte("GPS1")

	ErrSealedDataInvalid = errors.New("sealed data invalid")
)

// Sealer encrypts session blobs with XChaCha20-Poly1305.
// The key is derived with Argon2id from a secret and a per-blob salt.
type Sealer struct {
	secret []byte
	rand   io.Reader
}

func NewPassphraseSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	return &Sealer{
		secret: []byte(passphrase),
		rand:   rand.Reader,
	}, nil
}

// NewKeyFileSealer uses the random key stored at keyPath, creating it on first use.
func NewKeyFileSealer(keyPath string) (*Sealer, error) {
	key, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		if len(key) != keyFileLen {
			return nil, fmt.Errorf("key file %s: unexpected length %d", keyPath, len(key))
		}
	case errors.Is(err, os.ErrNotExist):
		key, err = pkg.GenerateRandomBytes(keyFileLen)
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		if err := pkg.EnsureDir(filepath.Dir(keyPath), 0o700); err != nil {
			return nil, fmt.Errorf("create key dir: %w", err)
		}
		if err := pkg.WriteFileAtomic(keyPath, key, 0o600); err != nil {
			return nil, fmt.Errorf("write key file: %w", err)
		}
	default:
		return nil, fmt.Errorf("read key file: %w", err)
	}

	return &Sealer{
		secret: key,
		rand:   rand.Reader,
	}, nil
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(s.rand, salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	header := make([]byte, 0, len(sealMagic)+saltSize+len(nonce))
	header = append(header, sealMagic...)
	header = append(header, salt...)
	header = append(header, nonce...)

	return aead.Seal(header, nonce, plaintext, sealMagic), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	minLen := len(sealMagic) + saltSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(sealed) < minLen || !bytes.HasPrefix(sealed, sealMagic) {
		return nil, ErrSealedDataInvalid
	}

	rest := sealed[len(sealMagic):]
	salt, rest := rest[:saltSize], rest[saltSize:]
	nonce, ciphertext := rest[:chacha20poly1305.NonceSizeX], rest[chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, sealMagic)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSealedDataInvalid, err)
	}

	return plaintext, nil
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.secret, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}
