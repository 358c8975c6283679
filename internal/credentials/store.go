// Package credentials persists the account username/password encrypted at
// rest. The symmetric key lives in a sibling file in the same config
// directory, so the blob is not portable without copying both files.
package credentials

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	credsFileName = "creds.enc"
	keyFileName   = "key.key"
)

var (
	// ErrNotFound means no credentials have been saved yet.
	ErrNotFound = errors.New("no saved credentials")
	// ErrDecryptFailed means the blob is corrupted or the key file does not
	// match it.
	ErrDecryptFailed = errors.New("credential decryption failed: wrong key or corrupted data")
)

// Credentials is the username/password pair for the document service.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store reads and writes the encrypted credential blob under Dir.
type Store struct {
	Dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Save encrypts and writes the pair, overwriting any previous blob wholesale.
// The key file is created on first use.
func (s *Store) Save(username, password string) error {
	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	plaintext, err := json.Marshal(Credentials{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	// Blob layout: nonce || ciphertext.
	blob := aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.credsPath(), blob, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

// Load decrypts and returns the saved pair, or ErrNotFound when nothing has
// been saved yet.
func (s *Store) Load() (*Credentials, error) {
	blob, err := os.ReadFile(s.credsPath())
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	key, err := os.ReadFile(s.keyPath())
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	if len(blob) < aead.NonceSize() {
		return nil, ErrDecryptFailed
	}
	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, ErrDecryptFailed
	}
	return &creds, nil
}

func (s *Store) credsPath() string { return filepath.Join(s.Dir, credsFileName) }
func (s *Store) keyPath() string   { return filepath.Join(s.Dir, keyFileName) }

func (s *Store) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath())
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file has wrong size: %d bytes", len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.keyPath(), key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}
