// Package vault is the Credential Vault (C9, spec.md §4.8): authenticated
// symmetric encryption of OAuth tokens and bring-your-own client secrets.
// The core AEAD routine follows the teacher's internal/social/encryption.go
// (AES-256-GCM, random nonce, base64 output); this package adds per-purpose
// subkey derivation so a single ENCRYPTION_KEY never directly encrypts two
// different kinds of secret with the same key material.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/f0rbit/media-timeline/internal/domainerr"
)

// Purpose discriminates the HKDF info string used to derive a subkey, so
// a leaked token-encryption key can't be replayed against client secrets.
type Purpose string

const (
	PurposeAccountToken     Purpose = "account-token"
	PurposeClientSecret     Purpose = "client-secret"
)

// Vault holds the root key and derives purpose-scoped subkeys on demand.
type Vault struct {
	rootKey []byte
}

// New builds a Vault from the raw ENCRYPTION_KEY bytes (must be 32 bytes).
func New(rootKey []byte) (*Vault, error) {
	if len(rootKey) != 32 {
		return nil, domainerr.EncryptionError("init")
	}
	return &Vault{rootKey: rootKey}, nil
}

func (v *Vault) subkey(purpose Purpose) ([]byte, error) {
	r := hkdf.New(sha256.New, v.rootKey, nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, domainerr.EncryptionError("derive")
	}
	return key, nil
}

// Encrypt seals plaintext with a fresh random nonce under purpose's subkey.
// The nonce is prepended to the ciphertext so Decrypt is self-describing.
func (v *Vault) Encrypt(purpose Purpose, plaintext string) (string, error) {
	key, err := v.subkey(purpose)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", domainerr.EncryptionError("encrypt")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", domainerr.EncryptionError("encrypt")
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", domainerr.EncryptionError("encrypt")
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext previously produced by Encrypt with the same
// purpose. Wrong key or tampered ciphertext yields encryption_error{decrypt}.
func (v *Vault) Decrypt(purpose Purpose, ciphertext string) (string, error) {
	key, err := v.subkey(purpose)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", domainerr.EncryptionError("decrypt")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", domainerr.EncryptionError("decrypt")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", domainerr.EncryptionError("decrypt")
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", domainerr.EncryptionError("decrypt")
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", domainerr.EncryptionError("decrypt")
	}
	return string(plaintext), nil
}

// EncryptAccountToken is a narrow helper for the Account Processor's token
// read/write path, fixing the purpose so callers can't accidentally cross
// subkeys between tokens and client secrets.
func (v *Vault) EncryptAccountToken(plaintext string) (string, error) {
	return v.Encrypt(PurposeAccountToken, plaintext)
}

func (v *Vault) DecryptAccountToken(ciphertext string) (string, error) {
	return v.Decrypt(PurposeAccountToken, ciphertext)
}

func (v *Vault) EncryptClientSecret(plaintext string) (string, error) {
	return v.Encrypt(PurposeClientSecret, plaintext)
}

func (v *Vault) DecryptClientSecret(ciphertext string) (string, error) {
	return v.Decrypt(PurposeClientSecret, ciphertext)
}
