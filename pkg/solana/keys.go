package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// ErrInvalidPrivateKey is returned for keys that do not decode to a keypair.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// Keystore is a private key encrypted at rest.
type Keystore struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Version      int    `json:"version"`
}

// ParsePrivateKey decodes a base58 secret key into a keypair.
func ParsePrivateKey(encoded string) (types.Account, error) {
	raw, err := base58.Decode(strings.TrimSpace(encoded))
	if err != nil || len(raw) == 0 {
		return types.Account{}, ErrInvalidPrivateKey
	}
	account, err := types.AccountFromBytes(raw)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return account, nil
}

// AddressOf returns the wallet address of a base58 secret key.
func AddressOf(encoded string) (string, error) {
	account, err := ParsePrivateKey(encoded)
	if err != nil {
		return "", err
	}
	return account.PublicKey.ToBase58(), nil
}

// EncodePrivateKey returns the base58 form of a keypair's secret key.
func EncodePrivateKey(account types.Account) string {
	return base58.Encode(account.PrivateKey)
}

// Encrypt seals data with AES-256-GCM under a key derived from password.
func Encrypt(data []byte, password string) (string, error) {
	gcm, err := newGCM(password)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, data, nil)), nil
}

// Decrypt opens a value produced by Encrypt.
func Decrypt(encoded string, password string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := newGCM(password)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	plaintext, err := gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(password string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SaveKeystore encrypts the keypair's secret key and writes it to path.
func SaveKeystore(path string, account types.Account, password string) error {
	encrypted, err := Encrypt(account.PrivateKey, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt private key: %w", err)
	}

	data, err := json.MarshalIndent(Keystore{
		Address:      account.PublicKey.ToBase58(),
		EncryptedKey: encrypted,
		Version:      1,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	return nil
}

// LoadKeystore reads and decrypts a keystore written by SaveKeystore and
// returns the base58 secret key.
func LoadKeystore(path string, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read keystore: %w", err)
	}

	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return "", fmt.Errorf("failed to unmarshal keystore: %w", err)
	}

	raw, err := Decrypt(ks.EncryptedKey, password)
	if err != nil {
		return "", err
	}

	account, err := types.AccountFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if addr := account.PublicKey.ToBase58(); addr != ks.Address {
		return "", fmt.Errorf("address mismatch: expected %s, got %s", ks.Address, addr)
	}
	return EncodePrivateKey(account), nil
}
