// Package secrets persists provider API keys encrypted at rest. A random
// 32-byte master key sits beside the payload file; the payload is AES-GCM
// sealed JSON. Losing the master key loses the stored keys, which is
// acceptable: the user re-enters them.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	schemaVersion = 1
	masterKeySize = 32
)

type Store struct {
	secretsPath string
	keyPath     string
	mu          sync.Mutex
}

// Secrets is the decrypted payload. One field per provider that needs a key;
// the simulation provider never appears here.
type Secrets struct {
	SchemaVersion  int    `json:"schema_version"`
	OpenAIKey      string `json:"openai_api_key,omitempty"`
	AnthropicKey   string `json:"anthropic_api_key,omitempty"`
	GroqKey        string `json:"groq_api_key,omitempty"`
	HuggingFaceKey string `json:"hf_api_key,omitempty"`
}

// providerFields maps provider ids onto their payload field.
var providerFields = map[string]func(*Secrets) *string{
	"openai":      func(s *Secrets) *string { return &s.OpenAIKey },
	"anthropic":   func(s *Secrets) *string { return &s.AnthropicKey },
	"groq":        func(s *Secrets) *string { return &s.GroqKey },
	"huggingface": func(s *Secrets) *string { return &s.HuggingFaceKey },
}

type encryptedPayload struct {
	SchemaVersion int    `json:"schema_version"`
	Nonce         string `json:"nonce"`
	Ciphertext    string `json:"ciphertext"`
}

func NewStore(secretsPath, keyPath string) *Store {
	return &Store{secretsPath: secretsPath, keyPath: keyPath}
}

// ProviderKey returns the stored key for a provider, empty when unset.
func (s *Store) ProviderKey(providerID string) (string, error) {
	field, ok := providerFields[providerID]
	if !ok {
		return "", fmt.Errorf("unsupported provider %q", providerID)
	}
	secrets, err := s.load()
	if err != nil {
		return "", err
	}
	return *field(secrets), nil
}

// SetProviderKey stores a provider key, replacing any previous value.
func (s *Store) SetProviderKey(providerID, key string) error {
	field, ok := providerFields[providerID]
	if !ok {
		return fmt.Errorf("unsupported provider %q", providerID)
	}
	secrets, err := s.load()
	if err != nil {
		return err
	}
	*field(secrets) = key
	return s.save(secrets)
}

// ClearProviderKey removes the stored key for a provider.
func (s *Store) ClearProviderKey(providerID string) error {
	return s.SetProviderKey(providerID, "")
}

func (s *Store) load() (*Secrets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.secretsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Secrets{SchemaVersion: schemaVersion}, nil
		}
		return nil, err
	}
	var payload encryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	plain, err := s.open(payload)
	if err != nil {
		return nil, err
	}
	var secrets Secrets
	if err := json.Unmarshal(plain, &secrets); err != nil {
		return nil, err
	}
	if secrets.SchemaVersion == 0 {
		secrets.SchemaVersion = schemaVersion
	}
	return &secrets, nil
}

func (s *Store) save(secrets *Secrets) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plain, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	payload, err := s.seal(plain)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.secretsPath), 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.secretsPath, encoded, 0o600)
}

func (s *Store) open(payload encryptedPayload) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce, err := base64.StdEncoding.DecodeString(payload.Nonce)
	if err != nil {
		return nil, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (s *Store) seal(plain []byte) (encryptedPayload, error) {
	gcm, err := s.aead()
	if err != nil {
		return encryptedPayload{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return encryptedPayload{}, err
	}
	ciphertext := gcm.Seal(nil, nonce, plain, nil)
	return encryptedPayload{
		SchemaVersion: schemaVersion,
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:    base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

func (s *Store) aead() (cipher.AEAD, error) {
	key, err := s.loadOrCreateKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *Store) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err == nil {
		if len(key) != masterKeySize {
			return nil, fmt.Errorf("master key is %d bytes, want %d", len(key), masterKeySize)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0o755); err != nil {
		return nil, err
	}
	key = make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.keyPath, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}
