package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
)

// envelopeKey holds the ciphertext inside an encrypted profile.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 16, 24 or 32 bytes (AES-128, AES-192, AES-256).
	ActiveKey []byte

	// FallbackKeys are older keys tried when decryption with ActiveKey fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a hex encoded AES key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be hex encoded: %w", err)
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

func checkKey(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("encryption key must be 16, 24 or 32 bytes, got %d", len(key))
	}
}

type encryptionMiddleware struct {
	next   ports.ProfileStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts profile data
// with AES-GCM. The stored profile keeps its id so the store can index it;
// everything else lives in an opaque envelope.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if err := checkKey(config.ActiveKey); err != nil {
		return nil, err
	}
	for i, k := range config.FallbackKeys {
		if err := checkKey(k); err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
	}
	return func(next ports.ProfileStore) ports.ProfileStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, p *domain.Profile) error {
	plainText, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt profile: %w", err)
	}

	envelope := &domain.Profile{
		ID:        p.ID,
		UpdatedAt: p.UpdatedAt,
		Data: map[string]any{
			envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Profile, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Fail closed: a store configured for encryption never serves plain profiles.
	encoded, ok := envelope.Data[envelopeKey].(string)
	if !ok {
		return nil, errors.New("profile is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt profile: %w", err)
	}

	p := &domain.Profile{ID: envelope.ID, UpdatedAt: envelope.UpdatedAt}
	if err := json.Unmarshal(plainText, &p.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted profile: %w", err)
	}
	if p.Data == nil {
		p.Data = make(map[string]any)
	}
	return p, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
