// Package tenant resolves bearer tokens to tenant ids.
package tenant

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/store"
)

// ErrUnknownKey is returned for tokens with no stored key.
var ErrUnknownKey = errors.New("unknown api key")

// Resolver resolves a tenant ID from a bearer token.
type Resolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// APIKeyResolver looks tokens up by their SHA-256 hash in the api_keys
// collection. Raw tokens are never stored.
type APIKeyResolver struct {
	db docstore.Store
}

// NewAPIKeyResolver creates a resolver over db.
func NewAPIKeyResolver(db docstore.Store) *APIKeyResolver {
	return &APIKeyResolver{db: db}
}

type apiKey struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Description string    `json:"description,omitempty"`
	Created     time.Time `json:"created"`
}

func (r *APIKeyResolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	doc, err := r.db.Get(ctx, store.APIKeys, HashToken(token))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", ErrUnknownKey
		}
		return "", fmt.Errorf("looking up api key: %w", err)
	}
	var key apiKey
	if err := doc.Decode(&key); err != nil {
		return "", err
	}
	if key.TenantID == "" {
		return "", ErrUnknownKey
	}
	return key.TenantID, nil
}

// AddKey stores token for tenantID.
func (r *APIKeyResolver) AddKey(ctx context.Context, token, tenantID, description string) error {
	if token == "" || tenantID == "" {
		return errors.New("token and tenant id are required")
	}
	doc, err := docstore.Encode(apiKey{
		ID:          HashToken(token),
		TenantID:    tenantID,
		Description: description,
		Created:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := r.db.Put(ctx, store.APIKeys, doc); err != nil {
		return fmt.Errorf("storing api key: %w", err)
	}
	return nil
}

// GenerateKey returns a new random token.
func GenerateKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return "fk_" + hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
