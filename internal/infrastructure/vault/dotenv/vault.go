// Package dotenv provides a dotenv-based vault implementation for development.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Client implements the vault.Client interface using environment variables,
// with an in-memory overlay for secrets stored at runtime.
type Client struct {
	secrets map[string]string
	mu      sync.RWMutex
}

// NewClient creates a new DotEnv vault client.
func NewClient() (*Client, error) {
	return &Client{
		secrets: make(map[string]string),
	}, nil
}

// StoreSecret stores a secret in memory.
// Returns a URI in the format "dotenv://{key}".
func (c *Client) StoreSecret(ctx context.Context, key string, value string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.secrets[key] = value
	return fmt.Sprintf("dotenv://%s", key), nil
}

// GetSecret retrieves a secret from environment variables or the in-memory store.
func (c *Client) GetSecret(ctx context.Context, uri string) (string, error) {
	key := strings.TrimPrefix(uri, "dotenv://")

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if value, ok := c.secrets[key]; ok {
		return value, nil
	}

	return "", fmt.Errorf("secret not found: %s", key)
}

// DeleteSecret deletes a secret from memory.
func (c *Client) DeleteSecret(ctx context.Context, uri string) (bool, error) {
	key := strings.TrimPrefix(uri, "dotenv://")

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.secrets[key]; ok {
		delete(c.secrets, key)
		return true, nil
	}

	return false, nil
}

// Ping checks if the vault is available (always nil for dotenv).
func (c *Client) Ping(ctx context.Context) error {
	return nil
}

// Close closes the vault (no-op for dotenv).
func (c *Client) Close() error {
	return nil
}
