// Package keyring stores provider API keys in the system keychain so the
// server and CLI can run without exporting them.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "snacks"

// APIKey names a provider key entry in the keychain.
type APIKey string

const (
	// OpenAI is used for transcription and the default workout coach.
	OpenAI APIKey = "openai-api-key"
	// Anthropic is used when GENERATION_PROVIDER=anthropic.
	Anthropic APIKey = "anthropic-api-key"
)

// AllAPIKeys returns every known key.
func AllAPIKeys() []APIKey {
	return []APIKey{OpenAI, Anthropic}
}

// DisplayName returns the provider name for the key.
func (k APIKey) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	default:
		return string(k)
	}
}

// Get retrieves an API key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores an API key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("refusing to store empty %s key", apiKey.DisplayName())
	}

	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// Delete removes an API key from the keychain. Deleting a missing key is not
// an error.
func Delete(apiKey APIKey) error {
	err := keyring.Delete(serviceName, string(apiKey))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if an API key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// Resolve prefers an explicitly configured value and falls back to the
// keychain. It returns "" when neither has the key.
func Resolve(apiKey APIKey, configured string) string {
	if configured != "" {
		return configured
	}

	value, err := Get(apiKey)
	if err != nil {
		return ""
	}

	return value
}

// APIKeyFromServiceName maps a service name (e.g., "openai") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch strings.ToLower(name) {
	case "openai":
		return OpenAI, nil
	case "anthropic":
		return Anthropic, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}
