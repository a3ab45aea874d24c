package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// CredentialsFileHandler writes the new key pair into a profile of an
// AWS shared-credentials file. Other profiles in the file are
// preserved verbatim.
type CredentialsFileHandler struct {
	path    string
	profile string
}

// NewCredentialsFileHandler creates a credentials-file propagation
// handler. profile defaults to "default".
func NewCredentialsFileHandler(path, profile string) (*CredentialsFileHandler, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials-file handler requires 'path'")
	}
	if profile == "" {
		profile = "default"
	}
	return &CredentialsFileHandler{path: path, profile: profile}, nil
}

// Name returns the handler name
func (h *CredentialsFileHandler) Name() string {
	return "credentials-file"
}

// Handle rewrites the configured profile with the new key pair.
func (h *CredentialsFileHandler) Handle(ctx context.Context, key *rotator.Key) error {
	return openSecret(key, func(secret string) error {
		existing, err := os.ReadFile(h.path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reading %s: %w", h.path, err)
		}

		section := fmt.Sprintf("[%s]\naws_access_key_id = %s\naws_secret_access_key = %s\n",
			h.profile, key.ID, secret)

		content := replaceProfile(string(existing), h.profile, section)

		if dir := filepath.Dir(h.path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(h.path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", h.path, err)
		}
		return nil
	})
}

// replaceProfile swaps the named profile section for replacement,
// appending it when the profile does not exist yet.
func replaceProfile(content, profile, replacement string) string {
	lines := strings.Split(content, "\n")
	header := "[" + profile + "]"

	var out []string
	inTarget := false
	replaced := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inTarget {
				inTarget = false
			}
			if trimmed == header {
				inTarget = true
				if !replaced {
					out = append(out, strings.TrimRight(replacement, "\n"))
					replaced = true
				}
				continue
			}
		}
		if inTarget {
			continue // drop the old profile body
		}
		out = append(out, line)
	}

	result := strings.Join(out, "\n")
	if !replaced {
		if result != "" && !strings.HasSuffix(result, "\n") {
			result += "\n"
		}
		result += replacement
	}
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}
