// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Key file names recognized by the CLI.
const (
	AnthropicKey = "anthropic-api-key"
	GeminiKey    = "gemini-api-key"
)

// envFallback maps a key file name to the environment variable consulted
// when the file is absent.
var envFallback = map[string]string{
	AnthropicKey: "ANTHROPIC_API_KEY",
	GeminiKey:    "GEMINI_API_KEY",
}

// Secrets is the set of loaded secrets keyed by file name.
type Secrets map[string]string

// Lookup returns the secret for key, falling back to its environment
// variable. The empty string means neither source has it.
func (s Secrets) Lookup(key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	if env, ok := envFallback[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// Keys returns the names of the loaded secrets.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// Load reads all files in dir and returns them keyed by filename.
// A missing directory is not an error; Load returns an empty set.
// Unreadable files are logged and skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
