// Package profile loads the sender's business description.
package profile

import (
	"fmt"
	"os"
	"strings"
)

// Load reads the sender profile text from path. A missing, unreadable
// or empty profile is fatal to the whole batch: every cooperation
// analysis depends on it.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sender profile: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("sender profile %s is empty", path)
	}
	return text, nil
}
