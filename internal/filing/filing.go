// Package filing persists composed artifacts to a draft system.
package filing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/skylark-tools/letterpipe/internal/letter"
)

// Filer files one artifact and returns its downstream identifier.
type Filer interface {
	File(ctx context.Context, a letter.Artifact) (string, error)
}

// Outbox files artifacts as .eml files in a local directory. It is
// the filing implementation shipped here; remote draft systems plug
// in behind the same interface.
type Outbox struct {
	dir string
}

func NewOutbox(dir string) *Outbox {
	return &Outbox{dir: dir}
}

func (o *Outbox) File(ctx context.Context, a letter.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := a.Encode()
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("create outbox dir: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(o.dir, id+".eml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return id, nil
}
