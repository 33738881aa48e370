package filing_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skylark-tools/letterpipe/internal/filing"
	"github.com/skylark-tools/letterpipe/internal/letter"
)

func TestOutbox_FilesArtifact(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	o := filing.NewOutbox(dir)

	id, err := o.File(context.Background(), letter.Artifact{
		From:     "sender@example.com",
		To:       "info@acme.example",
		Subject:  "Hello",
		BodyHTML: "<p>body</p>",
	})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if id == "" {
		t.Fatal("empty artifact id")
	}

	data, err := os.ReadFile(filepath.Join(dir, id+".eml"))
	if err != nil {
		t.Fatalf("read filed artifact: %v", err)
	}
	if !strings.Contains(string(data), "To: info@acme.example") {
		t.Fatalf("artifact content wrong:\n%s", data)
	}
}

func TestOutbox_UniqueIDs(t *testing.T) {
	t.Parallel()

	o := filing.NewOutbox(t.TempDir())
	a := letter.Artifact{From: "s@x.example", To: "r@y.example", Subject: "s", BodyHTML: "b"}

	id1, err := o.File(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := o.File(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("ids collide: %s", id1)
	}
}

func TestOutbox_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	o := filing.NewOutbox(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.File(ctx, letter.Artifact{}); err == nil {
		t.Fatal("expected context error")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("outbox dir created despite canceled context")
	}
}
