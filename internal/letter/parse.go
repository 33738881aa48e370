// Package letter turns generation output into a filed mail artifact:
// parsing the subject/body contract, building prompts, and composing
// the MIME message with inline assets.
package letter

import (
	"errors"
	"strings"
)

// BodySeparator is the structural marker the draft prompt instructs
// the model to emit between subject and body.
const BodySeparator = "---BODY_SEPARATOR---"

var (
	ErrNoSeparator  = errors.New("draft missing body separator")
	ErrEmptySubject = errors.New("draft missing subject")
)

// Draft is the parsed subject/body of one generated letter.
type Draft struct {
	Subject string
	Body    string
}

// ParseDraft splits a completion on the body separator. The raw
// completion stays available to callers for diagnostics even when
// parsing fails.
func ParseDraft(completion string) (Draft, error) {
	subjectPart, bodyPart, found := strings.Cut(completion, BodySeparator)
	if !found {
		return Draft{}, ErrNoSeparator
	}
	subject := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(subjectPart), "Subject:"))
	if subject == "" {
		return Draft{}, ErrEmptySubject
	}
	return Draft{Subject: subject, Body: strings.TrimSpace(bodyPart)}, nil
}
