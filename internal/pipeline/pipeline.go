// Package pipeline drives one record through the outreach stages:
// validate, dedupe-check, fetch, extract, cooperate, draft,
// select-assets, assemble and file.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/skylark-tools/letterpipe/internal/letter"
	"github.com/skylark-tools/letterpipe/internal/record"
	"github.com/skylark-tools/letterpipe/pkg/pipeline/call"
)

// Fetcher retrieves bounded website content.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxLen int, timeout time.Duration) (string, error)
}

// Completer turns one prompt into one completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AssetSelector picks supporting images by relevance to the letter.
type AssetSelector interface {
	Select(body, company string, count int) ([]string, error)
}

// Filer persists a composed artifact and returns its identifier.
type Filer interface {
	File(ctx context.Context, a letter.Artifact) (string, error)
}

type Config struct {
	SenderAddress string
	SenderProfile string
	DefaultLocale string

	// AssetCount is the exact number of inline images a letter must
	// carry; records that cannot get exactly this many are skipped.
	AssetCount int

	FetchMaxLen  int
	FetchTimeout time.Duration

	// BrochurePath optionally attaches a brochure to every letter.
	// A missing file is a warning, not an error.
	BrochurePath string

	Call call.Options
}

type Pipeline struct {
	cfg       Config
	fetcher   Fetcher
	completer Completer
	assets    AssetSelector
	filer     Filer
}

func New(cfg Config, fetcher Fetcher, completer Completer, assets AssetSelector, filer Filer) *Pipeline {
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "English"
	}
	if cfg.AssetCount <= 0 {
		cfg.AssetCount = 3
	}
	return &Pipeline{cfg: cfg, fetcher: fetcher, completer: completer, assets: assets, filer: filer}
}

// Process pushes one record to a terminal status. Any panic inside a
// stage is converted to an Error status here; one record's crash never
// reaches the batch.
func (p *Pipeline) Process(ctx context.Context, rec *record.Record, handled map[string]struct{}) (st record.Status) {
	defer func() {
		if v := recover(); v != nil {
			st = record.Errored(fmt.Sprintf("fault: %v", v))
			rec.Outcome.Status = st
			slog.Error("record crashed", "company", rec.CompanyName, "fault", v)
		}
	}()
	st = p.process(ctx, rec, handled)
	rec.Outcome.Status = st
	return st
}

func (p *Pipeline) process(ctx context.Context, rec *record.Record, handled map[string]struct{}) record.Status {
	// Validate.
	if !rec.ShouldProcess() {
		slog.Info("skipping, process directive not affirmative", "company", rec.CompanyName)
		return record.Skipped(record.ReasonDirective)
	}
	if !rec.ValidRecipient() {
		slog.Warn("skipping, invalid recipient address", "company", rec.CompanyName, "recipient", rec.Recipient)
		return record.Skipped(record.ReasonBadAddress)
	}

	// Dedupe-check.
	if _, ok := handled[rec.DedupeKey()]; ok {
		slog.Info("skipping, recipient already handled", "company", rec.CompanyName, "recipient", rec.Recipient)
		return record.Skipped(record.ReasonDuplicate)
	}

	// Fetch. Absence of content does not terminate the record: a
	// letter without a web signal still has value.
	content, err := call.Invoke(ctx, func(ctx context.Context) (string, error) {
		return p.fetcher.Fetch(ctx, rec.Website, p.cfg.FetchMaxLen, p.cfg.FetchTimeout)
	}, p.cfg.Call)
	if err != nil {
		slog.Warn("website fetch failed", "company", rec.CompanyName, "website", rec.Website, "error", err)
		content = ""
	}

	// Extract.
	rec.Outcome.MainBusiness = record.Unavailable
	if content != "" {
		summary, err := call.Invoke(ctx, func(ctx context.Context) (string, error) {
			return p.completer.Complete(ctx, letter.ExtractPrompt(content))
		}, p.cfg.Call)
		if err != nil {
			slog.Warn("business extraction failed", "company", rec.CompanyName, "error", err)
		} else {
			rec.Outcome.MainBusiness = summary
		}
	}

	// Cooperate. An explicit "nothing found" answer and a failed call
	// normalize to the same sentinel; either way the letter gets written.
	rec.Outcome.CooperationPoints = record.Unavailable
	points, err := call.Invoke(ctx, func(ctx context.Context) (string, error) {
		return p.completer.Complete(ctx, letter.CooperatePrompt(p.cfg.SenderProfile, rec.Outcome.MainBusiness))
	}, p.cfg.Call)
	if err != nil {
		slog.Warn("cooperation analysis failed", "company", rec.CompanyName, "error", err)
	} else if !strings.Contains(strings.ToLower(points), letter.NoPointsMarker) {
		rec.Outcome.CooperationPoints = points
	}

	// Draft.
	completion, err := call.Invoke(ctx, func(ctx context.Context) (string, error) {
		return p.completer.Complete(ctx, letter.DraftPrompt(letter.DraftInput{
			CompanyName:       rec.CompanyName,
			ContactName:       rec.ContactOrCompany(),
			CooperationPoints: rec.Outcome.CooperationPoints,
			Locale:            rec.ResolveLocale(p.cfg.DefaultLocale),
			AssetCount:        p.cfg.AssetCount,
		}))
	}, p.cfg.Call)
	if err != nil {
		slog.Error("letter generation failed", "company", rec.CompanyName, "error", err)
		return record.Errored(record.ReasonDraftFailed)
	}
	draft, err := letter.ParseDraft(completion)
	if err != nil {
		// Keep the raw completion for diagnostics.
		rec.Outcome.Body = completion
		slog.Error("generated letter malformed", "company", rec.CompanyName, "error", err)
		return record.Errored(record.ReasonDraftFailed)
	}
	rec.Outcome.Subject = draft.Subject
	rec.Outcome.Body = draft.Body

	// Select-assets. An incomplete artifact is worse than none.
	images, err := p.assets.Select(draft.Body, rec.CompanyName, p.cfg.AssetCount)
	if err != nil {
		slog.Warn("asset selection failed", "company", rec.CompanyName, "error", err)
		return record.Skipped(record.ReasonInsufficientAssets)
	}
	if len(images) != p.cfg.AssetCount {
		slog.Warn("could not select required asset count",
			"company", rec.CompanyName, "got", len(images), "want", p.cfg.AssetCount)
		return record.Skipped(record.ReasonInsufficientAssets)
	}

	// Assemble and file.
	artifact := letter.Artifact{
		From:         p.cfg.SenderAddress,
		To:           rec.Recipient,
		Subject:      draft.Subject,
		BodyHTML:     draft.Body,
		InlineImages: images,
	}
	if p.cfg.BrochurePath != "" {
		if _, err := os.Stat(p.cfg.BrochurePath); err != nil {
			slog.Warn("brochure not found, filing without attachment", "path", p.cfg.BrochurePath)
		} else {
			artifact.Attachments = append(artifact.Attachments, p.cfg.BrochurePath)
		}
	}

	id, err := p.filer.File(ctx, artifact)
	if err != nil || id == "" {
		slog.Error("filing failed", "company", rec.CompanyName, "error", err)
		return record.Errored(record.ReasonFilingFailed)
	}
	slog.Info("draft filed", "company", rec.CompanyName, "draft_id", id)
	return record.Success(id)
}
