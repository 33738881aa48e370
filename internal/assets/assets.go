// Package assets picks supporting images for a letter by relevance.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\w+`)
	leadJunkRe = regexp.MustCompile(`^[\d._\s\-]+`)
	splitRe    = regexp.MustCompile(`[\s_\-]+`)
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Selector scores images in a directory against letter context and
// returns the most relevant ones.
type Selector struct {
	dir string
}

func NewSelector(dir string) *Selector {
	return &Selector{dir: dir}
}

// Select returns up to count image paths from the directory, scored by
// how many filename keywords appear in the letter body or company
// name. Slots left open by zero-score ties are filled from the
// remaining candidates so callers get count images whenever the
// directory holds that many.
func (s *Selector) Select(body, company string, count int) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read asset dir: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			candidates = append(candidates, filepath.Join(s.dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	context := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(body+" "+company), -1) {
		context[w] = true
	}

	type scored struct {
		path  string
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		score := 0
		for kw := range filenameKeywords(filepath.Base(p)) {
			if context[kw] {
				score++
			}
		}
		ranked = append(ranked, scored{path: p, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if count > len(ranked) {
		count = len(ranked)
	}
	out := make([]string, 0, count)
	for _, r := range ranked[:count] {
		out = append(out, r.path)
	}
	return out, nil
}

// filenameKeywords breaks an image filename into candidate keywords:
// the extension, each delimiter-separated word of the cleaned base
// name, and the full names themselves.
func filenameKeywords(name string) map[string]bool {
	keywords := make(map[string]bool)
	name = strings.TrimSpace(name)
	if name == "" {
		return keywords
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext != "" {
		keywords[ext] = true
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	cleaned := strings.TrimSpace(leadJunkRe.ReplaceAllString(base, ""))
	for _, part := range splitRe.Split(cleaned, -1) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			keywords[part] = true
		}
	}
	keywords[strings.ToLower(name)] = true
	if cleaned != "" {
		keywords[strings.ToLower(cleaned)] = true
	}
	delete(keywords, "")
	return keywords
}
