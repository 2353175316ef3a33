package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/BradenHooton/prospectiva/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a request does not name a catalog language
const DefaultLanguage = "es"

//go:embed fallback_techniques.yaml
var fallbackYAML []byte

type fallbackEntry struct {
	models.Technique `yaml:",inline"`
	IconName         string `yaml:"icon"`
}

var (
	fallbackOnce    sync.Once
	fallbackByLang  map[string][]models.Technique
	fallbackLoadErr error
)

// ParseFallback decodes a YAML technique table, resolving icon names and
// normalizing missing lists to empty ones.
func ParseFallback(data []byte) ([]models.Technique, error) {
	var entries []fallbackEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse fallback techniques: %w", err)
	}

	out := make([]models.Technique, 0, len(entries))
	for _, e := range entries {
		t := e.Technique
		t.Icon = ResolveIcon(e.IconName)
		if t.Language == "" {
			t.Language = DefaultLanguage
		}
		if t.Participants == "" {
			t.Participants = "Variable"
		}
		t.Objectives = nonNil(t.Objectives)
		t.Applications = nonNil(t.Applications)
		t.Methodology = nonNil(t.Methodology)
		t.Advantages = nonNil(t.Advantages)
		t.Limitations = nonNil(t.Limitations)
		t.Sources = nonNil(t.Sources)
		out = append(out, t)
	}
	return out, nil
}

// FallbackTechniques returns the bundled active techniques for lang, falling
// back to the default language when lang has none. The result is a fresh
// slice the caller may modify.
func FallbackTechniques(lang string) []models.Technique {
	fallbackOnce.Do(func() {
		all, err := ParseFallback(fallbackYAML)
		if err != nil {
			fallbackLoadErr = err
			return
		}
		fallbackByLang = make(map[string][]models.Technique)
		for _, t := range all {
			if t.IsActive {
				fallbackByLang[t.Language] = append(fallbackByLang[t.Language], t)
			}
		}
	})
	if fallbackLoadErr != nil {
		return []models.Technique{}
	}

	techniques, ok := fallbackByLang[lang]
	if !ok {
		techniques = fallbackByLang[DefaultLanguage]
	}
	out := make([]models.Technique, len(techniques))
	copy(out, techniques)
	return out
}
