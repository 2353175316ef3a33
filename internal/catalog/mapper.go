// Package catalog converts between stored technique rows and the nested
// technique model, and carries the bundled fallback catalog.
package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/BradenHooton/prospectiva/internal/models"
)

var participantsPattern = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?`)

// ToTechnique maps a stored row to the nested model. Malformed or missing
// JSON in any list column becomes an empty list.
func ToTechnique(rec *models.TechniqueRecord) models.Technique {
	t := models.Technique{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		Category:     rec.Category,
		Complexity:   rec.Complexity,
		TimeHorizon:  rec.TimeHorizon,
		Participants: FormatParticipants(rec.MinParticipants, rec.MaxParticipants),
		Objectives:   decodeList[string](rec.Objectives),
		Applications: decodeList[string](rec.Applications),
		Methodology:  decodeList[models.MethodologyStep](rec.Methodology),
		Advantages:   decodeList[string](rec.Advantages),
		Limitations:  decodeList[string](rec.Limitations),
		Sources:      decodeList[models.Source](rec.Sources),
		Language:     rec.Language,
		IsActive:     rec.IsActive,
	}

	name := ""
	if rec.IconName != nil {
		name = *rec.IconName
	}
	t.Icon = ResolveIcon(name)
	return t
}

// ToTechniques maps a batch of rows
func ToTechniques(recs []*models.TechniqueRecord) []models.Technique {
	out := make([]models.Technique, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ToTechnique(rec))
	}
	return out
}

// ToRecord maps the nested model to a storable row. The participants text is
// parsed back to numeric bounds; its exact wording is not preserved.
func ToRecord(t *models.Technique) (*models.TechniqueRecord, error) {
	rec := &models.TechniqueRecord{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Complexity:  t.Complexity,
		TimeHorizon: t.TimeHorizon,
		IsActive:    t.IsActive,
		Language:    t.Language,
	}
	rec.MinParticipants, rec.MaxParticipants = ParseParticipants(t.Participants)

	iconName := IconName(t.Icon)
	rec.IconName = &iconName

	var err error
	fields := []struct {
		dst *string
		src any
	}{
		{&rec.Objectives, nonNil(t.Objectives)},
		{&rec.Applications, nonNil(t.Applications)},
		{&rec.Methodology, nonNil(t.Methodology)},
		{&rec.Advantages, nonNil(t.Advantages)},
		{&rec.Limitations, nonNil(t.Limitations)},
		{&rec.Sources, nonNil(t.Sources)},
	}
	for _, f := range fields {
		if *f.dst, err = encode(f.src); err != nil {
			return nil, fmt.Errorf("failed to encode technique %q: %w", t.Name, err)
		}
	}
	return rec, nil
}

// FormatParticipants renders participant bounds as display text
func FormatParticipants(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d-%d participantes", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("%d+ participantes", *lo)
	}
	return "Variable"
}

// ParseParticipants extracts bounds from text such as "5-10 participantes"
// or "8+ participantes". Missing groups yield nil bounds.
func ParseParticipants(text string) (lo, hi *int) {
	m := participantsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	return atoiPtr(m[1]), atoiPtr(m[2])
}

func atoiPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func decodeList[T any](raw string) []T {
	out := make([]T, 0)
	if raw == "" {
		return out
	}
	var decoded []T
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || decoded == nil {
		return out
	}
	return decoded
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
