package models

import "time"

// Icon is an opaque handle to a display icon. Name is the stable identifier
// stored alongside a technique; Glyph is what clients render.
type Icon struct {
	Name  string `json:"name" yaml:"name"`
	Glyph string `json:"glyph" yaml:"glyph"`
}

// MethodologyStep is one ordered step in applying a technique.
type MethodologyStep struct {
	Step        int    `json:"step" yaml:"step"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Source is a bibliographic reference for a technique.
type Source struct {
	Author string `json:"author" yaml:"author"`
	Title  string `json:"title" yaml:"title"`
	Year   int    `json:"year,omitempty" yaml:"year"`
	URL    string `json:"url,omitempty" yaml:"url"`
}

// Technique is the nested in-memory form served to clients.
type Technique struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description" yaml:"description"`
	Category     string            `json:"category" yaml:"category"`
	Complexity   string            `json:"complexity" yaml:"complexity"`
	TimeHorizon  string            `json:"time_horizon" yaml:"time_horizon"`
	Participants string            `json:"participants" yaml:"participants"`
	Objectives   []string          `json:"objectives" yaml:"objectives"`
	Applications []string          `json:"applications" yaml:"applications"`
	Methodology  []MethodologyStep `json:"methodology" yaml:"methodology"`
	Advantages   []string          `json:"advantages" yaml:"advantages"`
	Limitations  []string          `json:"limitations" yaml:"limitations"`
	Sources      []Source          `json:"sources" yaml:"sources"`
	Icon         *Icon             `json:"icon" yaml:"-"`
	Language     string            `json:"language" yaml:"language"`
	IsActive     bool              `json:"is_active" yaml:"is_active"`
}

// TechniqueRecord is the flat row stored in the techniques table. List and
// step valued fields are JSON-encoded text.
type TechniqueRecord struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Category        string    `db:"category"`
	Complexity      string    `db:"complexity"`
	TimeHorizon     string    `db:"time_horizon"`
	MinParticipants *int      `db:"min_participants"`
	MaxParticipants *int      `db:"max_participants"`
	Objectives      string    `db:"objectives"`
	Applications    string    `db:"applications"`
	Methodology     string    `db:"methodology"`
	Advantages      string    `db:"advantages"`
	Limitations     string    `db:"limitations"`
	Sources         string    `db:"sources"`
	IconName        *string   `db:"icon_name"`
	IsActive        bool      `db:"is_active"`
	Language        string    `db:"language"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Catalog sources
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceFallback = "fallback"
)

// TechniqueFilter narrows a technique listing. Empty fields match everything.
type TechniqueFilter struct {
	Category    string
	Complexity  string
	TimeHorizon string
	Search      string
}

// TechniqueStats summarizes a catalog.
type TechniqueStats struct {
	Total         int            `json:"total"`
	ByCategory    map[string]int `json:"by_category"`
	ByComplexity  map[string]int `json:"by_complexity"`
	ByTimeHorizon map[string]int `json:"by_time_horizon"`
}
