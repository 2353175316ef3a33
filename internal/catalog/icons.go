package catalog

import "github.com/BradenHooton/prospectiva/internal/models"

const (
	// UnknownIconName is resolved for missing or unrecognized names.
	UnknownIconName = "HelpCircle"
	// DefaultIconName is stored when a technique carries no icon.
	DefaultIconName = "Target"
)

var iconTable = map[string]models.Icon{
	"Target":        {Name: "Target", Glyph: "target"},
	"Users":         {Name: "Users", Glyph: "users"},
	"TrendingUp":    {Name: "TrendingUp", Glyph: "trending-up"},
	"Lightbulb":     {Name: "Lightbulb", Glyph: "lightbulb"},
	"BarChart3":     {Name: "BarChart3", Glyph: "bar-chart-3"},
	"Brain":         {Name: "Brain", Glyph: "brain"},
	"Compass":       {Name: "Compass", Glyph: "compass"},
	"Eye":           {Name: "Eye", Glyph: "eye"},
	"GitBranch":     {Name: "GitBranch", Glyph: "git-branch"},
	"Globe":         {Name: "Globe", Glyph: "globe"},
	"Layers":        {Name: "Layers", Glyph: "layers"},
	"Map":           {Name: "Map", Glyph: "map"},
	"Network":       {Name: "Network", Glyph: "network"},
	"Search":        {Name: "Search", Glyph: "search"},
	"Zap":           {Name: "Zap", Glyph: "zap"},
	"Calendar":      {Name: "Calendar", Glyph: "calendar"},
	"BookOpen":      {Name: "BookOpen", Glyph: "book-open"},
	"Shuffle":       {Name: "Shuffle", Glyph: "shuffle"},
	"MessageCircle": {Name: "MessageCircle", Glyph: "message-circle"},
	"HelpCircle":    {Name: "HelpCircle", Glyph: "help-circle"},
}

// ResolveIcon maps a stored icon name to its handle. Missing or unknown
// names resolve to the HelpCircle icon.
func ResolveIcon(name string) *models.Icon {
	icon, ok := iconTable[name]
	if !ok {
		icon = iconTable[UnknownIconName]
	}
	return &icon
}

// IconName extracts the stored name from a handle, defaulting to Target.
func IconName(icon *models.Icon) string {
	if icon == nil || icon.Name == "" {
		return DefaultIconName
	}
	return icon.Name
}
