package auth

import (
	"golang.org/x/text/language"
)

// DefaultLanguage is used when no supported language matches the request.
const DefaultLanguage = "es"

type passwordMessages struct {
	minLength     string
	uppercase     string
	lowercase     string
	number        string
	special       string
	tooShort      string
	commonPattern string
}

// Index order must match supportedLanguages.
var catalog = []passwordMessages{
	{
		minLength:     "Debe tener al menos 8 caracteres",
		uppercase:     "Debe incluir al menos una letra mayúscula",
		lowercase:     "Debe incluir al menos una letra minúscula",
		number:        "Debe incluir al menos un número",
		special:       "Debe incluir al menos un carácter especial",
		tooShort:      "La contraseña es demasiado corta",
		commonPattern: "Evita patrones comunes o secuencias predecibles",
	},
	{
		minLength:     "Must be at least 8 characters long",
		uppercase:     "Must include at least one uppercase letter",
		lowercase:     "Must include at least one lowercase letter",
		number:        "Must include at least one number",
		special:       "Must include at least one special character",
		tooShort:      "Password is too short",
		commonPattern: "Avoid common patterns or predictable sequences",
	},
}

var supportedLanguages = []language.Tag{language.Spanish, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// MatchLanguage returns the supported base language ("es" or "en") that best
// matches lang, which may be a single tag or a full Accept-Language header.
func MatchLanguage(lang string) string {
	_, idx := matchIndex(lang)
	base, _ := supportedLanguages[idx].Base()
	return base.String()
}

func messagesFor(lang string) passwordMessages {
	_, idx := matchIndex(lang)
	return catalog[idx]
}

func matchIndex(lang string) (language.Tag, int) {
	if lang == "" {
		lang = DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return supportedLanguages[0], 0
	}
	tag, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return supportedLanguages[0], 0
	}
	return tag, idx
}
