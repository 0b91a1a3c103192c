// Package locale содержит языковые данные витрины и определение направления текста.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage используется, когда язык не указан или не распознан.
const DefaultLanguage = "en"

// Supported перечисляет языки витрины в порядке приоритета.
var Supported = []string{"en", "ur", "ar"}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Urdu,
	language.Arabic,
})

// Direction описывает направление письма.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

var rtlLanguages = map[string]struct{}{
	"ar": {}, "ur": {}, "he": {}, "fa": {}, "ku": {}, "ps": {}, "sd": {},
}

// IsSupported сообщает, поддерживается ли язык витриной.
func IsSupported(lang string) bool {
	for _, l := range Supported {
		if l == lang {
			return true
		}
	}
	return false
}

// DirectionOf возвращает направление письма для языка или языкового тега (например, ar-SA).
func DirectionOf(lang string) Direction {
	if _, ok := rtlLanguages[baseLanguage(lang)]; ok {
		return DirectionRTL
	}
	return DirectionLTR
}

// IsRTL сообщает, пишется ли язык справа налево.
func IsRTL(lang string) bool {
	return DirectionOf(lang) == DirectionRTL
}

// Match подбирает поддерживаемый язык по заголовку Accept-Language.
func Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return Supported[idx]
}

func baseLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if tag, err := language.Parse(lang); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}

	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}
