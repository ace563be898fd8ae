package i18n

import (
	"net/http"
	"strings"
)

const DefaultLocale = "en"

var supportedLocales = map[string]struct{}{
	"en": {},
	"fr": {},
}

func LocaleFromRequest(r *http.Request) string {
	if r == nil {
		return DefaultLocale
	}
	return NormalizeLocale(r.Header.Get("Accept-Language"))
}

// NormalizeLocale reduces an Accept-Language header or raw language key to a
// supported locale, falling back to the default.
func NormalizeLocale(header string) string {
	if strings.TrimSpace(header) == "" {
		return DefaultLocale
	}

	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(part)
		if lang == "" {
			continue
		}
		if idx := strings.Index(lang, ";"); idx >= 0 {
			lang = lang[:idx]
		}
		lang = strings.ToLower(strings.TrimSpace(lang))
		if idx := strings.Index(lang, "-"); idx >= 0 {
			lang = lang[:idx]
		}
		if _, ok := supportedLocales[lang]; ok {
			return lang
		}
	}

	return DefaultLocale
}
