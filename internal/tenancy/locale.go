package tenancy

import (
	"golang.org/x/text/language"
)

// Locales resolves client locale preferences against the configured set.
type Locales struct {
	tags     []language.Tag
	names    []string
	matcher  language.Matcher
	fallback string
}

// NewLocales builds a matcher over supported. The default locale is moved
// to the front so that it wins when nothing matches.
func NewLocales(defaultLocale string, supported []string) *Locales {
	names := []string{defaultLocale}
	for _, s := range supported {
		if s != defaultLocale {
			names = append(names, s)
		}
	}

	tags := make([]language.Tag, 0, len(names))
	kept := make([]string, 0, len(names))
	for _, n := range names {
		tag, err := language.Parse(n)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		kept = append(kept, n)
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
		kept = []string{"en"}
	}

	return &Locales{
		tags:     tags,
		names:    kept,
		matcher:  language.NewMatcher(tags),
		fallback: kept[0],
	}
}

// Supported reports whether locale is one of the configured locales.
func (l *Locales) Supported(locale string) bool {
	for _, n := range l.names {
		if n == locale {
			return true
		}
	}
	return false
}

// Match picks the best configured locale for an Accept-Language header.
func (l *Locales) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return l.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return l.fallback
	}
	_, idx, confidence := l.matcher.Match(prefs...)
	if confidence == language.No {
		return l.fallback
	}
	return l.names[idx]
}

func (l *Locales) Default() string { return l.fallback }

func (l *Locales) All() []string {
	return append([]string(nil), l.names...)
}
