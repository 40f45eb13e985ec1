package middleware

import (
	"context"
	"net/http"

	"github.com/pawdesk/pawdesk/internal/tenancy"
)

const localeKey contextKey = "locale"

// Locale negotiates the response locale from Accept-Language.
func Locale(locales *tenancy.Locales) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := locales.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey, locale)))
		})
	}
}

func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey).(string); ok {
		return locale
	}
	return ""
}
