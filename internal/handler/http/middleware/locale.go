package middleware

import (
	"net/http"

	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/i18n"
	"golang.org/x/text/language"
)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Filipino,
})

// Locale picks the notification language from ?lang= or Accept-Language.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, _ := language.MatchStrings(localeMatcher, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		base, _ := tag.Base()
		ctx := i18n.WithLocale(r.Context(), base.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
