package httpx

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/evalquiz/quiz-portal/internal/service"
)

// DefaultOriginCookieName names the cookie holding the storage origin id.
const DefaultOriginCookieName = "qp_origin"

// originCookieMaxAge is the 400-day ceiling browsers apply to cookie lifetimes.
const originCookieMaxAge = 400 * 24 * 60 * 60

// StorageOriginConfig configures the StorageOrigin middleware.
type StorageOriginConfig struct {
	Sessions     *service.Sessions // Required: builds a guard per origin
	CookieName   string            // Optional: default "qp_origin"
	CookieDomain string
	Secure       bool
}

// StorageOrigin gives every browser a stable storage origin, the server-side
// equivalent of a localStorage partition. The origin id is a random uuid kept
// in an HttpOnly cookie; a missing or unparsable cookie starts a fresh,
// empty origin. The request context then carries the origin's SessionGuard.
func StorageOrigin(cfg StorageOriginConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultOriginCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := readOrigin(r, cfg.CookieName)
			if origin == "" {
				origin = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    origin,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: true,
					Secure:   cfg.Secure || isSecureRequest(r),
					SameSite: http.SameSiteLaxMode,
					MaxAge:   originCookieMaxAge,
				})
			}

			ctx := setOriginInContext(r.Context(), origin)
			ctx = SetGuardInContext(ctx, cfg.Sessions.For(origin))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// readOrigin returns the canonical origin id from the cookie, or "".
func readOrigin(r *http.Request, name string) string {
	id, err := uuid.Parse(cookieValue(r, name))
	if err != nil {
		return ""
	}
	return id.String()
}
