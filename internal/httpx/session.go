package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const SessionCookie = "shop_session"

// 30 days, in seconds
const sessionMaxAge = 30 * 24 * 60 * 60

// Session resolves the cart session cookie, minting one on first contact so
// an anonymous visitor's first POST /cart/items already lands in a cart.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(SessionCookie); err == nil {
			sid = c.Value
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), ctxSession, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	s, _ := r.Context().Value(ctxSession).(string)
	return s
}
