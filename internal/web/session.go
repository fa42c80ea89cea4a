package web

import (
	"context"
	"net/http"
)

// CookieName is the session cookie.
const CookieName = "spark_session"

type sessionKey struct{}

// withSession resolves the session cookie, starting a new session when the
// cookie is missing or its session has expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var current string
		if c, err := r.Cookie(CookieName); err == nil {
			current = c.Value
		}

		id, _, err := s.svc.Resume(r.Context(), current)
		if err != nil {
			writeError(w, r, err)
			return
		}
		// Max age tracks the idle expiry, so reissue on every request.
		http.SetCookie(w, s.cookie(id))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func (s *Server) cookie(id string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if s.opts.SessionTTL > 0 {
		c.MaxAge = int(s.opts.SessionTTL.Seconds())
	}
	return c
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
