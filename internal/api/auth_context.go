package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	// principalKey is the context key for the resolved caller.
	principalKey ctxKey = "principal"
	// clientIPKey carries the caller address into huma handlers.
	clientIPKey ctxKey = "client_ip"
)

func withPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// principalFrom returns the caller resolved by the session or bearer
// middleware, or nil.
func principalFrom(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(principalKey).(*service.Principal)
	return p
}

// currentUser returns the logged-in user, or nil for anonymous callers.
func currentUser(ctx context.Context) *domain.User {
	if p := principalFrom(ctx); p != nil {
		return p.User
	}
	return nil
}

// sessionID returns the caller's session id, or "".
func sessionID(ctx context.Context) string {
	if p := principalFrom(ctx); p != nil && p.Session != nil {
		return p.Session.ID
	}
	return ""
}

// sessionMiddleware resolves the session cookie. A missing or stale cookie
// starts a fresh anonymous session so the visit counter works before
// login.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
			p, err := s.services.Auth.Resolve(ctx, c.Value)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, p)))
				return
			}
			s.logger.Debug("discarding session cookie", "error", err)
		}

		st, err := s.services.Auth.StartSession(ctx)
		if err != nil {
			// Pages still render, just without a session.
			s.logger.Error("Failed to start session", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		s.setSessionCookie(w, st)
		p := &service.Principal{Session: st.Session}
		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, p)))
	})
}

// bearerMiddleware resolves an "Authorization: Bearer" session token.
// If no token is present or it is invalid, the request continues
// anonymously; handlers reject it where a user is required.
func (s *Server) bearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(context.WithValue(r.Context(), clientIPKey, clientIP(r)))

		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := s.services.Auth.Resolve(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

func (s *Server) setSessionCookie(w http.ResponseWriter, st *service.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    st.Token,
		Path:     "/",
		Expires:  st.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// loginURL is where anonymous callers of protected pages are sent.
func loginURL(r *http.Request) string {
	return "/login?next=" + url.QueryEscape(r.URL.RequestURI())
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
