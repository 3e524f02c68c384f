package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	csrfTokenLength = 32

	// CSRFCookieName holds the double-submit token. app.js reads it, so it
	// is not HttpOnly.
	CSRFCookieName = "mp_csrf"

	// CSRFHeaderName carries the token on fetch requests.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField carries the token on plain form posts.
	CSRFFormField = "csrf_token"
)

type csrfKey struct{}

// NewCSRF guards state-changing requests with a double-submit cookie.
// Safe methods pass and get a token cookie if they lack a valid one. POST,
// PUT, PATCH and DELETE must echo the cookie in CSRFHeaderName or
// CSRFFormField.
func NewCSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := csrfCookie(r)
			if !fromCookie {
				var err error
				if token, err = newCSRFToken(); err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfKey{}, token))

			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !fromCookie || !csrfMatch(token, submittedCSRF(r)) {
				rejectCSRF(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFTokenFromCtx returns the request's token, including one minted for
// this very response.
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// csrfCookie returns the cookie token when it is well formed.
func csrfCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil || len(c.Value) != csrfTokenLength*2 {
		return "", false
	}
	if _, err := hex.DecodeString(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

func submittedCSRF(r *http.Request) string {
	if v := r.Header.Get(CSRFHeaderName); v != "" {
		return v
	}
	return r.PostFormValue(CSRFFormField)
}

func csrfMatch(want, got string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"csrf token mismatch"}`))
		return
	}
	http.Error(w, "CSRF token mismatch", http.StatusForbidden)
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
