package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "github.com/elpatron68/side-launcher/internal/log"
)

type flash struct{ Type, Text string }

func (s *Server) setFlash(w http.ResponseWriter, typ, text string) {
	if typ == "" {
		typ = "info"
	}
	// short-lived cookie
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(typ + "|" + text), Path: "/", MaxAge: 5})
}

func (s *Server) getFlash(r *http.Request) *flash {
	c, err := r.Cookie("flash")
	if err != nil || c.Value == "" {
		return nil
	}
	val, err := url.QueryUnescape(c.Value)
	if err != nil {
		val = c.Value
	}
	typ, text, ok := strings.Cut(val, "|")
	if !ok {
		return &flash{Type: "info", Text: val}
	}
	return &flash{Type: typ, Text: text}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("csrf_token"); err == nil && c.Value != "" {
		return c.Value
	}
	token, err := generateCSRFToken()
	if err != nil {
		applog.Warnf("failed to generate CSRF token: %v", err)
		token = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "csrf_token",
		Value:    token,
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

func (s *Server) validCSRF(r *http.Request) bool {
	c, err := r.Cookie("csrf_token")
	if err != nil || c.Value == "" {
		return false
	}
	form := r.FormValue("csrf_token")
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(form)) == 1
}

// crossSite reports a request a browser sent on behalf of another origin.
// Requests without browser origin headers (curl, scripts) pass.
func crossSite(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
