package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-personal-site/internal/session"
)

func newGate(t *testing.T, now func() time.Time) *session.Gate {
	t.Helper()
	g, err := session.New(session.Options{Username: "admin", Password: "s3cret", Secret: "test-secret", Now: now})
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return g
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestGate_Check(t *testing.T) {
	g := newGate(t, nil)
	if err := g.Check("admin", "s3cret"); err != nil {
		t.Fatalf("valid credentials: %v", err)
	}
	if err := g.Check("admin", "wrong"); !errors.Is(err, session.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if err := g.Check("root", "s3cret"); !errors.Is(err, session.ErrInvalidCredentials) {
		t.Fatalf("wrong user: %v", err)
	}

	empty, err := session.New(session.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if empty.Configured() {
		t.Fatalf("gate without credentials should not be configured")
	}
	if err := empty.Check("", ""); !errors.Is(err, session.ErrNotConfigured) {
		t.Fatalf("unconfigured: %v", err)
	}
}

func TestGate_IssueAndVerify(t *testing.T) {
	now := time.Now()
	g := newGate(t, func() time.Time { return now })
	c, err := g.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if c.Name != session.CookieName || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes: %+v", c)
	}
	if c.MaxAge != int((12 * time.Hour).Seconds()) {
		t.Fatalf("max age = %d", c.MaxAge)
	}
	if !g.IsAdmin(requestWith(c)) {
		t.Fatalf("issued cookie should be accepted")
	}
	if g.IsAdmin(requestWith(nil)) {
		t.Fatalf("missing cookie accepted")
	}
	if g.IsAdmin(requestWith(&http.Cookie{Name: session.CookieName, Value: "true"})) {
		t.Fatalf("forged plain cookie accepted")
	}

	now = now.Add(13 * time.Hour)
	if g.IsAdmin(requestWith(c)) {
		t.Fatalf("expired cookie accepted")
	}
}

func TestGate_RejectsOtherSecret(t *testing.T) {
	g := newGate(t, nil)
	c, err := g.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other, err := session.New(session.Options{Username: "admin", Password: "s3cret", Secret: "another"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if other.IsAdmin(requestWith(c)) {
		t.Fatalf("cookie signed with another secret accepted")
	}
}

func TestGate_Clear(t *testing.T) {
	g := newGate(t, nil)
	c := g.Clear()
	if c.Name != session.CookieName || c.MaxAge >= 0 || c.Value != "" {
		t.Fatalf("clear cookie: %+v", c)
	}
	if g.IsAdmin(requestWith(c)) {
		t.Fatalf("cleared cookie accepted")
	}
}
