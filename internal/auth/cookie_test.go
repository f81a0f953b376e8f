package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mercalog/go-backend/internal/cfg"
)

func TestResolveCookiePolicySameHost(t *testing.T) {
	policy := ResolveCookiePolicy(&cfg.AuthCfg{
		Environment:    cfg.EnvDevelopment,
		FrontendOrigin: "http://localhost:5173",
		APIOrigin:      "http://localhost:8080",
	})

	if policy.SameSite != http.SameSiteLaxMode {
		t.Errorf("same host must use Lax, got %v", policy.SameSite)
	}
	if policy.Secure {
		t.Error("development on same host must not require Secure")
	}
	if policy.MaxAge != SessionTTL {
		t.Errorf("expected MaxAge %v, got %v", SessionTTL, policy.MaxAge)
	}
}

func TestResolveCookiePolicyCrossSite(t *testing.T) {
	policy := ResolveCookiePolicy(&cfg.AuthCfg{
		Environment:    cfg.EnvDevelopment,
		FrontendOrigin: "https://catalog.example.com",
		APIOrigin:      "https://api.example.com",
	})

	if policy.SameSite != http.SameSiteNoneMode {
		t.Errorf("cross-site must use None, got %v", policy.SameSite)
	}
	if !policy.Secure {
		t.Error("SameSite=None requires Secure")
	}
}

func TestResolveCookiePolicyProduction(t *testing.T) {
	policy := ResolveCookiePolicy(&cfg.AuthCfg{
		Environment:    cfg.EnvProduction,
		FrontendOrigin: "https://catalog.example.com",
		APIOrigin:      "https://catalog.example.com",
	})

	if !policy.Secure {
		t.Error("production must always set Secure")
	}
	if policy.SameSite != http.SameSiteLaxMode {
		t.Errorf("same host must stay Lax even in production, got %v", policy.SameSite)
	}
}

func TestCookieIssueReadClear(t *testing.T) {
	policy := ResolveCookiePolicy(&cfg.AuthCfg{
		Environment:    cfg.EnvDevelopment,
		FrontendOrigin: "http://localhost:5173",
		APIOrigin:      "http://localhost:8080",
	})

	rec := httptest.NewRecorder()
	policy.Issue(rec, "secreto")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("expected cookie %q, got %q", CookieName, c.Name)
	}
	if c.Value != "secreto" {
		t.Errorf("expected token in cookie, got %q", c.Value)
	}
	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if c.MaxAge != int(SessionTTL.Seconds()) {
		t.Errorf("expected MaxAge %d, got %d", int(SessionTTL.Seconds()), c.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	token, err := policy.Read(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "secreto" {
		t.Errorf("expected token %q, got %q", "secreto", token)
	}

	rec = httptest.NewRecorder()
	policy.Clear(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cleared)
	}
	if cleared[0].Value != "" {
		t.Error("cleared cookie must be empty")
	}
}

func TestReadMissingCookie(t *testing.T) {
	policy := ResolveCookiePolicy(&cfg.AuthCfg{
		Environment:    cfg.EnvDevelopment,
		FrontendOrigin: "http://localhost:5173",
		APIOrigin:      "http://localhost:8080",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := policy.Read(req); err == nil {
		t.Fatal("expected error for missing cookie")
	}
}
