package auth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/mercalog/go-backend/internal/cfg"
)

const (
	// CookieName — имя сессионной cookie.
	CookieName = "mercalog_session"
	// SessionTTL — время жизни cookie.
	SessionTTL = 24 * time.Hour
)

// CookiePolicy — атрибуты сессионной cookie, вычисленные один раз на старте.
// Кросс-доменный фронтенд требует SameSite=None, что обязывает Secure=true.
type CookiePolicy struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// ResolveCookiePolicy выбирает атрибуты cookie по окружению:
// разные хосты фронтенда и API — кросс-доменный режим (None+Secure),
// иначе SameSite=Lax; Secure дополнительно включается в production.
func ResolveCookiePolicy(authCfg *cfg.AuthCfg) CookiePolicy {
	crossSite := hostname(authCfg.FrontendOrigin) != hostname(authCfg.APIOrigin)

	policy := CookiePolicy{
		Name:     CookieName,
		Path:     "/",
		MaxAge:   SessionTTL,
		Secure:   crossSite || authCfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if crossSite {
		policy.SameSite = http.SameSiteNoneMode
	}

	return policy
}

// Issue устанавливает сессионную cookie с кодом доступа в качестве токена.
func (p CookiePolicy) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     p.Path,
		MaxAge:   int(p.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// Clear сбрасывает cookie тем же набором атрибутов, которым она ставилась:
// иначе часть браузеров не удалит её.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     p.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// Read возвращает токен из cookie запроса.
func (p CookiePolicy) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(p.Name)
	if err != nil {
		return "", err
	}

	return cookie.Value, nil
}

func hostname(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return origin
	}

	return u.Hostname()
}
