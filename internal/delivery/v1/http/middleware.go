package http

import (
	"net/http"

	"github.com/mercalog/go-backend/internal/auth"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
)

// AccessGate проверяет сессионную cookie на каждом запросе.
// Токен в cookie — сам код доступа, поэтому он сверяется с bcrypt-хэшем
// заново: смена кода на сервере мгновенно гасит все выданные сессии.
func AccessGate(verifier *auth.Verifier, policy auth.CookiePolicy, logger logger.Logger, exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := policy.Read(r)
			if err != nil {
				WriteError(w, e.ErrUnauthorized, exposeDetail)
				return
			}

			if !verifier.Verify(token) {
				logger.Warnf("Rejected request with stale session cookie: %s %s", r.Method, r.URL.Path)
				WriteError(w, e.ErrUnauthorized, exposeDetail)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RecoverJSON перехватывает панику обработчика и отвечает тем же
// конвертом ошибки, что и остальной API.
func RecoverJSON(logger logger.Logger, exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf(e.ErrInternalServerError, "Panic in %s %s: %v", r.Method, r.URL.Path, rec)
					WriteError(w, e.ErrInternalServerError, exposeDetail)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
