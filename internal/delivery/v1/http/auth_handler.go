package http

import (
	"net/http"

	"github.com/mercalog/go-backend/internal/auth"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
)

type AuthHandler struct {
	verifier     *auth.Verifier
	policy       auth.CookiePolicy
	logger       logger.Logger
	exposeDetail bool
}

func NewAuthHandler(verifier *auth.Verifier, policy auth.CookiePolicy, logger logger.Logger, exposeDetail bool) *AuthHandler {
	return &AuthHandler{
		verifier:     verifier,
		policy:       policy,
		logger:       logger,
		exposeDetail: exposeDetail,
	}
}

type loginReq struct {
	AccessCode string `json:"access_code"`
}

// login
//
//	@Summary		Вход по коду доступа
//	@Description	Сверяет код с bcrypt-хэшем и ставит сессионную cookie
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginReq	true	"Код доступа"
//	@Success		200		{object}	Response
//	@Failure		401		{object}	Response	"Неверный код"
//	@Router			/auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warnf("%d malformed login body: %s", http.StatusUnauthorized, err.Error())
		WriteError(w, e.ErrInvalidAccessCode, h.exposeDetail)
		return
	}

	if !h.verifier.Verify(req.AccessCode) {
		h.logger.Warnf("Failed login attempt from %s", r.RemoteAddr)
		WriteError(w, e.ErrInvalidAccessCode, h.exposeDetail)
		return
	}

	h.policy.Issue(w, req.AccessCode)
	WriteSuccess(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// logout сбрасывает сессионную cookie. Всегда успешен.
func (h *AuthHandler) logout(w http.ResponseWriter, _ *http.Request) {
	h.policy.Clear(w)
	WriteMessage(w, http.StatusOK, "logged out")
}

// check сообщает, валидна ли текущая сессия, не требуя её наличия.
func (h *AuthHandler) check(w http.ResponseWriter, r *http.Request) {
	token, err := h.policy.Read(r)
	authenticated := err == nil && h.verifier.Verify(token)

	WriteSuccess(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}
