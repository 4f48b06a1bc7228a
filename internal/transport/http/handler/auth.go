package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thiagohmg/capitaoanimais/internal/cookie"
	"github.com/thiagohmg/capitaoanimais/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestVerification(ctx context.Context, email, name string) (string, error)
	ConfirmCode(verifToken, code string) (string, domain.Identity, error)
	RedeemToken(rawToken string) (string, domain.Identity, error)
	Authenticate(sessionToken string) (domain.Identity, bool)
	Configured() bool
}

type AuthHandler struct {
	auth   authUsecaser
	logger *slog.Logger
}

func NewAuthHandler(auth authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With("component", "auth_handler"),
	}
}

type sendVerificationRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// POST /api/send-verification
// Body fields are validated after normalization, so bind errors and shape
// errors collapse into the same 400.
func (h *AuthHandler) SendVerification(c *gin.Context) {
	var req sendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidEmail})
		return
	}

	verifToken, err := h.auth.RequestVerification(c.Request.Context(), req.Email, req.Name)
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidEmail})
		return
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNotConfigured})
		return
	}

	// A failed send still leaves the verification cookie in place: the
	// user may retry the request or come in through the magic link.
	if verifToken != "" {
		h.setCookie(c, cookie.Verification, verifToken, cookie.VerificationMaxAge)
	}
	if err != nil {
		h.logger.Error("send verification", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errEmailDelivery})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

// POST /api/verify-code
// On success the verification cookie is consumed and replaced by the
// session cookie. On a code mismatch the verification cookie is left
// untouched, so the user may try again.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCode})
		return
	}

	verifToken := requestCookie(c, cookie.Verification)
	session, identity, err := h.auth.ConfirmCode(verifToken, req.Code)
	if err != nil {
		h.rejectConfirm(c, err)
		return
	}

	h.logger.Info("verification confirmed", "email", identity.Email)
	h.setCookie(c, cookie.Verification, "", 0)
	h.setCookie(c, cookie.Session, session, cookie.SessionMaxAge)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) rejectConfirm(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCode})
	case errors.Is(err, domain.ErrVerificationExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errVerifExpired})
	case errors.Is(err, domain.ErrVerificationInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errVerifInvalid})
	case errors.Is(err, domain.ErrCodeMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errCodeMismatch})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNotConfigured})
	default:
		h.logger.Error("confirm code", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	}
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// POST /api/verify-token
// Magic-link variant: the whole verification token arrives in the body
// instead of the cookie, and possession of it replaces the code.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
		return
	}

	session, identity, err := h.auth.RedeemToken(req.Token)
	switch {
	case errors.Is(err, domain.ErrTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": errTokenInvalid})
		return
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNotConfigured})
		return
	case err != nil:
		h.logger.Error("redeem token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	h.logger.Info("magic link redeemed", "email", identity.Email)
	h.setCookie(c, cookie.Session, session, cookie.SessionMaxAge)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/session
// An absent or invalid session is a normal answer, not an error.
func (h *AuthHandler) Session(c *gin.Context) {
	if !h.auth.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNotConfigured})
		return
	}

	identity, ok := h.auth.Authenticate(requestCookie(c, cookie.Session))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"email":         identity.Email,
		"name":          identity.Name,
	})
}

// POST /api/logout
// Clears the session cookie. The token itself stays valid until expiry;
// there is no server-side revocation for stateless tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, cookie.Session, "", 0)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// setCookie renders the Set-Cookie value through the cookie package and
// appends it, so several cookies can change in one response. Secure is
// dropped only for local loopback hosts.
func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	header := cookie.Build(name, value, cookie.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: "Lax",
		Secure:   cookie.SecureForHost(requestHost(c)),
		MaxAge:   maxAge,
	})
	c.Writer.Header().Add("Set-Cookie", header)
}

func requestCookie(c *gin.Context, name string) string {
	return cookie.Parse(c.GetHeader("Cookie"))[name]
}

// requestHost prefers the proxy-forwarded host, since the service runs
// behind one in production.
func requestHost(c *gin.Context) string {
	if host := c.GetHeader("X-Forwarded-Host"); host != "" {
		return host
	}
	return c.Request.Host
}
