package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printshop/personalizer/internal/infrastructure/auth"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/printshop/personalizer/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys
const (
	SessionIDKey    = "session_id"
	AdminSubjectKey = "admin_subject"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// SessionConfig holds configuration for the shopper session middleware
type SessionConfig struct {
	JWTService *auth.JWTService
	Cookie     config.CookieConfig
	Logger     *zap.Logger
}

// Session identifies the shopper by a signed session cookie. Requests without
// a valid cookie start a new session and receive a fresh cookie, so downstream
// handlers can always rely on GetSessionID.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sameSite := parseSameSite(cfg.Cookie.SameSite)

	return func(c *gin.Context) {
		sessionID := ""
		if raw, err := c.Cookie(cfg.Cookie.Name); err == nil && raw != "" {
			claims, err := cfg.JWTService.ValidateSessionToken(raw)
			if err == nil {
				sessionID = claims.SessionID
			} else {
				log.Debug("Discarding invalid session cookie", zap.Error(err))
			}
		}

		if sessionID == "" {
			issued, err := cfg.JWTService.GenerateSessionToken()
			if err != nil {
				log.Error("Failed to issue session token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Cannot start a session", GetRequestID(c)))
				return
			}
			sessionID = issued.SessionID
			c.SetSameSite(sameSite)
			c.SetCookie(cfg.Cookie.Name, issued.Token, int(cfg.JWTService.SessionExpiration().Seconds()),
				cfg.Cookie.Path, cfg.Cookie.Domain, cfg.Cookie.Secure, true)
		}

		c.Set(SessionIDKey, sessionID)
		ctx, _ := logger.WithSessionID(c.Request.Context(), logger.FromContext(c.Request.Context()), sessionID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetSessionID returns the shopper session set by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// AdminAuth requires a bearer token carrying the admin role
func AdminAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortAuth(c, log, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if token == "" {
			abortAuth(c, log, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := jwtService.ValidateAdminToken(token)
		if err != nil {
			abortAuth(c, log, err, "Token validation failed")
			return
		}

		c.Set(AdminSubjectKey, claims.Subject)
		c.Next()
	}
}

// abortAuth answers 401 for unusable tokens and 403 for valid tokens of the wrong kind
func abortAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("Admin authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	status, code, message := http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid), errors.Is(err, auth.ErrInvalidClaims):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	case errors.Is(err, auth.ErrInsufficientRole), errors.Is(err, auth.ErrInvalidTokenType):
		status, code, message = http.StatusForbidden, dto.ErrCodeForbidden, "Admin role required"
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
