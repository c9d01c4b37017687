package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"career-catalog-backend/config"
	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/auth"
	"career-catalog-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const defaultRole = "user"

var errNoToken = errors.New("no token")

// Authenticator verifies bearer tokens and resolves the caller's role from
// the local account record.
type Authenticator struct {
	jwks   *auth.Provider
	secret string
	authUC domain.AuthUsecase
}

func NewAuthenticator(jwksProvider *auth.Provider, cfg *config.Config, authUC domain.AuthUsecase) *Authenticator {
	return &Authenticator{jwks: jwksProvider, secret: cfg.JWTSecret, authUC: authUC}
}

func bearerToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

func (a *Authenticator) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if a.secret == "" {
			return nil, fmt.Errorf("HS256 token received but JWT_SECRET is not configured")
		}
		return []byte(a.secret), nil
	case *jwt.SigningMethodRSA:
		if !a.jwks.Enabled() {
			return nil, fmt.Errorf("RS256 token received but JWKS_URL is not configured")
		}
		return a.jwks.KeyFunc(token)
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// authenticate verifies the request token and stores the identity on c.
func (a *Authenticator) authenticate(c *gin.Context) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return errNoToken
	}

	token, err := jwt.Parse(tokenString, a.keyFunc)
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return errors.New("token has no subject")
	}

	// The role comes from the local account, never from the token.
	role := defaultRole
	ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, sub)
	user, err := a.authUC.GetCurrentUser(ctx, sub)
	switch {
	case err == nil && user.Role != "":
		role = user.Role
	case err != nil && !apperror.Is(err, apperror.KindNotFound):
		return err
	}

	c.Set(string(domain.KeyUserID), sub)
	c.Set(string(domain.KeyUserEmail), email)
	c.Set(string(domain.KeyUserRole), role)
	return nil
}

// AuthMiddleware rejects requests without a valid token.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := a.authenticate(c)
		if err == nil {
			c.Next()
			return
		}

		if apperror.Is(err, apperror.KindStoreUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, "Data store unavailable", nil)
			c.Abort()
			return
		}
		if errors.Is(err, errNoToken) {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}
		logger.Log.Debug("token validation failed", "error", err)
		response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
		c.Abort()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and lets anonymous requests through.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.authenticate(c); err != nil && !errors.Is(err, errNoToken) {
			logger.Log.Debug("optional auth ignored token", "error", err)
		}
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(string(domain.KeyUserRole)) != domain.RoleAdmin {
			c.Error(apperror.Forbidden("Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
