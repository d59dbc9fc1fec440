package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories/casdoor"
	"github.com/achievers-lc/learning-center/internal/utils"
)

const accountContextKey = "account"

// AccountResolver maps a bearer token onto a local account
type AccountResolver interface {
	Resolve(ctx context.Context, token string) (*models.Account, error)
}

// CasdoorAuthMiddleware authenticates requests with Casdoor-issued tokens
type CasdoorAuthMiddleware struct {
	BaseHandler
	resolver AccountResolver
}

func NewCasdoorAuthMiddleware(resolver AccountResolver, logger utils.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		resolver:    resolver,
	}
}

// AuthMiddleware requires a valid token that belongs to an active local account
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			cam.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "authorization header missing or malformed", nil)
			return
		}

		account, err := cam.resolver.Resolve(c.Request.Context(), token)
		switch {
		case errors.Is(err, casdoor.ErrInvalidToken), errors.Is(err, casdoor.ErrUnknownAccount):
			cam.RespondWithError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
			return
		case err != nil:
			cam.LogError(c, err, "Failed to resolve account")
			cam.RespondWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
			return
		}

		if !account.IsActive() {
			cam.RespondWithError(c, http.StatusForbidden, "forbidden", fmt.Sprintf("account %s", account.Status), nil)
			return
		}

		c.Set(accountContextKey, account)
		c.Set("user_id", account.ID)
		c.Set("user_role", account.Role)
		c.Set("user_email", account.Email)
		if logger, ok := c.Get("logger"); ok {
			if l, ok := logger.(utils.Logger); ok {
				scoped := l.With("account_id", account.ID)
				c.Set("logger", scoped)
				c.Request = c.Request.WithContext(utils.WithLogger(c.Request.Context(), scoped))
			}
		}

		c.Next()
	}
}

// RequireRoleMiddleware admits the listed roles. Admins always pass.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			cam.RespondWithError(c, http.StatusForbidden, "forbidden", "account not found in context", nil)
			return
		}

		if account.IsAdmin() || slices.Contains(requiredRoles, account.Role) {
			c.Next()
			return
		}

		cam.RespondWithError(c, http.StatusForbidden, "forbidden",
			fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles), nil)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentAccount returns the account set by AuthMiddleware
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	value, exists := c.Get(accountContextKey)
	if !exists {
		return nil, false
	}
	account, ok := value.(*models.Account)
	return account, ok && account != nil
}
