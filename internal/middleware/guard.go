package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/response"
)

// ContextAccountKey stores the user record resolved by a guard.
const ContextAccountKey = "currentAccount"

type permissionChecker interface {
	HasPermission(ctx context.Context, user *models.User, resource models.Resource, action models.Action) bool
}

type accountLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Guard gates routes on the caller's profile grants. Role labels are never
// consulted: only the concrete resource/action pair decides.
type Guard struct {
	authz  permissionChecker
	users  accountLoader
	logger *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(authz permissionChecker, users accountLoader, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{authz: authz, users: users, logger: logger}
}

// Authenticated resolves the current account without checking any grant.
func (g *Guard) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.account(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission aborts with FORBIDDEN unless the caller holds action on resource.
func (g *Guard) RequirePermission(resource models.Resource, action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := g.account(c)
		if !ok {
			return
		}
		if !g.authz.HasPermission(c.Request.Context(), user, resource, action) {
			g.logger.Debug("permission denied",
				zap.String("user_id", user.ID),
				zap.String("resource", string(resource)),
				zap.String("action", string(action)),
			)
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+string(resource)+":"+string(action)))
			return
		}
		c.Next()
	}
}

// RequireView is RequirePermission for the view action.
func (g *Guard) RequireView(resource models.Resource) gin.HandlerFunc {
	return g.RequirePermission(resource, models.ActionView)
}

// CurrentAccount returns the user resolved by a guard earlier in the chain.
func CurrentAccount(c *gin.Context) *models.User {
	value, exists := c.Get(ContextAccountKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func (g *Guard) account(c *gin.Context) (*models.User, bool) {
	if user := CurrentAccount(c); user != nil {
		return user, true
	}
	claims := Claims(c)
	if claims == nil {
		response.Abort(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	user, err := g.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		g.logger.Warn("guard failed to load account", zap.String("user_id", claims.UserID), zap.Error(err))
		response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "unable to resolve permissions"))
		return nil, false
	}
	if user == nil {
		response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists"))
		return nil, false
	}
	if !user.Active() {
		response.Abort(c, appErrors.ErrInactiveAccount)
		return nil, false
	}
	c.Set(ContextAccountKey, user)
	return user, true
}
