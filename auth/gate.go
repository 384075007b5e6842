package auth

import (
	"context"

	"photostore/apierr"
	"photostore/models"
	"photostore/utils"

	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	// UserKey holds the *models.User in the gin context
	UserKey = "user"

	userContextKey contextKey = "user"
)

// SetUser attaches the authenticated user to both the gin context and the request context
func SetUser(c *gin.Context, user *models.User) {
	c.Set(UserKey, user)
	c.Set(utils.UserIDKey, user.ID.String())
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userContextKey, user))
}

func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// Authorize fails with Unauthorized when no user is attached yet and with Forbidden
// naming the first missing permission otherwise
func Authorize(c *gin.Context, required ...models.Permission) error {
	user := UserFrom(c)
	if user == nil {
		return apierr.Unauthorized("No auth token provided")
	}
	if missing, ok := user.MissingPermission(required); ok {
		return apierr.Forbidden("Missing required permission: " + string(missing))
	}
	return nil
}
