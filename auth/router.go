package auth

import (
	"net/http"

	"photostore/apierr"
	"photostore/models"

	"github.com/gin-gonic/gin"
)

// User is authenticated and possesses the required permissions
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper that runs authentication and then authorization before every handler
type Router struct {
	Base gin.IRouter
	Auth *Authenticator
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc, required []models.Permission) {
	user, err := cr.Auth.Authenticate(c)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	if err = Authorize(c, required...); err != nil {
		apierr.Write(c, err)
		return
	}
	handler(c, user)
}

func (cr *Router) Handle(method, path string, handler HandlerFunc, required ...models.Permission) {
	cr.Base.Handle(method, path, func(c *gin.Context) {
		cr.baseExec(c, handler, required)
	})
}

func (cr *Router) GET(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Handle(http.MethodGet, path, handler, required...)
}

func (cr *Router) POST(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Handle(http.MethodPost, path, handler, required...)
}

func (cr *Router) DELETE(path string, handler HandlerFunc, required ...models.Permission) {
	cr.Handle(http.MethodDelete, path, handler, required...)
}
