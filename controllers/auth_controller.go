package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/mediadesk/middleware"
	"github.com/cppla/mediadesk/utils"
)

// AuthController exposes session helpers around externally issued tokens.
type AuthController struct {
	auth        *middleware.Authorizer
	revocations utils.Revocations
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *middleware.Authorizer, revocations utils.Revocations) *AuthController {
	return &AuthController{auth: auth, revocations: revocations}
}

// Verify runs the request authentication checks against a token passed in the
// body and returns the caller's client-side view. Nothing is mutated.
func (a *AuthController) Verify(ctx *gin.Context) {
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	token, ok := body.nonEmpty("idToken")
	if !ok {
		utils.Error(ctx, 400, "Missing ID token")
		return
	}

	user, _, err := a.auth.Check(ctx.Request.Context(), token)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user.Public())
}

// Me returns the authenticated caller.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, mustUser(ctx).Public())
}

// Logout revokes the presented bearer token until it would have expired anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	until := time.Now().Add(24 * time.Hour)
	if id, ok := middleware.CurrentIdentity(ctx); ok && !id.ExpiresAt.IsZero() {
		until = id.ExpiresAt
	}
	if err := a.revocations.Revoke(ctx.Request.Context(), token, until); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to log out", err))
		return
	}
	utils.Logger.Info("session revoked", zap.String("uid", mustUser(ctx).UID))
	utils.Success(ctx, gin.H{"loggedOut": true})
}
