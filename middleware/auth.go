package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/permissions"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/utils"
)

const (
	// ContextUserKey stores the loaded roster entry inside the Gin context.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextIdentityKey stores the verified token identity.
	ContextIdentityKey = "identity"
)

// Authorizer runs the three-step check shared by every protected route and
// the token verify endpoint: verify the token, load the roster entry, and
// require a role and ACTIVE status.
type Authorizer struct {
	verifier    utils.IdentityVerifier
	roster      repository.RosterStore
	revocations utils.Revocations
}

func NewAuthorizer(verifier utils.IdentityVerifier, roster repository.RosterStore, revocations utils.Revocations) *Authorizer {
	return &Authorizer{verifier: verifier, roster: roster, revocations: revocations}
}

// Check resolves token to an active roster entry.
func (a *Authorizer) Check(ctx context.Context, token string) (*models.User, *utils.Identity, error) {
	if a.revocations != nil && a.revocations.IsRevoked(ctx, token) {
		return nil, nil, utils.Unauthenticated("Token has been revoked")
	}
	id, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, nil, &utils.AppError{Kind: utils.KindUnauthenticated, Message: "Invalid or expired token", Err: err}
	}

	user, err := a.roster.Get(ctx, id.UID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, utils.Forbidden("User record not found")
	}
	if err != nil {
		return nil, nil, utils.Upstream("Authentication failed", err)
	}
	if user.Role == "" {
		return nil, nil, utils.Forbidden("User has no assigned role")
	}
	if user.Status != models.StatusActive {
		return nil, nil, utils.Forbidden("User account is not active")
	}
	return user, id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authenticate ensures the request carries a valid bearer token for an active roster user.
func Authenticate(a *Authorizer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := BearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			utils.Error(ctx, 401, "Missing or invalid authorization header")
			return
		}

		user, id, err := a.Check(ctx.Request.Context(), token)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}

		ctx.Set(utils.ContextUIDKey, user.UID)
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextIdentityKey, id)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// CurrentUser returns the roster entry loaded by Authenticate.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// CurrentIdentity returns the verified token identity set by Authenticate.
func CurrentIdentity(ctx *gin.Context) (*utils.Identity, bool) {
	v, ok := ctx.Get(ContextIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*utils.Identity)
	return id, ok && id != nil
}

var denials = map[permissions.Action]string{
	permissions.Upload:       "You do not have upload permission",
	permissions.Delete:       "You do not have delete permission",
	permissions.CreateFolder: "You do not have folder creation permission",
	permissions.ManageAdmins: "Only super admins can manage users",
	permissions.UgcUpload:    "You do not have upload permission",
	permissions.UgcUpdate:    "You do not have permission to update UGC videos",
	permissions.UgcDelete:    "You do not have delete permission",
}

// Require aborts with 403 unless the current user may perform action.
// It must run after Authenticate.
func Require(action permissions.Action) gin.HandlerFunc {
	msg, ok := denials[action]
	if !ok {
		msg = "Access denied"
	}
	return func(ctx *gin.Context) {
		user, _ := CurrentUser(ctx)
		if !permissions.Allow(user, action) {
			utils.Error(ctx, 403, msg)
			return
		}
		ctx.Next()
	}
}

// RequireRole aborts with 403 unless the current user ranks at least minimum.
func RequireRole(minimum models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok || !permissions.RoleAtLeast(user.Role, minimum) {
			utils.Error(ctx, 403, "Access denied")
			return
		}
		ctx.Next()
	}
}
