package controllers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/utils"
)

// AdminController manages the console roster.
type AdminController struct {
	roster   repository.RosterStore
	activity *services.ActivityRecorder
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(roster repository.RosterStore, activity *services.ActivityRecorder) *AdminController {
	return &AdminController{roster: roster, activity: activity}
}

// List returns every roster entry with defaults filled in.
func (a *AdminController) List(ctx *gin.Context) {
	users, err := a.roster.List(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to list admins", err))
		return
	}
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.WithDefaults()
	}
	utils.Success(ctx, gin.H{"users": out})
}

var accessFlags = []struct {
	name string
	ref  func(*models.AccessPatch) **bool
}{
	{"canUpload", func(p *models.AccessPatch) **bool { return &p.CanUpload }},
	{"canDelete", func(p *models.AccessPatch) **bool { return &p.CanDelete }},
	{"canCreateFolder", func(p *models.AccessPatch) **bool { return &p.CanCreateFolder }},
	{"canManageAdmins", func(p *models.AccessPatch) **bool { return &p.CanManageAdmins }},
	{"canUploadUgc", func(p *models.AccessPatch) **bool { return &p.CanUploadUgc }},
	{"canModerateUgc", func(p *models.AccessPatch) **bool { return &p.CanModerateUgc }},
	{"canDeleteUgc", func(p *models.AccessPatch) **bool { return &p.CanDeleteUgc }},
}

// parseAccess reads the known flags of an access object. Unknown keys are ignored.
func parseAccess(obj payload) (*models.AccessPatch, error) {
	patch := &models.AccessPatch{}
	for _, f := range accessFlags {
		if !obj.has(f.name) {
			continue
		}
		v, ok := obj.boolean(f.name)
		if !ok {
			return nil, utils.InvalidInput("access." + f.name + " must be boolean")
		}
		*f.ref(patch) = &v
	}
	return patch, nil
}

func parseUserPatch(body payload) (models.UserPatch, error) {
	var patch models.UserPatch
	if body.has("role") {
		s, _ := body.str("role")
		role := models.Role(s)
		if !role.Valid() {
			return patch, utils.InvalidInput("Invalid role")
		}
		patch.Role = &role
	}
	if body.has("status") {
		s, _ := body.str("status")
		status := models.UserStatus(s)
		if !status.Valid() {
			return patch, utils.InvalidInput("Invalid status")
		}
		patch.Status = &status
	}
	if body.has("access") {
		obj, ok := body.object("access")
		if !ok {
			return patch, utils.InvalidInput("access must be an object")
		}
		access, err := parseAccess(obj)
		if err != nil {
			return patch, err
		}
		patch.Access = access
	}
	return patch, nil
}

// Update changes another user's role, status or individual access flags.
func (a *AdminController) Update(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	target, ok := body.nonEmpty("targetUid")
	if !ok {
		utils.Error(ctx, 400, "Missing targetUid")
		return
	}
	if target == user.UID {
		utils.Error(ctx, 400, "Cannot modify your own account")
		return
	}

	patch, err := parseUserPatch(body)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if patch.Empty() {
		utils.Error(ctx, 400, "No fields to update")
		return
	}

	if err := a.roster.Update(ctx.Request.Context(), target, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, 404, "User not found")
			return
		}
		utils.Fail(ctx, utils.Upstream("Failed to update user", err))
		return
	}
	if err := a.activity.Record(ctx.Request.Context(), models.ActionAccessUpdate, user.UID, target); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Success(ctx, gin.H{"updated": true, "targetUid": target})
}

// Create adds a roster entry for an identity that already exists upstream.
func (a *AdminController) Create(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	uid, ok := body.nonEmpty("uid")
	if !ok {
		utils.Error(ctx, 400, "Missing uid")
		return
	}
	email, ok := body.nonEmpty("email")
	if !ok {
		utils.Error(ctx, 400, "Missing email")
		return
	}

	patch, err := parseUserPatch(body)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	created := models.User{
		UID:       uid,
		Email:     email,
		Role:      models.RoleMediaManager,
		Status:    models.StatusActive,
		CreatedAt: time.Now().UnixMilli(),
	}
	patch.Status = nil
	created = patch.Apply(created)

	if err := a.roster.Create(ctx.Request.Context(), created); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Error(ctx, 400, "User already exists")
			return
		}
		utils.Fail(ctx, utils.Upstream("Failed to create user", err))
		return
	}
	if err := a.activity.Record(ctx.Request.Context(), models.ActionAccessUpdate, user.UID, uid); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Created(ctx, created)
}
