package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

// FolderController lists and creates virtual folders in the asset store.
type FolderController struct {
	assets   storage.AssetStore
	activity *services.ActivityRecorder
}

func NewFolderController(assets storage.AssetStore, activity *services.ActivityRecorder) *FolderController {
	return &FolderController{assets: assets, activity: activity}
}

// List returns the children of prefix. Reserved namespaces are hidden at the root.
func (f *FolderController) List(ctx *gin.Context) {
	prefix := ctx.Query("prefix")
	all, err := f.assets.ListFolders(ctx.Request.Context(), prefix)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to list folders", err))
		return
	}
	if prefix != "" {
		utils.Success(ctx, gin.H{"folders": all})
		return
	}

	folders := make([]models.Folder, 0, len(all))
	for _, folder := range all {
		if !hiddenAtRoot(folder.Name) {
			folders = append(folders, folder)
		}
	}
	utils.Success(ctx, gin.H{"folders": folders})
}

func hiddenAtRoot(name string) bool {
	for _, h := range storage.HiddenRootFolders {
		if name == h {
			return true
		}
	}
	return false
}

// Create adds a folder after normalising its path.
func (f *FolderController) Create(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	raw, ok := body.str("path")
	if !ok || strings.TrimSpace(raw) == "" {
		utils.Error(ctx, 400, "Invalid folder path")
		return
	}
	folder, err := storage.SanitizeFolderPath(raw)
	if err != nil {
		utils.Fail(ctx, invalidFolder(err))
		return
	}

	if err := f.assets.CreateFolder(ctx.Request.Context(), folder); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to create folder", err))
		return
	}
	if err := f.activity.Record(ctx.Request.Context(), models.ActionCreateFolder, user.UID, folder); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Created(ctx, gin.H{"created": true, "path": folder})
}
