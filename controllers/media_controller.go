package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

// MediaController handles direct uploads, folder browsing and soft deletes.
type MediaController struct {
	assets   storage.AssetStore
	media    repository.MediaStore
	activity *services.ActivityRecorder
	maxBody  int64
}

// NewMediaController creates a new MediaController. maxBodyMB caps a multipart request.
func NewMediaController(assets storage.AssetStore, media repository.MediaStore, activity *services.ActivityRecorder, maxBodyMB int) *MediaController {
	return &MediaController{assets: assets, media: media, activity: activity, maxBody: int64(maxBodyMB) << 20}
}

// Upload validates one multipart file, stores it and mirrors its metadata.
func (m *MediaController) Upload(ctx *gin.Context) {
	user := mustUser(ctx)
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, m.maxBody)

	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		utils.Error(ctx, 400, "No file provided")
		return
	}

	kind, err := services.ValidateFile(fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	folder := ""
	if raw := ctx.PostForm("folder"); raw != "" {
		if folder, err = storage.SanitizeFolderPath(raw); err != nil {
			utils.Fail(ctx, invalidFolder(err))
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Upload failed", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Upload failed", err))
		return
	}

	reqCtx := ctx.Request.Context()
	res, err := m.assets.Upload(reqCtx, storage.UploadInput{
		Data:        data,
		Folder:      folder,
		Kind:        kind,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Upload failed", err))
		return
	}

	record := models.MediaFile{
		ID:           repository.DocID(res.PublicID),
		PublicID:     res.PublicID,
		SecureURL:    res.SecureURL,
		Folder:       folder,
		Format:       res.Format,
		Bytes:        res.Bytes,
		ResourceType: res.ResourceType,
		UploadedBy:   user.UID,
		UploadedAt:   time.Now().UnixMilli(),
		Status:       models.FileActive,
	}
	if err := m.media.Save(reqCtx, record); err != nil {
		utils.Logger.Error("asset stored without metadata",
			zap.String("public_id", res.PublicID), zap.String("uid", user.UID), zap.Error(err))
		utils.Fail(ctx, utils.Upstream("Failed to save file metadata", err))
		return
	}
	if err := m.activity.Record(reqCtx, models.ActionUpload, user.UID, res.PublicID); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Created(ctx, record)
}

// List returns one page of the resources stored directly in a folder.
func (m *MediaController) List(ctx *gin.Context) {
	folder := ctx.Query("folder")
	page, err := m.assets.SearchFolder(ctx.Request.Context(), folder, ctx.Query("cursor"))
	if err != nil {
		if errors.Is(err, storage.ErrBadCursor) {
			utils.Error(ctx, 400, "Invalid cursor")
			return
		}
		utils.Fail(ctx, utils.Upstream("Failed to list media", err))
		return
	}

	files := make([]models.BrowseFile, len(page.Resources))
	for i, r := range page.Resources {
		format := r.Format
		if format == "" {
			format = storage.Ext(r.PublicID)
		}
		files[i] = models.BrowseFile{
			PublicID:     r.PublicID,
			SecureURL:    r.SecureURL,
			Folder:       folder,
			Format:       format,
			Bytes:        r.Bytes,
			ResourceType: r.ResourceType,
			Status:       models.FileActive,
		}
	}
	utils.Success(ctx, gin.H{"files": files, "total": len(files), "next_cursor": page.NextCursor})
}

// Delete moves an asset into the dated trash and marks its record DELETED.
func (m *MediaController) Delete(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	publicID, okID := body.nonEmpty("publicId")
	rt, okType := body.nonEmpty("resourceType")
	folder, okFolder := body.str("folder")
	if !okID || !okType || !okFolder {
		utils.Error(ctx, 400, "Missing publicId, resourceType, or folder")
		return
	}
	kind := models.ResourceType(rt)
	if !kind.Valid() {
		utils.Error(ctx, 400, "Invalid resourceType")
		return
	}
	if strings.Trim(strings.TrimSpace(folder), "/") != "" {
		clean, err := storage.SanitizeFolderPath(folder)
		if err != nil {
			utils.Fail(ctx, invalidFolder(err))
			return
		}
		folder = clean
	}

	reqCtx := ctx.Request.Context()
	record, err := m.media.Get(reqCtx, publicID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && record.Status != models.FileActive) {
		utils.Error(ctx, 404, "File not found")
		return
	}
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Delete failed", err))
		return
	}

	newID, err := m.assets.SoftDelete(reqCtx, publicID, kind, folder)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Delete failed", err))
		return
	}
	if err := m.media.MarkDeleted(reqCtx, publicID, user.UID, time.Now().UnixMilli()); err != nil {
		utils.Logger.Error("asset trashed but record not updated",
			zap.String("public_id", publicID), zap.String("trash_id", newID), zap.Error(err))
		utils.Fail(ctx, utils.Upstream("Delete failed", err))
		return
	}
	if err := m.activity.Record(reqCtx, models.ActionDelete, user.UID, publicID); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "newPublicId": newID})
}
