package controllers

import (
	"context"
	"errors"
	"fmt"
	"math"
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

// UgcController runs the signed upload handshake and moderation of UGC clips.
type UgcController struct {
	assets     storage.AssetStore
	videos     repository.UgcStore
	properties repository.PropertyStore
	activity   *services.ActivityRecorder
	urls       storage.URLBuilder
}

func NewUgcController(assets storage.AssetStore, videos repository.UgcStore, properties repository.PropertyStore,
	activity *services.ActivityRecorder, urls storage.URLBuilder) *UgcController {
	return &UgcController{assets: assets, videos: videos, properties: properties, activity: activity, urls: urls}
}

func ugcFieldsFrom(body payload) services.UgcFields {
	title, _ := body.str("title")
	desc, _ := body.str("description")
	prop, _ := body.str("propertyId")
	return services.UgcFields{Title: title, Description: desc, PropertyID: prop, IsFeatured: body.isTrue("isFeatured")}
}

// checkProperty reports a 400 when the clip points at an unknown property.
func (u *UgcController) checkProperty(ctx context.Context, id string) error {
	_, err := u.properties.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.InvalidInput("Invalid property selected")
	}
	if err != nil {
		return utils.Upstream("Failed to load property", err)
	}
	return nil
}

// Sign validates the clip metadata and hands back a one-shot signed upload.
func (u *UgcController) Sign(ctx *gin.Context) {
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	fields, err := services.SanitizeUgcFields(ugcFieldsFrom(body))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := u.checkProperty(ctx.Request.Context(), fields.PropertyID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	filename, _ := body.str("filename")
	signed, err := u.assets.SignUgcUpload(ctx.Request.Context(), filename)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to generate signature", err))
		return
	}
	utils.Success(ctx, signed)
}

// Confirm records a clip the client has already pushed to the store.
func (u *UgcController) Confirm(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}

	publicID, ok := body.nonEmpty("public_id")
	if !ok {
		utils.Error(ctx, 400, "Missing or invalid public_id")
		return
	}
	if !strings.HasPrefix(publicID, models.UgcFolder+"/") {
		utils.Error(ctx, 403, "Invalid upload location")
		return
	}
	secureURL, ok := body.nonEmpty("secure_url")
	if !ok {
		utils.Error(ctx, 400, "Missing or invalid secure_url")
		return
	}
	duration, ok := body.number("duration")
	if !ok || duration < 0 {
		utils.Error(ctx, 400, "Missing or invalid duration")
		return
	}

	fields, err := services.SanitizeUgcFields(ugcFieldsFrom(body))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	reqCtx := ctx.Request.Context()
	if err := u.checkProperty(reqCtx, fields.PropertyID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	exists, err := u.assets.Exists(reqCtx, publicID)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to confirm UGC upload", err))
		return
	}
	if !exists {
		utils.Error(ctx, 400, "Uploaded video not found")
		return
	}

	// The clip stays in the store when it is too long; nothing cleans it up here.
	// Compare as float so huge values cannot wrap when converted.
	rounded := math.Ceil(duration)
	if rounded > models.UgcMaxDurationSeconds {
		utils.Error(ctx, 400, fmt.Sprintf("Video is %.0fs. Maximum allowed is %ds.", rounded, models.UgcMaxDurationSeconds))
		return
	}
	seconds := int(rounded)

	video := models.UgcVideo{
		VideoID:      repository.DocID(publicID),
		PropertyID:   fields.PropertyID,
		UploaderID:   user.UID,
		Title:        fields.Title,
		Description:  fields.Description,
		PublicID:     publicID,
		ThumbnailURL: u.urls.ThumbnailURL(publicID),
		PreviewURL:   secureURL,
		HlsURL:       u.urls.HLSURL(publicID),
		Duration:     seconds,
		AspectRatio:  models.UgcAspectRatio,
		Status:       models.UgcPending,
		CreatedAt:    time.Now().UnixMilli(),
		IsFeatured:   fields.IsFeatured,
	}
	if err := u.videos.Create(reqCtx, video); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Error(ctx, 400, "Video already confirmed")
			return
		}
		utils.Logger.Error("ugc clip stored without record", zap.String("public_id", publicID), zap.Error(err))
		utils.Fail(ctx, utils.Upstream("Failed to confirm UGC upload", err))
		return
	}
	if err := u.activity.Record(reqCtx, models.ActionUgcUpload, user.UID, publicID); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Created(ctx, video)
}

// Upload is the retired single-request path. Clips go through Sign and Confirm.
func (u *UgcController) Upload(ctx *gin.Context) {
	utils.Fail(ctx, utils.Retired("Direct UGC upload is no longer supported. Use /api/ugc/sign and /api/ugc/confirm"))
}

func parseUgcPatch(body payload) (models.UgcPatch, error) {
	var patch models.UgcPatch
	if body.has("status") {
		s, _ := body.str("status")
		status := models.UgcStatus(s)
		if !status.Valid() {
			return patch, utils.InvalidInput("Invalid status. Must be: pending, approved, or rejected")
		}
		patch.Status = &status
	}
	if body.has("isFeatured") {
		featured, ok := body.boolean("isFeatured")
		if !ok {
			return patch, utils.InvalidInput("isFeatured must be boolean")
		}
		patch.IsFeatured = &featured
	}
	if body.has("title") {
		raw, _ := body.str("title")
		title, err := services.CleanTitle(raw)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	if body.has("description") {
		raw, ok := body.str("description")
		if !ok {
			return patch, utils.InvalidInput("Description must be a string")
		}
		desc, err := services.CleanDescription(raw)
		if err != nil {
			return patch, err
		}
		patch.Description = &desc
	}
	return patch, nil
}

// Update applies a moderation patch in a single write.
func (u *UgcController) Update(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	videoID, ok := body.nonEmpty("videoId")
	if !ok {
		utils.Error(ctx, 400, "Missing videoId")
		return
	}
	patch, err := parseUgcPatch(body)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if patch.Empty() {
		utils.Error(ctx, 400, "No fields to update")
		return
	}

	reqCtx := ctx.Request.Context()
	if err := u.videos.Update(reqCtx, videoID, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, 404, "Video not found")
			return
		}
		utils.Fail(ctx, utils.Upstream("Failed to update UGC video", err))
		return
	}
	if err := u.activity.Record(reqCtx, models.ActionUgcUpdate, user.UID, videoID); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Success(ctx, gin.H{"updated": true, "videoId": videoID})
}

// Delete trashes the clip in the store and removes its record.
func (u *UgcController) Delete(ctx *gin.Context) {
	user := mustUser(ctx)
	body, ok := bindPayload(ctx)
	if !ok {
		return
	}
	videoID, okVideo := body.nonEmpty("videoId")
	publicID, okPublic := body.nonEmpty("cloudinaryPublicId")
	if !okVideo || !okPublic {
		utils.Error(ctx, 400, "Missing videoId or cloudinaryPublicId")
		return
	}

	reqCtx := ctx.Request.Context()
	video, err := u.videos.Get(reqCtx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, 404, "Video not found")
			return
		}
		utils.Fail(ctx, utils.Upstream("Failed to delete UGC video", err))
		return
	}
	// Only the clip the record points at may be trashed.
	if video.PublicID != publicID {
		utils.Error(ctx, 400, "cloudinaryPublicId does not match the video")
		return
	}

	trashID, err := u.assets.SoftDelete(reqCtx, video.PublicID, models.ResourceVideo, models.UgcFolder)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to delete UGC video", err))
		return
	}
	if err := u.videos.Delete(reqCtx, videoID); err != nil {
		utils.Logger.Error("ugc clip trashed but record kept",
			zap.String("video_id", videoID), zap.String("trash_id", trashID), zap.Error(err))
		utils.Fail(ctx, utils.Upstream("Failed to delete UGC video", err))
		return
	}
	if err := u.activity.Record(reqCtx, models.ActionUgcDelete, user.UID, videoID); err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to record activity", err))
		return
	}
	utils.Success(ctx, gin.H{"deleted": true, "videoId": videoID})
}

// List returns every clip, newest first.
func (u *UgcController) List(ctx *gin.Context) {
	videos, err := u.videos.List(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to list UGC videos", err))
		return
	}
	utils.Success(ctx, gin.H{"videos": videos, "total": len(videos)})
}

// Properties lists the reference properties clips can be attached to.
func (u *UgcController) Properties(ctx *gin.Context) {
	props, err := u.properties.List(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to list properties", err))
		return
	}
	for i := range props {
		if props[i].Name == "" {
			props[i].Name = props[i].ID
		}
	}
	utils.Success(ctx, gin.H{"properties": props})
}
