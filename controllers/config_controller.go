package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/config"
	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/utils"
)

// ConfigController serves the limits the UI enforces before sending anything.
type ConfigController struct {
	media config.MediaSection
}

func NewConfigController(media config.MediaSection) *ConfigController {
	return &ConfigController{media: media}
}

// GetUploadLimits returns direct upload and UGC constraints.
func (c *ConfigController) GetUploadLimits(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"maxRequestBytes": int64(c.media.MaxBodyMB) << 20,
		"uploads":         services.UploadLimits(),
		"ugc": gin.H{
			"folder":             models.UgcFolder,
			"maxDurationSeconds": models.UgcMaxDurationSeconds,
			"aspectRatio":        models.UgcAspectRatio,
			"titleMax":           models.UgcTitleMax,
			"descriptionMax":     models.UgcDescriptionMax,
		},
	})
}
