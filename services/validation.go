// Package services holds request-independent business rules: upload
// validation, UGC field sanitising, the activity recorder and dashboard metrics.
package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/utils"
)

const (
	maxImageBytes    = 10 << 20
	maxVideoBytes    = 50 << 20
	maxDocumentBytes = 20 << 20
)

type uploadRule struct {
	label   string
	formats []string
	max     int64
	tooBig  string
}

var uploadRules = map[models.ResourceType]uploadRule{
	models.ResourceImage: {"Image", []string{"jpg", "jpeg", "png", "webp", "svg"}, maxImageBytes, "Image must be under 10MB"},
	models.ResourceVideo: {"Video", []string{"mp4"}, maxVideoBytes, "Video must be under 50MB"},
	models.ResourceRaw:   {"Document", []string{"pdf"}, maxDocumentBytes, "Document must be under 20MB"},
}

// ResourceTypeFor maps a declared mime type onto the asset kind, or "" when unsupported.
func ResourceTypeFor(mime string) models.ResourceType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return models.ResourceImage
	case strings.HasPrefix(mime, "video/"):
		return models.ResourceVideo
	case mime == "application/pdf":
		return models.ResourceRaw
	}
	return ""
}

// ValidateFile checks a direct upload's kind, extension and size.
// Failures are InvalidInput errors carrying the client message.
func ValidateFile(name, mime string, size int64) (models.ResourceType, error) {
	kind := ResourceTypeFor(mime)
	if kind == "" {
		return "", utils.InvalidInput("Unsupported file type")
	}
	rule := uploadRules[kind]

	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	if !contains(rule.formats, ext) {
		return "", utils.InvalidInput(fmt.Sprintf("%s format %q not allowed. Use: %s", rule.label, ext, strings.Join(rule.formats, ", ")))
	}
	if size > rule.max {
		return "", utils.InvalidInput(rule.tooBig)
	}
	return kind, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// UgcFields is the metadata attached to a UGC clip at sign and confirm time.
type UgcFields struct {
	Title       string
	Description string
	PropertyID  string
	IsFeatured  bool
}

// SanitizeUgcFields strips markup from the free-text fields, trims all of them and
// reports every violation at once, joined with ", ".
func SanitizeUgcFields(in UgcFields) (UgcFields, error) {
	out := UgcFields{
		Title:       utils.StripTags(in.Title),
		Description: utils.StripTags(in.Description),
		PropertyID:  strings.TrimSpace(in.PropertyID),
		IsFeatured:  in.IsFeatured,
	}

	var problems []string
	if msg := titleProblem(out.Title); msg != "" {
		problems = append(problems, msg)
	}
	if msg := descriptionProblem(out.Description); msg != "" {
		problems = append(problems, msg)
	}
	if out.PropertyID == "" {
		problems = append(problems, "Property is required")
	}
	if len(problems) > 0 {
		return out, utils.InvalidInput(strings.Join(problems, ", "))
	}
	return out, nil
}

func titleProblem(title string) string {
	switch {
	case title == "":
		return "Title is required"
	case utf8.RuneCountInString(title) > models.UgcTitleMax:
		return "Title must be under 100 characters"
	}
	return ""
}

func descriptionProblem(desc string) string {
	if utf8.RuneCountInString(desc) > models.UgcDescriptionMax {
		return "Description must be under 500 characters"
	}
	return ""
}

// CleanTitle sanitises a moderation title edit.
func CleanTitle(raw string) (string, error) {
	title := utils.StripTags(raw)
	if title == "" || utf8.RuneCountInString(title) > models.UgcTitleMax {
		return "", utils.InvalidInput("Title must be 1-100 characters")
	}
	return title, nil
}

// CleanDescription sanitises a moderation description edit.
func CleanDescription(raw string) (string, error) {
	desc := utils.StripTags(raw)
	if msg := descriptionProblem(desc); msg != "" {
		return "", utils.InvalidInput(msg)
	}
	return desc, nil
}

// UploadLimit describes what a direct upload of one kind may look like.
type UploadLimit struct {
	ResourceType models.ResourceType `json:"resourceType"`
	Formats      []string            `json:"formats"`
	MaxBytes     int64               `json:"maxBytes"`
}

// UploadLimits lists the direct upload rules, images first.
func UploadLimits() []UploadLimit {
	out := make([]UploadLimit, 0, len(uploadRules))
	for _, kind := range []models.ResourceType{models.ResourceImage, models.ResourceVideo, models.ResourceRaw} {
		r := uploadRules[kind]
		out = append(out, UploadLimit{ResourceType: kind, Formats: r.formats, MaxBytes: r.max})
	}
	return out
}
