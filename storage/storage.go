// Package storage adapts the external object store that holds media bytes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cppla/mediadesk/models"
)

var (
	ErrNotFound     = errors.New("asset not found")
	ErrUploadFailed = errors.New("upload failed")
	ErrInvalidPath  = errors.New("invalid folder path")
	ErrBadCursor    = errors.New("invalid cursor")
)

const (
	// TrashRoot holds soft-deleted assets under a dated sub-folder.
	TrashRoot = "_trash"
	// PageSize is the number of resources returned per folder search page.
	PageSize = 100
)

// HiddenRootFolders are reserved namespaces not shown in root folder listings.
var HiddenRootFolders = []string{models.UgcFolder, TrashRoot}

// UploadInput is one direct upload.
type UploadInput struct {
	Data        []byte
	Folder      string
	Kind        models.ResourceType
	Filename    string
	ContentType string
}

// SearchPage is one page of an exact-folder search.
type SearchPage struct {
	Resources  []models.Resource
	NextCursor string
}

// SignedUpload is the handshake a client needs to PUT a UGC clip straight to the store.
type SignedUpload struct {
	Signature string            `json:"signature"`
	Timestamp int64             `json:"timestamp"`
	Folder    string            `json:"folder"`
	Eager     string            `json:"eager"`
	APIKey    string            `json:"api_key"`
	CloudName string            `json:"cloud_name"`
	UploadURL string            `json:"upload_url"`
	PublicID  string            `json:"public_id"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt int64             `json:"expires_at"`
}

// AssetStore is everything the console needs from the object store.
type AssetStore interface {
	Upload(ctx context.Context, in UploadInput) (models.Resource, error)
	SoftDelete(ctx context.Context, publicID string, kind models.ResourceType, folder string) (string, error)
	ListFolders(ctx context.Context, prefix string) ([]models.Folder, error)
	CreateFolder(ctx context.Context, folderPath string) error
	SearchFolder(ctx context.Context, folder, cursor string) (SearchPage, error)
	ListResources(ctx context.Context, kind models.ResourceType) ([]models.Resource, error)
	Exists(ctx context.Context, publicID string) (bool, error)
	SignUgcUpload(ctx context.Context, filename string) (SignedUpload, error)
}

var folderChars = regexp.MustCompile(`^[A-Za-z0-9_\-/]+$`)

// SanitizeFolderPath normalises a user supplied folder path.
// The result has no leading or trailing slash and no empty segments.
func SanitizeFolderPath(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return "", fmt.Errorf("%w: folder path is required", ErrInvalidPath)
	}
	if !folderChars.MatchString(p) {
		return "", fmt.Errorf("%w: Folder path may only contain letters, numbers, hyphens, underscores, and slashes", ErrInvalidPath)
	}
	return p, nil
}

// TrashID is where SoftDelete moves publicID on the given day. folder may be
// empty; otherwise it must pass SanitizeFolderPath. The result always sits
// under the dated trash folder.
func TrashID(publicID, folder string, now time.Time) (string, error) {
	if strings.Trim(strings.TrimSpace(folder), "/") == "" {
		folder = ""
	} else {
		clean, err := SanitizeFolderPath(folder)
		if err != nil {
			return "", err
		}
		folder = clean
	}
	day := path.Join(TrashRoot, now.UTC().Format("2006-01-02")) + "/"
	target := path.Join(day, folder, path.Base(publicID))
	if !strings.HasPrefix(target, day) {
		return "", fmt.Errorf("%w: %q escapes the trash folder", ErrInvalidPath, publicID)
	}
	return target, nil
}

var (
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true, "svg": true, "gif": true, "avif": true}
	videoExts = map[string]bool{"mp4": true, "mov": true, "webm": true, "m4v": true}
)

// KindFor classifies an object by its extension.
func KindFor(key string) models.ResourceType {
	ext := Ext(key)
	switch {
	case imageExts[ext]:
		return models.ResourceImage
	case videoExts[ext]:
		return models.ResourceVideo
	default:
		return models.ResourceRaw
	}
}

// Ext returns the lowercased extension of name without the dot.
func Ext(name string) string {
	e := path.Ext(path.Base(name))
	return strings.ToLower(strings.TrimPrefix(e, "."))
}

// folderOf is the folder part of an object key, "" at the root.
func folderOf(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func isTrash(key string) bool {
	return key == TrashRoot || strings.HasPrefix(key, TrashRoot+"/")
}
