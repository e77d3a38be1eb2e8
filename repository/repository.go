// Package repository persists the roster, asset metadata, UGC records,
// activity log and property reference data.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/cppla/mediadesk/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// RosterStore holds console users keyed by identity uid.
type RosterStore interface {
	Get(ctx context.Context, uid string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u models.User) error
	Upsert(ctx context.Context, u models.User) error
	Update(ctx context.Context, uid string, patch models.UserPatch) error
	Count(ctx context.Context) (int64, error)
	CountByRoles(ctx context.Context, roles ...models.Role) (int64, error)
}

// MediaStore mirrors directly uploaded assets.
type MediaStore interface {
	Save(ctx context.Context, f models.MediaFile) error
	Get(ctx context.Context, publicID string) (*models.MediaFile, error)
	// MarkDeleted flips an ACTIVE record to DELETED. A record that is missing
	// or already deleted yields ErrNotFound.
	MarkDeleted(ctx context.Context, publicID, by string, at int64) error
}

// UgcStore holds UGC clips keyed by videoId.
type UgcStore interface {
	Create(ctx context.Context, v models.UgcVideo) error
	Get(ctx context.Context, videoID string) (*models.UgcVideo, error)
	Update(ctx context.Context, videoID string, patch models.UgcPatch) error
	Delete(ctx context.Context, videoID string) error
	// List returns every clip, newest first.
	List(ctx context.Context) ([]models.UgcVideo, error)
}

// ActivityStore is the append-only audit log.
type ActivityStore interface {
	Append(ctx context.Context, e models.ActivityLog) error
	Since(ctx context.Context, ts int64) ([]models.ActivityLog, error)
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// PropertyStore is read-only reference data.
type PropertyStore interface {
	Get(ctx context.Context, id string) (*models.Property, error)
	List(ctx context.Context) ([]models.Property, error)
}

// Stores bundles one backend's repositories.
type Stores struct {
	Roster     RosterStore
	Media      MediaStore
	Ugc        UgcStore
	Activity   ActivityStore
	Properties PropertyStore
}

// DocID turns a storage public id into a document key by replacing every "/" with "__".
func DocID(publicID string) string {
	return strings.ReplaceAll(publicID, "/", "__")
}
