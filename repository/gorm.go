package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/mediadesk/models"
)

// SQLModels lists the tables the SQL backend needs, for migration.
func SQLModels() []interface{} {
	return []interface{}{&models.User{}, &models.MediaFile{}, &models.UgcVideo{}, &models.ActivityLog{}, &models.Property{}}
}

// NewGormStores binds every repository to db.
func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Roster:     &GormRoster{db: db},
		Media:      &GormMedia{db: db},
		Ugc:        &GormUgc{db: db},
		Activity:   &GormActivity{db: db},
		Properties: &GormProperties{db: db},
	}
}

func gormNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type GormRoster struct {
	db *gorm.DB
}

func (r *GormRoster) Get(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		return nil, gormNotFound(err)
	}
	return &u, nil
}

func (r *GormRoster) List(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}

func (r *GormRoster) Create(ctx context.Context, u models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("uid = ?", u.UID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(&u).Error
	})
}

func (r *GormRoster) Upsert(ctx context.Context, u models.User) error {
	return r.db.WithContext(ctx).Save(&u).Error
}

func (r *GormRoster) Update(ctx context.Context, uid string, patch models.UserPatch) error {
	cols := map[string]interface{}{}
	if patch.Role != nil {
		cols["role"] = *patch.Role
	}
	if patch.Status != nil {
		cols["status"] = *patch.Status
	}
	for k, v := range patch.Access.Fields() {
		cols[models.SQLColumn(k)] = v
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("uid").First(&u, "uid = ?", uid).Error; err != nil {
			return gormNotFound(err)
		}
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("uid = ?", uid).Updates(cols).Error
	})
}

func (r *GormRoster) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *GormRoster) CountByRoles(ctx context.Context, roles ...models.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role IN ?", roles).Count(&n).Error
	return n, err
}

type GormMedia struct {
	db *gorm.DB
}

func (r *GormMedia) Save(ctx context.Context, f models.MediaFile) error {
	if f.ID == "" {
		f.ID = DocID(f.PublicID)
	}
	return r.db.WithContext(ctx).Save(&f).Error
}

func (r *GormMedia) Get(ctx context.Context, publicID string) (*models.MediaFile, error) {
	var f models.MediaFile
	if err := r.db.WithContext(ctx).First(&f, "id = ?", DocID(publicID)).Error; err != nil {
		return nil, gormNotFound(err)
	}
	return &f, nil
}

func (r *GormMedia) MarkDeleted(ctx context.Context, publicID, by string, at int64) error {
	res := r.db.WithContext(ctx).Model(&models.MediaFile{}).
		Where("id = ? AND status = ?", DocID(publicID), models.FileActive).
		Updates(map[string]interface{}{"status": models.FileDeleted, "deleted_at": at, "deleted_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type GormUgc struct {
	db *gorm.DB
}

func (r *GormUgc) Create(ctx context.Context, v models.UgcVideo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.UgcVideo{}).Where("video_id = ?", v.VideoID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(&v).Error
	})
}

func (r *GormUgc) Get(ctx context.Context, videoID string) (*models.UgcVideo, error) {
	var v models.UgcVideo
	if err := r.db.WithContext(ctx).First(&v, "video_id = ?", videoID).Error; err != nil {
		return nil, gormNotFound(err)
	}
	return &v, nil
}

func (r *GormUgc) Update(ctx context.Context, videoID string, p models.UgcPatch) error {
	cols := map[string]interface{}{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.IsFeatured != nil {
		cols["is_featured"] = *p.IsFeatured
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.UgcVideo
		if err := tx.Select("video_id").First(&v, "video_id = ?", videoID).Error; err != nil {
			return gormNotFound(err)
		}
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&models.UgcVideo{}).Where("video_id = ?", videoID).Updates(cols).Error
	})
}

func (r *GormUgc) Delete(ctx context.Context, videoID string) error {
	res := r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&models.UgcVideo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUgc) List(ctx context.Context) ([]models.UgcVideo, error) {
	out := []models.UgcVideo{}
	err := r.db.WithContext(ctx).Order("created_at desc").Order("video_id asc").Find(&out).Error
	return out, err
}

type GormActivity struct {
	db *gorm.DB
}

func (r *GormActivity) Append(ctx context.Context, e models.ActivityLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(&e).Error
}

func (r *GormActivity) Since(ctx context.Context, ts int64) ([]models.ActivityLog, error) {
	out := []models.ActivityLog{}
	err := r.db.WithContext(ctx).Where("timestamp >= ?", ts).Find(&out).Error
	return out, err
}

func (r *GormActivity) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	out := []models.ActivityLog{}
	q := r.db.WithContext(ctx).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

type GormProperties struct {
	db *gorm.DB
}

func (r *GormProperties) Get(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, gormNotFound(err)
	}
	return &p, nil
}

func (r *GormProperties) List(ctx context.Context) ([]models.Property, error) {
	out := []models.Property{}
	err := r.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}
