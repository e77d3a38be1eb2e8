package models

// UgcStatus is the moderation state of a UGC clip.
type UgcStatus string

const (
	UgcPending  UgcStatus = "pending"
	UgcApproved UgcStatus = "approved"
	UgcRejected UgcStatus = "rejected"
)

// Valid reports whether s is a known moderation status.
func (s UgcStatus) Valid() bool {
	return s == UgcPending || s == UgcApproved || s == UgcRejected
}

const (
	// UgcFolder is the only folder signed uploads may target.
	UgcFolder = "ugc_videos"
	// UgcMaxDurationSeconds is the hard ceiling for a clip.
	UgcMaxDurationSeconds = 60
	UgcAspectRatio        = "9:16"
	UgcTitleMax           = 100
	UgcDescriptionMax     = 500
)

// UgcVideo is a short user-generated clip awaiting or past moderation.
type UgcVideo struct {
	VideoID      string    `gorm:"column:video_id;primaryKey;size:512" bson:"_id" json:"videoId"`
	PropertyID   string    `gorm:"size:128;index" bson:"propertyId" json:"propertyId"`
	UploaderID   string    `gorm:"size:128" bson:"uploaderId" json:"uploaderId"`
	Title        string    `gorm:"size:400" bson:"title" json:"title"`
	Description  string    `gorm:"size:2000" bson:"description" json:"description"`
	PublicID     string    `gorm:"column:public_id;size:512" bson:"cloudinaryPublicId" json:"cloudinaryPublicId"`
	ThumbnailURL string    `gorm:"size:1024" bson:"thumbnailUrl" json:"thumbnailUrl"`
	PreviewURL   string    `gorm:"size:1024" bson:"previewUrl" json:"previewUrl"`
	HlsURL       string    `gorm:"size:1024" bson:"hlsUrl" json:"hlsUrl"`
	Duration     int       `bson:"duration" json:"duration"`
	AspectRatio  string    `gorm:"size:8" bson:"aspectRatio" json:"aspectRatio"`
	Likes        int64     `bson:"likes" json:"likes"`
	Views        int64     `bson:"views" json:"views"`
	Status       UgcStatus `gorm:"size:16;index" bson:"status" json:"status"`
	CreatedAt    int64     `gorm:"autoCreateTime:false;index" bson:"createdAt" json:"createdAt"`
	IsFeatured   bool      `bson:"isFeatured" json:"isFeatured"`
}

func (UgcVideo) TableName() string { return "ugc_videos" }

// UgcPatch is a validated moderation update. Nil fields are left untouched.
type UgcPatch struct {
	Status      *UgcStatus
	IsFeatured  *bool
	Title       *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p UgcPatch) Empty() bool {
	return p.Status == nil && p.IsFeatured == nil && p.Title == nil && p.Description == nil
}

// Apply returns v with the patch applied.
func (p UgcPatch) Apply(v UgcVideo) UgcVideo {
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.IsFeatured != nil {
		v.IsFeatured = *p.IsFeatured
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	return v
}

// Property is the read-only listing a clip is attached to.
type Property struct {
	ID   string `gorm:"primaryKey;size:128" bson:"_id" json:"id"`
	Name string `gorm:"size:255" bson:"name" json:"name"`
}

func (Property) TableName() string { return "properties" }
