package models

// ResourceType is the asset store's coarse classification of an object.
type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
	ResourceRaw   ResourceType = "raw"
)

// Valid reports whether t is image, video or raw.
func (t ResourceType) Valid() bool {
	return t == ResourceImage || t == ResourceVideo || t == ResourceRaw
}

// FileStatus is the lifecycle state of a mirrored asset.
type FileStatus string

const (
	FileActive  FileStatus = "ACTIVE"
	FileDeleted FileStatus = "DELETED"
)

// MediaFile mirrors one uploaded asset. ID is the document key derived from PublicID.
type MediaFile struct {
	ID           string       `gorm:"primaryKey;size:512" bson:"_id" json:"-"`
	PublicID     string       `gorm:"size:512;not null" bson:"public_id" json:"public_id"`
	SecureURL    string       `gorm:"size:1024" bson:"secure_url" json:"secure_url"`
	Folder       string       `gorm:"size:512;index" bson:"folder" json:"folder"`
	Format       string       `gorm:"size:16" bson:"format" json:"format"`
	Bytes        int64        `bson:"bytes" json:"bytes"`
	ResourceType ResourceType `gorm:"size:16" bson:"resource_type" json:"resource_type"`
	UploadedBy   string       `gorm:"size:128" bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt   int64        `bson:"uploadedAt" json:"uploadedAt"`
	Status       FileStatus   `gorm:"size:16;index" bson:"status" json:"status"`
	DeletedAt    *int64       `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy    string       `gorm:"size:128" bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
}

func (MediaFile) TableName() string { return "media_metadata" }

// Folder is a virtual path reported by the asset store.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Resource is one object as listed by the asset store.
type Resource struct {
	PublicID     string       `json:"public_id"`
	SecureURL    string       `json:"secure_url"`
	Format       string       `json:"format"`
	Bytes        int64        `json:"bytes"`
	ResourceType ResourceType `json:"resource_type"`
	CreatedAt    int64        `json:"created_at"`
}

// BrowseFile is a listing row for the media browser.
type BrowseFile struct {
	PublicID     string       `json:"public_id"`
	SecureURL    string       `json:"secure_url"`
	Folder       string       `json:"folder"`
	Format       string       `json:"format"`
	Bytes        int64        `json:"bytes"`
	ResourceType ResourceType `json:"resource_type"`
	Status       FileStatus   `json:"status"`
}
