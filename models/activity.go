package models

// ActivityAction names a mutating action recorded in the activity log.
type ActivityAction string

const (
	ActionUpload       ActivityAction = "UPLOAD"
	ActionDelete       ActivityAction = "DELETE"
	ActionCreateFolder ActivityAction = "CREATE_FOLDER"
	ActionAccessUpdate ActivityAction = "ACCESS_UPDATE"
	ActionUgcUpload    ActivityAction = "UGC_UPLOAD"
	ActionUgcUpdate    ActivityAction = "UGC_UPDATE"
	ActionUgcDelete    ActivityAction = "UGC_DELETE"
)

// ActivityLog is one append-only audit entry. Timestamp is unix milliseconds.
type ActivityLog struct {
	ID          string         `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Action      ActivityAction `gorm:"size:32;index" bson:"action" json:"action"`
	PerformedBy string         `gorm:"size:128" bson:"performedBy" json:"performedBy"`
	TargetID    string         `gorm:"size:512" bson:"targetId" json:"targetId"`
	Timestamp   int64          `gorm:"index" bson:"timestamp" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
