package models

// TypeBreakdown splits a figure by resource kind.
type TypeBreakdown struct {
	Images    int64 `json:"images"`
	Videos    int64 `json:"videos"`
	Documents int64 `json:"documents"`
}

// DailyActivity is one day bucket of media uploads and deletes.
type DailyActivity struct {
	Date    string `json:"date"`
	Uploads int64  `json:"uploads"`
	Deletes int64  `json:"deletes"`
}

// UgcDailyActivity is one day bucket of UGC mutations.
type UgcDailyActivity struct {
	Date    string `json:"date"`
	Uploads int64  `json:"uploads"`
	Updates int64  `json:"updates"`
	Deletes int64  `json:"deletes"`
}

// UgcMetrics summarises the UGC collection.
type UgcMetrics struct {
	TotalVideos          int64              `json:"totalVideos"`
	PendingCount         int64              `json:"pendingCount"`
	ApprovedCount        int64              `json:"approvedCount"`
	RejectedCount        int64              `json:"rejectedCount"`
	FeaturedCount        int64              `json:"featuredCount"`
	TotalDurationSeconds int64              `json:"totalDurationSeconds"`
	TotalViews           int64              `json:"totalViews"`
	TotalLikes           int64              `json:"totalLikes"`
	RecentActivity       []UgcDailyActivity `json:"recentActivity"`
}

// DashboardMetrics is the fixed-shape summary served to the dashboard.
type DashboardMetrics struct {
	TotalActiveFiles  int64           `json:"totalActiveFiles"`
	TotalFolders      int64           `json:"totalFolders"`
	UploadsLast30Days int64           `json:"uploadsLast30Days"`
	DeletesLast30Days int64           `json:"deletesLast30Days"`
	TotalAdmins       int64           `json:"totalAdmins"`
	TotalUsers        int64           `json:"totalUsers"`
	FilesByType       TypeBreakdown   `json:"filesByType"`
	StorageByType     TypeBreakdown   `json:"storageByType"`
	RecentActivity    []DailyActivity `json:"recentActivity"`
	Ugc               UgcMetrics      `json:"ugc"`
}
