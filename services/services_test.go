package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

func TestValidateFile(t *testing.T) {
	cases := []struct {
		name, file, mime string
		size             int64
		kind             models.ResourceType
		err              string
	}{
		{"png", "logo.PNG", "image/png", 1024, models.ResourceImage, ""},
		{"svg", "icon.svg", "image/svg+xml", 1, models.ResourceImage, ""},
		{"gif rejected", "anim.gif", "image/gif", 1, "", `Image format "gif" not allowed. Use: jpg, jpeg, png, webp, svg`},
		{"image too big", "big.jpg", "image/jpeg", 10<<20 + 1, "", "Image must be under 10MB"},
		{"image at limit", "edge.jpg", "image/jpeg", 10 << 20, models.ResourceImage, ""},
		{"mp4", "clip.mp4", "video/mp4", 50 << 20, models.ResourceVideo, ""},
		{"mov rejected", "clip.mov", "video/quicktime", 1, "", `Video format "mov" not allowed. Use: mp4`},
		{"video too big", "clip.mp4", "video/mp4", 50<<20 + 1, "", "Video must be under 50MB"},
		{"pdf", "brochure.pdf", "application/pdf", 20 << 20, models.ResourceRaw, ""},
		{"pdf too big", "brochure.pdf", "application/pdf", 20<<20 + 1, "", "Document must be under 20MB"},
		{"docx unsupported", "notes.docx", "application/msword", 1, "", "Unsupported file type"},
		{"no extension", "README", "application/pdf", 1, "", `Document format "readme" not allowed. Use: pdf`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := ValidateFile(tc.file, tc.mime, tc.size)
			if tc.err == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.kind, kind)
				return
			}
			var ae *utils.AppError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, utils.KindInvalidInput, ae.Kind)
			assert.Equal(t, tc.err, ae.Message)
		})
	}
}

func TestSanitizeUgcFields(t *testing.T) {
	out, err := SanitizeUgcFields(UgcFields{
		Title:       "  <em>Sunset</em> deck ",
		Description: "<script>x()</script>Great view",
		PropertyID:  " p1 ",
		IsFeatured:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunset deck", out.Title)
	assert.Equal(t, "Great view", out.Description)
	assert.Equal(t, "p1", out.PropertyID)
	assert.True(t, out.IsFeatured)
}

func TestSanitizeUgcFieldsKeepsPunctuation(t *testing.T) {
	out, err := SanitizeUgcFields(UgcFields{
		Title:       "Q&A with Tom's team",
		Description: `Rooftop "golden hour" & drinks`,
		PropertyID:  "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Q&A with Tom's team", out.Title)
	assert.Equal(t, `Rooftop "golden hour" & drinks`, out.Description)

	title, err := CleanTitle(strings.Repeat("&", 30))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("&", 30), title)
}

func TestSanitizeUgcFieldsCollectsEveryProblem(t *testing.T) {
	_, err := SanitizeUgcFields(UgcFields{
		Title:       "<b></b>",
		Description: strings.Repeat("d", models.UgcDescriptionMax+1),
	})
	var ae *utils.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Title is required, Description must be under 500 characters, Property is required", ae.Message)

	_, err = SanitizeUgcFields(UgcFields{Title: strings.Repeat("é", models.UgcTitleMax), PropertyID: "p"})
	assert.NoError(t, err, "limits count characters, not bytes")

	_, err = SanitizeUgcFields(UgcFields{Title: strings.Repeat("t", models.UgcTitleMax+1), PropertyID: "p"})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Title must be under 100 characters", ae.Message)
}

func TestCleanTitleAndDescription(t *testing.T) {
	title, err := CleanTitle("  New title ")
	require.NoError(t, err)
	assert.Equal(t, "New title", title)

	_, err = CleanTitle("   ")
	assert.Error(t, err)

	desc, err := CleanDescription("")
	require.NoError(t, err)
	assert.Empty(t, desc)

	_, err = CleanDescription(strings.Repeat("x", 501))
	assert.Error(t, err)
}

func TestActivityRecorder(t *testing.T) {
	stores := repository.NewMemoryStores()
	rec := NewActivityRecorder(stores.Activity)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }

	require.NoError(t, rec.Record(context.Background(), models.ActionUpload, "u1", "brand/a.png"))
	got, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ActionUpload, got[0].Action)
	assert.Equal(t, "u1", got[0].PerformedBy)
	assert.Equal(t, "brand/a.png", got[0].TargetID)
	assert.Equal(t, at.UnixMilli(), got[0].Timestamp)
	assert.NotEmpty(t, got[0].ID)
}

func TestMetricsAggregator(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assets := storage.NewMemoryStore("https://cdn.test")
	assets.Put("brand/logo.png", make([]byte, 100))
	assets.Put("brand/hero.jpg", make([]byte, 50))
	assets.Put("tours/walk.mp4", make([]byte, 1000))
	assets.Put("docs/price.pdf", make([]byte, 7))
	assets.Put("_trash/2024-06-01/brand/old.png", make([]byte, 999))

	stores := repository.NewMemoryStores()
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "s", Role: models.RoleSuperAdmin, Status: models.StatusActive}))
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "a", Role: models.RoleAdmin, Status: models.StatusActive}))
	require.NoError(t, stores.Roster.Create(ctx, models.User{UID: "m", Role: models.RoleMediaManager, Status: models.StatusActive}))

	log := func(action models.ActivityAction, at time.Time) {
		require.NoError(t, stores.Activity.Append(ctx, models.ActivityLog{Action: action, PerformedBy: "s", Timestamp: at.UnixMilli()}))
	}
	log(models.ActionUpload, now)
	log(models.ActionUpload, now.Add(-day))
	log(models.ActionDelete, now.Add(-6*day))
	log(models.ActionUpload, now.Add(-20*day)) // in the 30 day total, outside the histogram
	log(models.ActionUpload, now.Add(-40*day)) // outside both
	log(models.ActionUgcUpload, now)
	log(models.ActionUgcUpdate, now.Add(-2*day))
	log(models.ActionUgcDelete, now.Add(-2*day))

	require.NoError(t, stores.Ugc.Create(ctx, models.UgcVideo{VideoID: "v1", Status: models.UgcPending, Duration: 30, Views: 5, Likes: 1, CreatedAt: 1}))
	require.NoError(t, stores.Ugc.Create(ctx, models.UgcVideo{VideoID: "v2", Status: models.UgcApproved, Duration: 12, Views: 10, Likes: 4, IsFeatured: true, CreatedAt: 2}))
	require.NoError(t, stores.Ugc.Create(ctx, models.UgcVideo{VideoID: "v3", Status: models.UgcRejected, Duration: 60, CreatedAt: 3}))

	agg := NewMetricsAggregator(assets, stores)
	agg.now = func() time.Time { return now }
	m, err := agg.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), m.TotalActiveFiles)
	assert.Equal(t, models.TypeBreakdown{Images: 2, Videos: 1, Documents: 1}, m.FilesByType)
	assert.Equal(t, models.TypeBreakdown{Images: 150, Videos: 1000, Documents: 7}, m.StorageByType)
	assert.Equal(t, int64(4), m.TotalFolders, "root folders include reserved namespaces")
	assert.Equal(t, int64(3), m.UploadsLast30Days)
	assert.Equal(t, int64(1), m.DeletesLast30Days)
	assert.Equal(t, int64(3), m.TotalUsers)
	assert.Equal(t, int64(2), m.TotalAdmins)

	require.Len(t, m.RecentActivity, 7)
	assert.Equal(t, "2024-06-04", m.RecentActivity[0].Date)
	assert.Equal(t, "2024-06-10", m.RecentActivity[6].Date)
	assert.Equal(t, int64(1), m.RecentActivity[0].Deletes)
	assert.Equal(t, int64(1), m.RecentActivity[5].Uploads)
	assert.Equal(t, int64(1), m.RecentActivity[6].Uploads)

	u := m.Ugc
	assert.Equal(t, int64(3), u.TotalVideos)
	assert.Equal(t, int64(1), u.PendingCount)
	assert.Equal(t, int64(1), u.ApprovedCount)
	assert.Equal(t, int64(1), u.RejectedCount)
	assert.Equal(t, int64(1), u.FeaturedCount)
	assert.Equal(t, int64(102), u.TotalDurationSeconds)
	assert.Equal(t, int64(15), u.TotalViews)
	assert.Equal(t, int64(5), u.TotalLikes)
	require.Len(t, u.RecentActivity, 7)
	assert.Equal(t, int64(1), u.RecentActivity[6].Uploads)
	assert.Equal(t, int64(1), u.RecentActivity[4].Updates)
	assert.Equal(t, int64(1), u.RecentActivity[4].Deletes)
}

func TestMetricsAggregatorEmpty(t *testing.T) {
	agg := NewMetricsAggregator(storage.NewMemoryStore("https://cdn.test"), repository.NewMemoryStores())
	m, err := agg.Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.TotalActiveFiles)
	require.Len(t, m.RecentActivity, 7)
	for _, d := range m.RecentActivity {
		assert.Zero(t, d.Uploads)
		assert.Zero(t, d.Deletes)
	}
}

type brokenFolders struct {
	storage.AssetStore
}

func (brokenFolders) ListFolders(context.Context, string) ([]models.Folder, error) {
	return nil, errors.New("store unavailable")
}

func TestMetricsAggregatorFailsOnAnyRead(t *testing.T) {
	agg := NewMetricsAggregator(brokenFolders{storage.NewMemoryStore("https://cdn.test")}, repository.NewMemoryStores())
	_, err := agg.Collect(context.Background())
	assert.EqualError(t, err, "store unavailable")
}
