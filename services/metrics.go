package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/storage"
)

const (
	metricsWindow  = 30 * 24 * time.Hour
	histogramDays  = 7
	histogramStamp = "2006-01-02"
)

// MetricsAggregator builds the dashboard summary from the asset store and the
// stores on every call. Nothing is cached.
type MetricsAggregator struct {
	assets storage.AssetStore
	stores repository.Stores
	now    func() time.Time
}

func NewMetricsAggregator(assets storage.AssetStore, stores repository.Stores) *MetricsAggregator {
	return &MetricsAggregator{assets: assets, stores: stores, now: time.Now}
}

// metricsInput is everything the fold needs, gathered in parallel.
type metricsInput struct {
	images, videos, raw []models.Resource
	folders             []models.Folder
	logs                []models.ActivityLog
	users, admins       int64
	ugc                 []models.UgcVideo
}

// Collect reads every source concurrently. Any failed read fails the whole call.
func (m *MetricsAggregator) Collect(ctx context.Context) (models.DashboardMetrics, error) {
	now := m.now()
	var in metricsInput

	g, gctx := errgroup.WithContext(ctx)
	listKind := func(kind models.ResourceType, dst *[]models.Resource) {
		g.Go(func() error {
			res, err := m.assets.ListResources(gctx, kind)
			if err != nil {
				return fmt.Errorf("list %s resources: %w", kind, err)
			}
			*dst = res
			return nil
		})
	}
	listKind(models.ResourceImage, &in.images)
	listKind(models.ResourceVideo, &in.videos)
	listKind(models.ResourceRaw, &in.raw)

	g.Go(func() (err error) {
		in.folders, err = m.assets.ListFolders(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		in.logs, err = m.stores.Activity.Since(gctx, now.Add(-metricsWindow).UnixMilli())
		return err
	})
	g.Go(func() (err error) {
		in.users, err = m.stores.Roster.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		in.admins, err = m.stores.Roster.CountByRoles(gctx, models.RoleSuperAdmin, models.RoleAdmin)
		return err
	})
	g.Go(func() (err error) {
		in.ugc, err = m.stores.Ugc.List(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.DashboardMetrics{}, err
	}
	return fold(in, now), nil
}

func fold(in metricsInput, now time.Time) models.DashboardMetrics {
	out := models.DashboardMetrics{
		TotalActiveFiles: int64(len(in.images) + len(in.videos) + len(in.raw)),
		TotalFolders:     int64(len(in.folders)),
		TotalUsers:       in.users,
		TotalAdmins:      in.admins,
		FilesByType: models.TypeBreakdown{
			Images:    int64(len(in.images)),
			Videos:    int64(len(in.videos)),
			Documents: int64(len(in.raw)),
		},
		StorageByType: models.TypeBreakdown{
			Images:    sumBytes(in.images),
			Videos:    sumBytes(in.videos),
			Documents: sumBytes(in.raw),
		},
	}

	media, ugcDays := seedHistograms(now)
	mediaIdx := make(map[string]int, len(media))
	for i, d := range media {
		mediaIdx[d.Date] = i
	}

	for _, e := range in.logs {
		switch e.Action {
		case models.ActionUpload:
			out.UploadsLast30Days++
		case models.ActionDelete:
			out.DeletesLast30Days++
		}
		i, ok := mediaIdx[time.UnixMilli(e.Timestamp).UTC().Format(histogramStamp)]
		if !ok {
			continue
		}
		switch e.Action {
		case models.ActionUpload:
			media[i].Uploads++
		case models.ActionDelete:
			media[i].Deletes++
		case models.ActionUgcUpload:
			ugcDays[i].Uploads++
		case models.ActionUgcUpdate:
			ugcDays[i].Updates++
		case models.ActionUgcDelete:
			ugcDays[i].Deletes++
		}
	}
	out.RecentActivity = media

	u := models.UgcMetrics{TotalVideos: int64(len(in.ugc)), RecentActivity: ugcDays}
	for _, v := range in.ugc {
		switch v.Status {
		case models.UgcPending:
			u.PendingCount++
		case models.UgcApproved:
			u.ApprovedCount++
		case models.UgcRejected:
			u.RejectedCount++
		}
		if v.IsFeatured {
			u.FeaturedCount++
		}
		u.TotalDurationSeconds += int64(v.Duration)
		u.TotalViews += v.Views
		u.TotalLikes += v.Likes
	}
	out.Ugc = u
	return out
}

// seedHistograms returns zeroed buckets for today (UTC) and the six days before, oldest first.
func seedHistograms(now time.Time) ([]models.DailyActivity, []models.UgcDailyActivity) {
	media := make([]models.DailyActivity, histogramDays)
	ugc := make([]models.UgcDailyActivity, histogramDays)
	today := now.UTC()
	for i := 0; i < histogramDays; i++ {
		date := today.AddDate(0, 0, i-(histogramDays-1)).Format(histogramStamp)
		media[i].Date = date
		ugc[i].Date = date
	}
	return media, ugc
}

func sumBytes(rs []models.Resource) int64 {
	var n int64
	for _, r := range rs {
		n += r.Bytes
	}
	return n
}
