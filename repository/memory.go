package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cppla/mediadesk/models"
)

// NewMemoryStores returns map-backed repositories seeded with props.
func NewMemoryStores(props ...models.Property) Stores {
	p := &MemoryProperties{items: map[string]models.Property{}}
	for _, it := range props {
		p.items[it.ID] = it
	}
	return Stores{
		Roster:     &MemoryRoster{users: map[string]models.User{}},
		Media:      &MemoryMedia{files: map[string]models.MediaFile{}},
		Ugc:        &MemoryUgc{videos: map[string]models.UgcVideo{}},
		Activity:   &MemoryActivity{},
		Properties: p,
	}
}

type MemoryRoster struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func (s *MemoryRoster) Get(_ context.Context, uid string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryRoster) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *MemoryRoster) Create(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UID]; ok {
		return ErrDuplicate
	}
	s.users[u.UID] = u
	return nil
}

func (s *MemoryRoster) Upsert(_ context.Context, u models.User) error {
	s.mu.Lock()
	s.users[u.UID] = u
	s.mu.Unlock()
	return nil
}

func (s *MemoryRoster) Update(_ context.Context, uid string, patch models.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return ErrNotFound
	}
	s.users[uid] = patch.Apply(u)
	return nil
}

func (s *MemoryRoster) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryRoster) CountByRoles(_ context.Context, roles ...models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		for _, r := range roles {
			if u.Role == r {
				n++
				break
			}
		}
	}
	return n, nil
}

type MemoryMedia struct {
	mu    sync.RWMutex
	files map[string]models.MediaFile
}

func (s *MemoryMedia) Save(_ context.Context, f models.MediaFile) error {
	if f.ID == "" {
		f.ID = DocID(f.PublicID)
	}
	s.mu.Lock()
	s.files[f.ID] = f
	s.mu.Unlock()
	return nil
}

func (s *MemoryMedia) Get(_ context.Context, publicID string) (*models.MediaFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[DocID(publicID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemoryMedia) MarkDeleted(_ context.Context, publicID, by string, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := DocID(publicID)
	f, ok := s.files[id]
	if !ok || f.Status != models.FileActive {
		return ErrNotFound
	}
	f.Status = models.FileDeleted
	f.DeletedAt = &at
	f.DeletedBy = by
	s.files[id] = f
	return nil
}

type MemoryUgc struct {
	mu     sync.RWMutex
	videos map[string]models.UgcVideo
}

func (s *MemoryUgc) Create(_ context.Context, v models.UgcVideo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[v.VideoID]; ok {
		return ErrDuplicate
	}
	s.videos[v.VideoID] = v
	return nil
}

func (s *MemoryUgc) Get(_ context.Context, videoID string) (*models.UgcVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[videoID]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *MemoryUgc) Update(_ context.Context, videoID string, patch models.UgcPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return ErrNotFound
	}
	s.videos[videoID] = patch.Apply(v)
	return nil
}

func (s *MemoryUgc) Delete(_ context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[videoID]; !ok {
		return ErrNotFound
	}
	delete(s.videos, videoID)
	return nil
}

func (s *MemoryUgc) List(_ context.Context) ([]models.UgcVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UgcVideo, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].VideoID < out[j].VideoID
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

type MemoryActivity struct {
	mu      sync.RWMutex
	entries []models.ActivityLog
}

func (s *MemoryActivity) Append(_ context.Context, e models.ActivityLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryActivity) Since(_ context.Context, ts int64) ([]models.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ActivityLog{}
	for _, e := range s.entries {
		if e.Timestamp >= ts {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryActivity) Recent(_ context.Context, limit int) ([]models.ActivityLog, error) {
	s.mu.RLock()
	out := append([]models.ActivityLog(nil), s.entries...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemoryProperties struct {
	mu    sync.RWMutex
	items map[string]models.Property
}

func (s *MemoryProperties) Get(_ context.Context, id string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryProperties) List(_ context.Context) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Property, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
