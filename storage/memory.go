package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/mediadesk/models"
)

type memObject struct {
	data    []byte
	created time.Time
}

// MemoryStore is an in-process AssetStore for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	folders map[string]bool
	baseURL string
	eager   string
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns an empty store that serves URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: map[string]memObject{},
		folders: map[string]bool{},
		baseURL: strings.TrimRight(baseURL, "/"),
		eager:   "sp_hd/m3u8",
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
}

// SetClock overrides the time source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Put stores data at publicID as a client PUT to a signed URL would.
func (m *MemoryStore) Put(publicID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[publicID] = memObject{data: data, created: m.now()}
	m.markParents(publicID)
}

// Has reports whether publicID is stored.
func (m *MemoryStore) Has(publicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[publicID]
	return ok
}

func (m *MemoryStore) markParents(key string) {
	for dir := folderOf(key); dir != ""; dir = folderOf(dir) {
		m.folders[dir] = true
	}
}

func (m *MemoryStore) resource(key string, obj memObject) models.Resource {
	return models.Resource{
		PublicID:     key,
		SecureURL:    m.baseURL + "/" + key,
		Format:       Ext(key),
		Bytes:        int64(len(obj.data)),
		ResourceType: KindFor(key),
		CreatedAt:    obj.created.UnixMilli(),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, in UploadInput) (models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return models.Resource{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	ext := Ext(in.Filename)
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	key := objectKey(in.Folder, name)

	m.mu.Lock()
	obj := memObject{data: append([]byte(nil), in.Data...), created: m.now()}
	m.objects[key] = obj
	m.markParents(key)
	m.mu.Unlock()

	r := m.resource(key, obj)
	if in.Kind.Valid() {
		r.ResourceType = in.Kind
	}
	return r, nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, publicID string, _ models.ResourceType, folder string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, err := TrashID(publicID, folder, m.now())
	if err != nil {
		return "", err
	}
	obj, ok := m.objects[publicID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, publicID)
	}
	m.objects[target] = obj
	delete(m.objects, publicID)
	m.markParents(target)
	return target, nil
}

func (m *MemoryStore) ListFolders(_ context.Context, prefix string) ([]models.Folder, error) {
	parent := strings.Trim(prefix, "/")
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Folder{}
	for dir := range m.folders {
		if folderOf(dir) == parent {
			out = append(out, models.Folder{Name: path.Base(dir), Path: dir})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *MemoryStore) CreateFolder(_ context.Context, folderPath string) error {
	p := strings.Trim(folderPath, "/")
	m.mu.Lock()
	m.folders[p] = true
	m.markParents(p)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SearchFolder(_ context.Context, folder, cursor string) (SearchPage, error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return SearchPage{}, err
	}
	want := strings.Trim(folder, "/")
	m.mu.RLock()
	var all []models.Resource
	for key, obj := range m.objects {
		if folderOf(key) == want {
			all = append(all, m.resource(key, obj))
		}
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].PublicID < all[j].PublicID })
	return paginate(all, offset), nil
}

func (m *MemoryStore) ListResources(_ context.Context, kind models.ResourceType) ([]models.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Resource{}
	for key, obj := range m.objects {
		if isTrash(key) || KindFor(key) != kind {
			continue
		}
		out = append(out, m.resource(key, obj))
	}
	return out, nil
}

func (m *MemoryStore) Exists(_ context.Context, publicID string) (bool, error) {
	return m.Has(publicID), nil
}

// SignUgcUpload returns a memory:// handshake; the caller completes it with Put.
func (m *MemoryStore) SignUgcUpload(_ context.Context, filename string) (SignedUpload, error) {
	ext := Ext(filename)
	if ext == "" {
		ext = "mp4"
	}
	key := models.UgcFolder + "/" + uuid.NewString() + "." + ext
	m.mu.RLock()
	now := m.now()
	m.mu.RUnlock()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", key, now.Unix(), m.eager)))
	return SignedUpload{
		Signature: hex.EncodeToString(sum[:]),
		Timestamp: now.Unix(),
		Folder:    models.UgcFolder,
		Eager:     m.eager,
		APIKey:    "memory",
		CloudName: "memory",
		UploadURL: m.baseURL + "/" + key,
		PublicID:  key,
		Method:    "PUT",
		ExpiresAt: now.Add(m.ttl).Unix(),
	}, nil
}
