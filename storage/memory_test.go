package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/mediadesk/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("https://assets.local")
	day := time.Date(2024, 7, 4, 8, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return day })

	res, err := m.Upload(ctx, UploadInput{Data: []byte("img"), Folder: "brand", Kind: models.ResourceImage, Filename: "a.png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PublicID, "brand/"))

	folders, err := m.ListFolders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []models.Folder{{Name: "brand", Path: "brand"}}, folders)

	page, err := m.SearchFolder(ctx, "brand", "")
	require.NoError(t, err)
	require.Len(t, page.Resources, 1)
	assert.Equal(t, res.PublicID, page.Resources[0].PublicID)

	newID, err := m.SoftDelete(ctx, res.PublicID, models.ResourceImage, "brand")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(newID, "_trash/2024-07-04/brand/"))
	assert.False(t, m.Has(res.PublicID))
	assert.True(t, m.Has(newID))

	images, err := m.ListResources(ctx, models.ResourceImage)
	require.NoError(t, err)
	assert.Empty(t, images, "trash is excluded")

	_, err = m.SoftDelete(ctx, res.PublicID, models.ResourceImage, "brand")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSignedUploadHandshake(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("https://assets.local")
	signed, err := m.SignUgcUpload(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed.PublicID, "ugc_videos/"))
	assert.NotEmpty(t, signed.Signature)

	ok, err := m.Exists(ctx, signed.PublicID)
	require.NoError(t, err)
	assert.False(t, ok)

	m.Put(signed.PublicID, []byte("video"))
	ok, err = m.Exists(ctx, signed.PublicID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreNestedFolders(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("")
	require.NoError(t, m.CreateFolder(ctx, "a/b/c"))
	root, _ := m.ListFolders(ctx, "")
	assert.Equal(t, []models.Folder{{Name: "a", Path: "a"}}, root)
	sub, _ := m.ListFolders(ctx, "a/b")
	assert.Equal(t, []models.Folder{{Name: "c", Path: "a/b/c"}}, sub)
}
