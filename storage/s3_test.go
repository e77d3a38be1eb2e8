package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/mediadesk/models"
)

type fakeObject struct {
	body     []byte
	modified time.Time
}

// fakeS3 is a single-page, in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	calls   []string
	putErr  error
	clock   time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeS3) seed(key string, size int, modified time.Time) {
	f.objects[key] = fakeObject{body: make([]byte, size), modified: modified}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "put "+aws.ToString(in.Key))
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = fakeObject{body: body, modified: f.clock}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := strings.SplitN(aws.ToString(in.CopySource), "/", 2)[1]
	f.calls = append(f.calls, "copy "+src+" -> "+aws.ToString(in.Key))
	obj, ok := f.objects[src]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	f.objects[aws.ToString(in.Key)] = obj
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+aws.ToString(in.Key))
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	seen := map[string]bool{}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				cp := prefix + rest[:i+1]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		obj := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.body))),
			LastModified: aws.Time(obj.modified),
		})
	}
	return out, nil
}

type fakePresigner struct {
	lastInput *s3.PutObjectInput
}

func (p *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.lastInput = in
	return &v4.PresignedHTTPRequest{
		URL:    "https://media.example/" + aws.ToString(in.Key) + "?X-Amz-Signature=deadbeef&X-Amz-Expires=600",
		Method: http.MethodPut,
		SignedHeader: http.Header{
			"Host":             {"media.example"},
			"Content-Type":     {aws.ToString(in.ContentType)},
			"X-Amz-Meta-Eager": {in.Metadata["eager"]},
		},
	}, nil
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeS3, *fakePresigner) {
	t.Helper()
	f := newFakeS3()
	p := &fakePresigner{}
	s := newS3Store(f, p, "media", "https://cdn.example/", "AKIDEXAMPLE", "sp_hd/m3u8", 10*time.Minute)
	s.now = func() time.Time { return f.clock }
	return s, f, p
}

func TestS3UploadKeyLayout(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	res, err := s.Upload(context.Background(), UploadInput{
		Data: []byte("png-bytes"), Folder: "brand/logos", Kind: models.ResourceImage, Filename: "Logo.PNG", ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PublicID, "brand/logos/"))
	assert.True(t, strings.HasSuffix(res.PublicID, ".png"))
	assert.Equal(t, "png", res.Format)
	assert.Equal(t, int64(9), res.Bytes)
	assert.Equal(t, models.ResourceImage, res.ResourceType)
	assert.Equal(t, "https://cdn.example/"+res.PublicID, res.SecureURL)
	assert.Contains(t, f.objects, res.PublicID)

	root, err := s.Upload(context.Background(), UploadInput{Data: []byte("%PDF"), Filename: "a.pdf", Kind: models.ResourceRaw})
	require.NoError(t, err)
	assert.NotContains(t, root.PublicID, "/")
}

func TestS3UploadFailureIsWrapped(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	f.putErr = errors.New("boom")
	_, err := s.Upload(context.Background(), UploadInput{Data: []byte("x"), Filename: "a.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestS3SoftDeleteCopiesThenDeletes(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	f.seed("brand/abc.png", 10, f.clock)

	newID, err := s.SoftDelete(context.Background(), "brand/abc.png", models.ResourceImage, "brand")
	require.NoError(t, err)
	assert.Equal(t, "_trash/2024-05-01/brand/abc.png", newID)
	assert.NotContains(t, f.objects, "brand/abc.png")
	assert.Contains(t, f.objects, newID)
	assert.Equal(t, []string{
		"copy brand/abc.png -> _trash/2024-05-01/brand/abc.png",
		"delete brand/abc.png",
	}, f.calls)
}

func TestS3SoftDeleteRejectsFolderOutsideTrash(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	f.seed("brand/abc.png", 10, f.clock)
	f.seed("public/abc.png", 3, f.clock)

	_, err := s.SoftDelete(context.Background(), "brand/abc.png", models.ResourceImage, "../../public")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Empty(t, f.calls)
	assert.Len(t, f.objects["public/abc.png"].body, 3)
	assert.Contains(t, f.objects, "brand/abc.png")
}

func TestS3SoftDeleteMissingSource(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	_, err := s.SoftDelete(context.Background(), "brand/nope.png", models.ResourceImage, "brand")
	assert.ErrorIs(t, err, ErrNotFound)
	for _, c := range f.calls {
		assert.False(t, strings.HasPrefix(c, "delete"), "no delete may follow a failed copy")
	}
}

func TestS3ListFoldersAndCreate(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	require.NoError(t, s.CreateFolder(context.Background(), "brand"))
	f.seed("brand/logos/a.png", 1, f.clock)
	f.seed("campaigns/x.mp4", 1, f.clock)
	f.seed("root.pdf", 1, f.clock)
	assert.Contains(t, f.objects, "brand/")

	root, err := s.ListFolders(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []models.Folder{{Name: "brand", Path: "brand"}, {Name: "campaigns", Path: "campaigns"}}, root)

	sub, err := s.ListFolders(context.Background(), "brand")
	require.NoError(t, err)
	assert.Equal(t, []models.Folder{{Name: "logos", Path: "brand/logos"}}, sub)
}

func TestS3SearchFolderIsExactAndNewestFirst(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	base := f.clock
	f.seed("brand/", 0, base)
	f.seed("brand/old.png", 1, base.Add(-2*time.Hour))
	f.seed("brand/new.png", 1, base)
	f.seed("brand/logos/deep.png", 1, base.Add(time.Hour))

	page, err := s.SearchFolder(context.Background(), "brand", "")
	require.NoError(t, err)
	require.Len(t, page.Resources, 2)
	assert.Equal(t, "brand/new.png", page.Resources[0].PublicID)
	assert.Equal(t, "brand/old.png", page.Resources[1].PublicID)
	assert.Empty(t, page.NextCursor)
}

func TestS3ListResourcesSkipsTrashAndMarkers(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	f.seed("brand/", 0, f.clock)
	f.seed("brand/a.png", 5, f.clock)
	f.seed("b.jpg", 7, f.clock)
	f.seed("clip.mp4", 100, f.clock)
	f.seed("_trash/2024-01-01/brand/c.png", 9, f.clock)

	images, err := s.ListResources(context.Background(), models.ResourceImage)
	require.NoError(t, err)
	assert.Len(t, images, 2)
	var total int64
	for _, r := range images {
		total += r.Bytes
	}
	assert.Equal(t, int64(12), total)

	videos, err := s.ListResources(context.Background(), models.ResourceVideo)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestS3Exists(t *testing.T) {
	s, f, _ := newTestS3Store(t)
	f.seed("ugc_videos/v.mp4", 1, f.clock)
	ok, err := s.Exists(context.Background(), "ugc_videos/v.mp4")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(context.Background(), "ugc_videos/missing.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3SignUgcUpload(t *testing.T) {
	s, f, p := newTestS3Store(t)
	signed, err := s.SignUgcUpload(context.Background(), "clip.MOV")
	require.NoError(t, err)

	assert.Equal(t, models.UgcFolder, signed.Folder)
	assert.True(t, strings.HasPrefix(signed.PublicID, "ugc_videos/"))
	assert.True(t, strings.HasSuffix(signed.PublicID, ".mov"))
	assert.Equal(t, "deadbeef", signed.Signature)
	assert.Equal(t, http.MethodPut, signed.Method)
	assert.Equal(t, "sp_hd/m3u8", signed.Eager)
	assert.Equal(t, "AKIDEXAMPLE", signed.APIKey)
	assert.Equal(t, "media", signed.CloudName)
	assert.Equal(t, f.clock.Unix(), signed.Timestamp)
	assert.Equal(t, f.clock.Add(10*time.Minute).Unix(), signed.ExpiresAt)
	assert.NotContains(t, signed.Headers, "Host")
	assert.Equal(t, "video/quicktime", signed.Headers["Content-Type"])

	require.NotNil(t, p.lastInput)
	assert.Equal(t, signed.PublicID, aws.ToString(p.lastInput.Key))
	assert.Equal(t, "sp_hd/m3u8", p.lastInput.Metadata["eager"])

	other, err := s.SignUgcUpload(context.Background(), "")
	require.NoError(t, err)
	assert.NotEqual(t, signed.PublicID, other.PublicID)
	assert.True(t, strings.HasSuffix(other.PublicID, ".mp4"))
}
