package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/cppla/mediadesk/config"
	"github.com/cppla/mediadesk/models"
)

// s3API is the subset of *s3.Client the store calls.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type putPresigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps assets in an S3 compatible bucket (AWS, R2, MinIO).
// Public ids are object keys.
type S3Store struct {
	client     s3API
	presigner  putPresigner
	bucket     string
	publicBase string
	accessKey  string
	eager      string
	ttl        time.Duration
	now        func() time.Time
}

// NewS3Store builds a client from the storage section. A custom endpoint is
// set through BaseEndpoint so R2 and MinIO work with the same code.
func NewS3Store(ctx context.Context, c config.StorageSection, eager string) (*S3Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})

	publicBase := c.PublicBaseURL
	if publicBase == "" {
		if c.Endpoint != "" {
			publicBase = strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
		}
	}
	ttl := time.Duration(c.PresignTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return newS3Store(client, s3.NewPresignClient(client), c.Bucket, publicBase, c.AccessKeyID, eager, ttl), nil
}

func newS3Store(client s3API, p putPresigner, bucket, publicBase, accessKey, eager string, ttl time.Duration) *S3Store {
	return &S3Store{
		client:     client,
		presigner:  p,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		accessKey:  accessKey,
		eager:      eager,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *S3Store) secureURL(key string) string {
	return s.publicBase + "/" + escapeKey(key)
}

// Upload stores in.Data under {folder}/{uuid}.{ext}. There is no retry.
func (s *S3Store) Upload(ctx context.Context, in UploadInput) (models.Resource, error) {
	ext := Ext(in.Filename)
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	key := objectKey(in.Folder, name)
	contentType := in.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension("." + ext)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(in.Data),
		ContentLength: aws.Int64(int64(len(in.Data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return models.Resource{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	kind := in.Kind
	if !kind.Valid() {
		kind = KindFor(key)
	}
	return models.Resource{
		PublicID:     key,
		SecureURL:    s.secureURL(key),
		Format:       ext,
		Bytes:        int64(len(in.Data)),
		ResourceType: kind,
		CreatedAt:    s.now().UnixMilli(),
	}, nil
}

// SoftDelete moves publicID into the dated trash namespace by copy then delete.
func (s *S3Store) SoftDelete(ctx context.Context, publicID string, _ models.ResourceType, folder string) (string, error) {
	target, err := TrashID(publicID, folder, s.now())
	if err != nil {
		return "", err
	}
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + escapeKey(publicID)),
		Key:        aws.String(target),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, publicID)
		}
		return "", fmt.Errorf("copy %s: %w", publicID, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	}); err != nil {
		return "", fmt.Errorf("delete %s after copy: %w", publicID, err)
	}
	return target, nil
}

// ListFolders returns the immediate children of prefix ("" is the root).
func (s *S3Store) ListFolders(ctx context.Context, prefix string) ([]models.Folder, error) {
	p := strings.Trim(prefix, "/")
	if p != "" {
		p += "/"
	}
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(p),
		Delimiter: aws.String("/"),
	})
	folders := []models.Folder{}
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list folders %q: %w", prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			full := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			folders = append(folders, models.Folder{Name: path.Base(full), Path: full})
		}
	}
	return folders, nil
}

// CreateFolder writes the "path/" marker object.
func (s *S3Store) CreateFolder(ctx context.Context, folderPath string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(strings.Trim(folderPath, "/") + "/"),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return fmt.Errorf("create folder %s: %w", folderPath, err)
	}
	return nil
}

// SearchFolder lists objects directly inside folder, newest first, one page at a time.
// The cursor is opaque to callers.
func (s *S3Store) SearchFolder(ctx context.Context, folder, cursor string) (SearchPage, error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return SearchPage{}, err
	}
	p := strings.Trim(folder, "/")
	if p != "" {
		p += "/"
	}
	all, err := s.collect(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(p),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return SearchPage{}, fmt.Errorf("search folder %q: %w", folder, err)
	}
	return paginate(all, offset), nil
}

// ListResources walks the whole bucket and keeps objects of kind, trash excluded.
func (s *S3Store) ListResources(ctx context.Context, kind models.ResourceType) ([]models.Resource, error) {
	all, err := s.collect(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	if err != nil {
		return nil, fmt.Errorf("list %s resources: %w", kind, err)
	}
	out := make([]models.Resource, 0, len(all))
	for _, r := range all {
		if r.ResourceType == kind && !isTrash(r.PublicID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *S3Store) collect(ctx context.Context, in *s3.ListObjectsV2Input) ([]models.Resource, error) {
	pager := s3.NewListObjectsV2Paginator(s.client, in)
	var out []models.Resource
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			r := models.Resource{
				PublicID:     key,
				SecureURL:    s.secureURL(key),
				Format:       Ext(key),
				Bytes:        aws.ToInt64(obj.Size),
				ResourceType: KindFor(key),
			}
			if obj.LastModified != nil {
				r.CreatedAt = obj.LastModified.UnixMilli()
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// Exists reports whether publicID is present.
func (s *S3Store) Exists(ctx context.Context, publicID string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", publicID, err)
}

// SignUgcUpload presigns a PUT for a fresh key under the UGC folder. The key,
// content type and eager metadata are covered by the signature.
func (s *S3Store) SignUgcUpload(ctx context.Context, filename string) (SignedUpload, error) {
	ext := Ext(filename)
	if ext == "" {
		ext = "mp4"
	}
	key := models.UgcFolder + "/" + uuid.NewString() + "." + ext
	now := s.now()
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("video/" + videoSubtype(ext)),
		Metadata:    map[string]string{"eager": s.eager},
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return SignedUpload{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return SignedUpload{
		Signature: signatureOf(req.URL),
		Timestamp: now.Unix(),
		Folder:    models.UgcFolder,
		Eager:     s.eager,
		APIKey:    s.accessKey,
		CloudName: s.bucket,
		UploadURL: req.URL,
		PublicID:  key,
		Method:    req.Method,
		Headers:   flattenHeader(req.SignedHeader),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}, nil
}

func videoSubtype(ext string) string {
	switch ext {
	case "mov":
		return "quicktime"
	case "m4v":
		return "x-m4v"
	default:
		return ext
	}
}

func signatureOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("X-Amz-Signature")
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Host") || len(v) == 0 {
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

func isNotFound(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), "o:") {
		return 0, ErrBadCursor
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(raw), "o:"))
	if err != nil || n < 0 {
		return 0, ErrBadCursor
	}
	return n, nil
}

// paginate sorts newest first and cuts one page starting at offset.
func paginate(all []models.Resource, offset int) SearchPage {
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt > all[j].CreatedAt })
	if offset >= len(all) {
		return SearchPage{Resources: []models.Resource{}}
	}
	end := offset + PageSize
	page := SearchPage{}
	if end < len(all) {
		page.NextCursor = encodeCursor(end)
	} else {
		end = len(all)
	}
	page.Resources = append([]models.Resource{}, all[offset:end]...)
	return page
}
