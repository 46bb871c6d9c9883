package fsxs3

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx"
)

// API is the subset of *s3.Client used by S3FileSystem
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem implements fsx.FileReader over a bucket, optionally under a key prefix
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

var _ fsx.FileReader = (*S3FileSystem)(nil)

// NewS3FileSystem creates a reader for bucket. prefix may be empty.
func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, s.wrap(err, p)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.wrap(err, p)
	}
	return data, nil
}

func (s *S3FileSystem) Stat(ctx context.Context, p string) (fsx.FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return fsx.FileInfo{}, s.wrap(err, p)
	}

	info := fsx.FileInfo{
		Name:        path.Base(p),
		Path:        p,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	if info.ContentType == "" {
		info.ContentType = fsx.ContentTypeFor(p)
	}
	return info, nil
}

// List returns the objects and common prefixes directly under p
func (s *S3FileSystem) List(ctx context.Context, p string) ([]fsx.FileInfo, error) {
	dir := s.key(p)
	if dir != "" {
		dir += "/"
	}

	var infos []fsx.FileInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrap(err, p)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), dir), "/")
			infos = append(infos, fsx.FileInfo{Name: name, Path: path.Join(p, name), IsDir: true})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if name == "" {
				continue
			}
			info := fsx.FileInfo{
				Name:        name,
				Path:        path.Join(p, name),
				Size:        aws.ToInt64(obj.Size),
				ContentType: fsx.ContentTypeFor(name),
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.Stat(ctx, p)
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return false, nil
	}
	return false, err
}

func (s *S3FileSystem) key(p string) string {
	p = strings.Trim(p, "/")
	if s.prefix == "" {
		return p
	}
	if p == "" {
		return s.prefix
	}
	return s.prefix + "/" + p
}

func (s *S3FileSystem) wrap(err error, p string) error {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrNotFound, err).
			WithDetail("bucket", s.bucket).
			WithDetail("path", p)
	}
	return fsx.ErrRegistry.NewWithCause(fsx.ErrRead, err).
		WithDetail("bucket", s.bucket).
		WithDetail("path", p)
}
