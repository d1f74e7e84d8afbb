package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/pkg/platform/sentinel"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putErr          error
	putKey          string
	putContentType  string

	presignErr error

	removeErr error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}

func (f *fakeMinio) PutObject(_ context.Context, _ string, key string, _ io.Reader, _ int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	f.putKey = key
	f.putContentType = opts.ContentType
	return minioLib.UploadInfo{}, f.putErr
}

func (f *fakeMinio) PresignedGetObject(_ context.Context, bucket, key string, _ time.Duration, _ url.Values) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return url.Parse("https://minio.test/" + bucket + "/" + key)
}

func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}

func TestNewClientWithAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket is reused", func(t *testing.T) {
		api := &fakeMinio{bucketExists: true}
		c, err := NewClientWithAPI(ctx, api, "documents")
		require.NoError(t, err)
		assert.Equal(t, "documents", c.bucket)
		assert.False(t, api.madeBucket)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		api := &fakeMinio{bucketExists: false}
		_, err := NewClientWithAPI(ctx, api, "documents")
		require.NoError(t, err)
		assert.True(t, api.madeBucket)
	})

	t.Run("bucket check failure surfaces", func(t *testing.T) {
		api := &fakeMinio{bucketExistsErr: errors.New("connection refused")}
		_, err := NewClientWithAPI(ctx, api, "documents")
		assert.Error(t, err)
	})
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	c, err := NewClientWithAPI(ctx, api, "documents")
	require.NoError(t, err)

	err = c.Upload(ctx, "subject/1-front-passport.pdf", strings.NewReader("data"), 4, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "subject/1-front-passport.pdf", api.putKey)
	assert.Equal(t, "application/pdf", api.putContentType)
}

func TestSignedURL(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	c, err := NewClientWithAPI(ctx, api, "documents")
	require.NoError(t, err)

	u, err := c.SignedURL(ctx, "subject/1-front-passport.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.test/documents/subject/1-front-passport.pdf", u)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var store Unavailable

	err := store.Upload(ctx, "key", strings.NewReader("data"), 4, "application/pdf")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = store.SignedURL(ctx, "key", time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
