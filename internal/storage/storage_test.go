package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/authgate/apiserver/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryBackend) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return m.bucket }

func TestStorageDelegates(t *testing.T) {
	backend := &memoryBackend{bucket: "authgate", objects: map[string][]byte{}, types: map[string]string{}}
	s := NewStorage(backend)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.Put(ctx, "k", strings.NewReader("v"), 1, "text/plain"))
	assert.Equal(t, "text/plain", backend.types["k"])

	rc, err := s.Get(ctx, "k")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, "authgate", s.Bucket())
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendMinio, Minio: config.MinioConfig{Endpoint: "localhost:9000"}})
	assert.ErrorContains(t, err, "access key and secret key are required")

	_, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendGCS})
	assert.ErrorContains(t, err, "gcs bucket is required")
}

func TestMapMinioError(t *testing.T) {
	assert.ErrorIs(t, mapMinioError(minio.ErrorResponse{Code: "NoSuchKey"}), ErrObjectNotFound)

	other := errors.New("network unreachable")
	assert.Equal(t, other, mapMinioError(other))
}
