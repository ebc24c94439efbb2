package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/authgate/apiserver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	objects   map[string][]byte
	ensured   bool
	ensureErr error
	getErr    error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) EnsureBucket(ctx context.Context) error {
	m.ensured = true
	return m.ensureErr
}

func (m *memoryObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestSecretServiceWithoutStorage(t *testing.T) {
	svc := NewSecretService(nil, "")

	require.NoError(t, svc.Seed(context.Background()))
	msg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSecret, msg.Secret)
}

func TestSecretServiceSeedsDefault(t *testing.T) {
	objects := newMemoryObjects()
	svc := NewSecretService(objects, "secrets/message.json")

	require.NoError(t, svc.Seed(context.Background()))
	assert.True(t, objects.ensured)
	assert.JSONEq(t, `{"secret":"This is a super secret message for you!"}`, string(objects.objects["secrets/message.json"]))

	msg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSecret, msg.Secret)
}

func TestSecretServiceKeepsExistingMessage(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["k"] = []byte(`{"secret":"custom"}`)
	svc := NewSecretService(objects, "k")

	require.NoError(t, svc.Seed(context.Background()))
	msg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "custom", msg.Secret)
}

func TestSecretServiceSeedBucketError(t *testing.T) {
	objects := newMemoryObjects()
	objects.ensureErr = errors.New("access denied")

	err := NewSecretService(objects, "k").Seed(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestSecretServiceSeedFailsOnUnreadableObject(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["k"] = []byte(`not json`)

	err := NewSecretService(objects, "k").Seed(context.Background())
	assert.ErrorContains(t, err, "decode secret")
	assert.Equal(t, "not json", string(objects.objects["k"]))
}

func TestSecretServiceUnavailable(t *testing.T) {
	objects := newMemoryObjects()
	objects.getErr = errors.New("timeout")

	_, err := NewSecretService(objects, "k").Get(context.Background())
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestSecretServiceRejectsEmptyDocument(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["k"] = []byte(`{}`)

	_, err := NewSecretService(objects, "k").Get(context.Background())
	assert.Equal(t, KindUnavailable, KindOf(err))
}
