package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/authgate/apiserver/internal/storage"
	"github.com/authgate/apiserver/types"
)

// DefaultSecret is served when no object store holds a custom message.
const DefaultSecret = "This is a super secret message for you!"

const maxSecretBytes = 64 << 10

// SecretObjects is the object storage surface used for the protected resource.
type SecretObjects interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// SecretService serves the placeholder resource behind the token gate.
type SecretService struct {
	objects SecretObjects
	key     string
}

// NewSecretService returns a service reading key from objects. A nil objects
// serves DefaultSecret.
func NewSecretService(objects SecretObjects, key string) *SecretService {
	return &SecretService{objects: objects, key: key}
}

// Seed makes sure the bucket exists and holds a message, writing
// DefaultSecret when the object is missing.
func (s *SecretService) Seed(ctx context.Context) error {
	if s.objects == nil {
		return nil
	}
	if err := s.objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := s.load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("load secret: %w", err)
	}

	data, err := json.Marshal(types.SecretMessage{Secret: DefaultSecret})
	if err != nil {
		return err
	}
	if err := s.objects.Put(ctx, s.key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("put secret: %w", err)
	}
	return nil
}

// Get returns the protected message.
func (s *SecretService) Get(ctx context.Context) (types.SecretMessage, error) {
	if s.objects == nil {
		return types.SecretMessage{Secret: DefaultSecret}, nil
	}
	msg, err := s.load(ctx)
	if err != nil {
		return types.SecretMessage{}, newError(KindUnavailable, MsgUnavailable, err)
	}
	return msg, nil
}

func (s *SecretService) load(ctx context.Context) (types.SecretMessage, error) {
	rc, err := s.objects.Get(ctx, s.key)
	if err != nil {
		return types.SecretMessage{}, err
	}
	defer rc.Close()

	var msg types.SecretMessage
	if err := json.NewDecoder(io.LimitReader(rc, maxSecretBytes)).Decode(&msg); err != nil {
		return types.SecretMessage{}, fmt.Errorf("decode secret: %w", err)
	}
	if msg.Secret == "" {
		return types.SecretMessage{}, fmt.Errorf("secret object %q is empty", s.key)
	}
	return msg, nil
}
