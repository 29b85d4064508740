package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Body        []byte
	ContentType string
}

// ObjectStore is the blob storage capability used for avatars. Keys are
// plain strings of the form "{userID}/avatar.{ext}".
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
