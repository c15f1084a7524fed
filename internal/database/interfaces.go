package database

import (
	"context"

	"groupchat/internal/storage"
)

// KVRepository is a storage.Store the client can also list, prune and
// release. The history and keys commands work against it.
type KVRepository interface {
	storage.Store
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ KVRepository = (*PostgresStore)(nil)
	_ KVRepository = (*storage.FileStore)(nil)
)
