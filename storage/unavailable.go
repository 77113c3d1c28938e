package storage

import (
	"context"
	"fmt"

	authclient "github.com/goliatone/go-auth-client"
)

// Unavailable fails every operation, like a browser profile with storage
// disabled. Caches on top of it keep values in memory only.
type Unavailable struct {
	Err error
}

var _ authclient.Storage = Unavailable{}

func (u Unavailable) Get(context.Context, string) (string, bool, error) {
	return "", false, u.err()
}

func (u Unavailable) Set(context.Context, string, string) error {
	return u.err()
}

func (u Unavailable) Delete(context.Context, string) error {
	return u.err()
}

func (u Unavailable) Close() error {
	return nil
}

func (u Unavailable) err() error {
	if u.Err == nil {
		return authclient.ErrStorageUnavailable
	}
	return fmt.Errorf("%w: %w", authclient.ErrStorageUnavailable, u.Err)
}
