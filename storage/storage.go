// Package storage provides the durable key/value backends behind the
// credential and preference caches.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authclient "github.com/goliatone/go-auth-client"
)

// Supported drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Backend is a Storage that holds resources.
type Backend interface {
	authclient.Storage
	Close() error
}

// ErrUnknownDriver is returned by Open for unsupported driver names
var ErrUnknownDriver = errors.New("unknown storage driver")

// Open returns the backend for driver. When the backend cannot be opened the
// error is returned together with an Unavailable backend, so callers can keep
// running with memory only persistence.
func Open(ctx context.Context, driver, path string) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverBolt:
		backend, err = OpenBolt(path)
	case DriverSQLite, "sqlite3":
		backend, err = OpenBun(ctx, path)
	case DriverMemory, "":
		backend = NewMemory()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if err != nil {
		return Unavailable{Err: err}, err
	}
	return backend, nil
}
