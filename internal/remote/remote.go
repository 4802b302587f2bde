// Package remote is the client side of the SFTP file store: it opens
// sessions, lists directories, and deletes, moves, and streams files.
package remote

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"sftp-gateway/internal/model"
)

var (
	// ErrConnection marks failures to establish a session.
	ErrConnection = errors.New("remote connection failed")
	// ErrList marks failures to read a directory listing.
	ErrList = errors.New("remote list failed")
	// ErrDelete marks failures to delete a single entry.
	ErrDelete = errors.New("remote delete failed")
	// ErrOperation marks any other failed remote call.
	ErrOperation = errors.New("remote operation failed")
)

// Session is one connected SFTP session. Close is idempotent and must be
// called on every exit path by whoever obtained the session.
type Session interface {
	List(ctx context.Context, dir string) ([]model.RemoteEntry, error)
	Stat(ctx context.Context, p string) (model.RemoteEntry, error)
	Open(ctx context.Context, p string) (io.ReadSeekCloser, error)
	Rename(ctx context.Context, oldPath string, newPath string) error
	Touch(ctx context.Context, p string, at time.Time) error
	MkdirAll(ctx context.Context, dir string) error
	Delete(ctx context.Context, p string) error
	Close() error
}

// Dialer opens sessions against the configured remote host.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// IsNotFound reports whether err was caused by a missing remote path.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
