package service

import (
	"context"
	"errors"
	"io"
	"time"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
)

type FileService struct {
	dialer remote.Dialer
	paths  *remote.PathValidator
}

func NewFileService(dialer remote.Dialer, paths *remote.PathValidator) *FileService {
	return &FileService{dialer: dialer, paths: paths}
}

// RemoteFile is an open remote file. Closing it also releases the session
// it was read through.
type RemoteFile struct {
	io.ReadSeeker
	Name       string
	Size       int64
	ModifiedAt time.Time

	closeFn func() error
}

func (f *RemoteFile) Close() error {
	return f.closeFn()
}

func (s *FileService) Open(ctx context.Context, clientPath string) (*RemoteFile, error) {
	resolved, err := s.paths.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	session, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := session.Stat(ctx, resolved)
	if err != nil {
		_ = session.Close()
		if remote.IsNotFound(err) {
			return nil, model.ErrFileNotFound
		}
		return nil, err
	}

	if entry.IsDir {
		_ = session.Close()
		return nil, model.ErrNotAFile
	}

	content, err := session.Open(ctx, resolved)
	if err != nil {
		_ = session.Close()
		if remote.IsNotFound(err) {
			return nil, model.ErrFileNotFound
		}
		return nil, err
	}

	return &RemoteFile{
		ReadSeeker: content,
		Name:       entry.Name,
		Size:       entry.Size,
		ModifiedAt: entry.ModifiedAt,
		closeFn: func() error {
			return errors.Join(content.Close(), session.Close())
		},
	}, nil
}
