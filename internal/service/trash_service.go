package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
	"sftp-gateway/internal/retention"
	"sftp-gateway/pkg/apierror"
)

// TrashService moves remote entries into the recycle bin and reports what
// the bin currently holds. Permanent deletion is left to the retention sweeper.
type TrashService struct {
	dialer     remote.Dialer
	paths      *remote.PathValidator
	recycleBin string
	policy     retention.Policy
	now        func() time.Time
}

func NewTrashService(dialer remote.Dialer, paths *remote.PathValidator, recycleBin string, policy retention.Policy) *TrashService {
	return &TrashService{
		dialer:     dialer,
		paths:      paths,
		recycleBin: path.Clean(recycleBin),
		policy:     policy,
		now:        time.Now,
	}
}

func (s *TrashService) SoftDelete(ctx context.Context, clientPath string) (model.RecycleRecord, error) {
	resolved, err := s.paths.Resolve(clientPath)
	if err != nil {
		return model.RecycleRecord{}, err
	}

	if resolved == s.paths.Root() {
		return model.RecycleRecord{}, apierror.Forbidden("the root directory cannot be deleted", clientPath)
	}

	if resolved == s.recycleBin || strings.HasPrefix(resolved, s.recycleBin+"/") {
		return model.RecycleRecord{}, apierror.Forbidden("entries in the recycle bin are removed by the retention sweep", clientPath)
	}

	// A directory holding the bin cannot be moved into it.
	if strings.HasPrefix(s.recycleBin, resolved+"/") {
		return model.RecycleRecord{}, apierror.Forbidden("the directory contains the recycle bin", clientPath)
	}

	session, err := s.dialer.Dial(ctx)
	if err != nil {
		return model.RecycleRecord{}, err
	}
	defer session.Close()

	if _, err := session.Stat(ctx, resolved); err != nil {
		if remote.IsNotFound(err) {
			return model.RecycleRecord{}, model.ErrFileNotFound
		}
		return model.RecycleRecord{}, err
	}

	if err := session.MkdirAll(ctx, s.recycleBin); err != nil {
		return model.RecycleRecord{}, fmt.Errorf("prepare recycle bin: %w", err)
	}

	now := s.now().UTC()
	record := model.RecycleRecord{
		OriginalPath: s.paths.ClientPath(resolved),
		RecycleName:  uuid.NewString() + "_" + path.Base(resolved),
		DeletedAt:    now,
	}
	record.RecyclePath = path.Join(s.recycleBin, record.RecycleName)

	if err := session.Rename(ctx, resolved, record.RecyclePath); err != nil {
		return model.RecycleRecord{}, fmt.Errorf("move to recycle bin %q: %w", clientPath, err)
	}

	// The retention clock reads mtime, so it has to start at deletion time.
	if err := session.Touch(ctx, record.RecyclePath, now); err != nil {
		slog.Warn("could not reset recycled entry mtime",
			"path", record.RecyclePath,
			"error", err,
		)
	}

	return record, nil
}

func (s *TrashService) List(ctx context.Context) ([]model.RecycleBinItem, error) {
	session, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	entries, err := session.List(ctx, s.recycleBin)
	if err != nil {
		if remote.IsNotFound(err) {
			return []model.RecycleBinItem{}, nil
		}
		return nil, err
	}
	now := s.now()

	fileItems := make([]model.FileItem, 0, len(entries))
	byName := make(map[string]model.RemoteEntry, len(entries))
	for _, entry := range entries {
		fileItems = append(fileItems, toFileItem(entry, s.clientPath(entry.Path)))
		byName[entry.Name] = entry
	}
	sortItems(fileItems, "modified_at", "asc")

	items := make([]model.RecycleBinItem, 0, len(fileItems))
	for _, item := range fileItems {
		entry := byName[item.Name]
		items = append(items, model.RecycleBinItem{
			FileItem:  item,
			AgeDays:   s.policy.AgeDays(entry.ModifiedAt, now),
			ExpiresAt: s.policy.ExpiresAt(entry.ModifiedAt).UTC(),
			Expired:   s.policy.Expired(entry.ModifiedAt, now),
		})
	}

	return items, nil
}

func (s *TrashService) clientPath(remotePath string) string {
	root := s.paths.Root()
	if root == "/" || strings.HasPrefix(remotePath, root+"/") {
		return s.paths.ClientPath(remotePath)
	}
	return remotePath
}
