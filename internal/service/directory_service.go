package service

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
	"sftp-gateway/pkg/apierror"
)

type DirectoryService struct {
	dialer remote.Dialer
	paths  *remote.PathValidator
}

func NewDirectoryService(dialer remote.Dialer, paths *remote.PathValidator) *DirectoryService {
	return &DirectoryService{dialer: dialer, paths: paths}
}

func (s *DirectoryService) List(ctx context.Context, requestedPath string, page int, limit int, sortBy string, order string) (model.DirectoryListData, model.Meta, error) {
	if page < 1 {
		page = 1
	}

	if limit <= 0 {
		limit = 50
	}

	if limit > 200 {
		limit = 200
	}

	resolved, err := s.paths.Resolve(requestedPath)
	if err != nil {
		return model.DirectoryListData{}, model.Meta{}, err
	}

	session, err := s.dialer.Dial(ctx)
	if err != nil {
		return model.DirectoryListData{}, model.Meta{}, err
	}
	defer session.Close()

	entries, err := session.List(ctx, resolved)
	if err != nil {
		if remote.IsNotFound(err) {
			return model.DirectoryListData{}, model.Meta{}, apierror.NotFound("directory not found", requestedPath)
		}
		return model.DirectoryListData{}, model.Meta{}, err
	}

	items := make([]model.FileItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, s.toFileItem(entry))
	}

	sortItems(items, sortBy, order)

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	currentPath := s.paths.ClientPath(resolved)
	parentPath := "/"
	if currentPath != "/" {
		parentPath = path.Dir(currentPath)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	data := model.DirectoryListData{
		CurrentPath: currentPath,
		ParentPath:  parentPath,
		Items:       items[start:end],
	}
	meta := model.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}

	return data, meta, nil
}

func (s *DirectoryService) toFileItem(entry model.RemoteEntry) model.FileItem {
	return toFileItem(entry, s.paths.ClientPath(entry.Path))
}

func toFileItem(entry model.RemoteEntry, clientPath string) model.FileItem {
	item := model.FileItem{
		Name:        entry.Name,
		Path:        clientPath,
		Permissions: entry.Mode,
		ModifiedAt:  entry.ModifiedAt.UTC(),
	}

	if entry.IsDir {
		item.Type = "directory"
		return item
	}

	item.Type = "file"
	item.Size = entry.Size
	item.SizeHuman = humanizeSize(entry.Size)
	item.Extension = strings.ToLower(path.Ext(entry.Name))
	return item
}

func sortItems(items []model.FileItem, sortBy string, order string) {
	field := strings.ToLower(strings.TrimSpace(sortBy))
	if field == "" {
		field = "name"
	}

	descending := strings.ToLower(strings.TrimSpace(order)) == "desc"

	less := func(a model.FileItem, b model.FileItem) bool {
		switch field {
		case "size":
			return a.Size < b.Size
		case "modified_at":
			return a.ModifiedAt.Before(b.ModifiedAt)
		case "type":
			if a.Type == b.Type {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return a.Type < b.Type
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(items, func(i int, j int) bool {
		if descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func humanizeSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(size)
	for _, unit := range units {
		value = value / 1024
		if value < 1024 {
			return fmt.Sprintf("%.0f %s", value, unit)
		}
	}

	return fmt.Sprintf("%.0f PB", value/1024)
}
