package service

import (
	"context"
	"encoding/json"
	"strings"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/util"
	"sftp-gateway/pkg/apierror"
)

const maxPreferenceIDLength = 1024

// PreferenceStore is implemented by the JSON file store and the Postgres
// repository.
type PreferenceStore interface {
	Load(ctx context.Context) (model.Preferences, error)
	SetFavorite(ctx context.Context, id string, value json.RawMessage) error
	DeleteFavorite(ctx context.Context, id string) error
	SetRename(ctx context.Context, id string, name string) error
	DeleteRename(ctx context.Context, id string) error
}

type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

func (s *PreferenceService) Get(ctx context.Context) (model.Preferences, error) {
	return s.store.Load(ctx)
}

// SetFavorite stores value under id and returns what was stored.
func (s *PreferenceService) SetFavorite(ctx context.Context, id string, value json.RawMessage) (json.RawMessage, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}

	if len(value) == 0 || !json.Valid(value) {
		return nil, apierror.BadRequest("favorite body must be valid JSON", "")
	}

	if err := s.store.SetFavorite(ctx, id, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (s *PreferenceService) DeleteFavorite(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}

	return s.store.DeleteFavorite(ctx, id)
}

func (s *PreferenceService) SetRename(ctx context.Context, id string, name string) (string, error) {
	id, err := validateID(id)
	if err != nil {
		return "", err
	}

	name, err = util.CleanDisplayName(name)
	if err != nil {
		return "", err
	}

	if err := s.store.SetRename(ctx, id, name); err != nil {
		return "", err
	}

	return name, nil
}

func (s *PreferenceService) DeleteRename(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}

	return s.store.DeleteRename(ctx, id)
}

func validateID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", apierror.BadRequest("id is required", "")
	}

	if len(trimmed) > maxPreferenceIDLength {
		return "", apierror.BadRequest("id is too long", "")
	}

	return trimmed, nil
}
