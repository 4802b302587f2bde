package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sftp-gateway/internal/model"
)

const (
	kindFavorite = "favorite"
	kindRename   = "rename"
)

// PreferenceRepository keeps favorites and renames in Postgres.
type PreferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

func (r *PreferenceRepository) Load(ctx context.Context) (model.Preferences, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, id, value FROM preferences ORDER BY kind, id`)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()

	prefs := model.NewPreferences()
	for rows.Next() {
		var kind, id string
		var value []byte
		if err := rows.Scan(&kind, &id, &value); err != nil {
			return model.Preferences{}, fmt.Errorf("scan preference: %w", err)
		}

		switch kind {
		case kindFavorite:
			prefs.Favorites[id] = json.RawMessage(value)
		case kindRename:
			var name string
			if err := json.Unmarshal(value, &name); err != nil {
				return model.Preferences{}, fmt.Errorf("decode rename %q: %w", id, err)
			}
			prefs.Renames[id] = name
		}
	}

	if err := rows.Err(); err != nil {
		return model.Preferences{}, fmt.Errorf("iterate preferences: %w", err)
	}

	return prefs, nil
}

func (r *PreferenceRepository) SetFavorite(ctx context.Context, id string, value json.RawMessage) error {
	return r.upsert(ctx, kindFavorite, id, value)
}

func (r *PreferenceRepository) DeleteFavorite(ctx context.Context, id string) error {
	return r.delete(ctx, kindFavorite, id)
}

func (r *PreferenceRepository) SetRename(ctx context.Context, id string, name string) error {
	encoded, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("encode rename: %w", err)
	}
	return r.upsert(ctx, kindRename, id, encoded)
}

func (r *PreferenceRepository) DeleteRename(ctx context.Context, id string) error {
	return r.delete(ctx, kindRename, id)
}

func (r *PreferenceRepository) upsert(ctx context.Context, kind string, id string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO preferences (kind, id, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (kind, id) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		kind, id, value)
	if err != nil {
		return fmt.Errorf("save %s %q: %w", kind, id, err)
	}
	return nil
}

func (r *PreferenceRepository) delete(ctx context.Context, kind string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM preferences WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPreferenceNotFound
	}
	return nil
}
