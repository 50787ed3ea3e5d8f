package database

import (
	"context"
	"database/sql"
	"fmt"

	"media-gallery/internal/domain/gallery"
)

// tagRepository implements gallery.TagRepository on PostgreSQL
type tagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sql.DB) gallery.TagRepository {
	return &tagRepository{db: db}
}

// List returns every tag ordered by name
func (r *tagRepository) List(ctx context.Context) ([]gallery.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name COLLATE "C" ASC`)
	if err != nil {
		return nil, fmt.Errorf("database.tagRepository.List: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // Resource cleanup

	tags := make([]gallery.Tag, 0)
	for rows.Next() {
		var tag gallery.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("database.tagRepository.List: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database.tagRepository.List: %w", err)
	}

	return tags, nil
}
