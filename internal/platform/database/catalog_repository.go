package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"media-gallery/internal/domain/gallery"
)

// catalogRepository implements gallery.CatalogWriter
type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates the writer used by the seed command
func NewCatalogRepository(db *sql.DB) gallery.CatalogWriter {
	return &catalogRepository{db: db}
}

// ReplaceCatalog wipes images, tags and their joins, then inserts tags and
// images in one transaction. Image tags are resolved by name against the
// inserted tags, and ids and timestamps are written back into images.
func (r *catalogRepository) ReplaceCatalog(ctx context.Context, tags []string, images []*gallery.Image) (*gallery.CatalogStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, `TRUNCATE image_tags, images, tags RESTART IDENTITY`); err != nil {
		return nil, fmt.Errorf("failed to clear catalogue: %w", err)
	}

	tagIDs, err := insertTags(ctx, tx, tags)
	if err != nil {
		return nil, err
	}

	stats := &gallery.CatalogStats{Tags: len(tagIDs)}

	imageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (url, width, height, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image insert: %w", err)
	}
	defer func() { _ = imageStmt.Close() }() //nolint:errcheck // Resource cleanup

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_tags (image_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image tag insert: %w", err)
	}
	defer func() { _ = linkStmt.Close() }() //nolint:errcheck // Resource cleanup

	for _, img := range images {
		if err := img.Validate(); err != nil {
			return nil, err
		}

		createdAt := img.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if err := imageStmt.QueryRowContext(ctx, img.URL, img.Width, img.Height, createdAt).
			Scan(&img.ID, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert image %s: %w", img.URL, err)
		}
		stats.Images++

		for i := range img.Tags {
			tagID, ok := tagIDs[img.Tags[i].Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownTag, img.Tags[i].Name)
			}
			img.Tags[i].ID = tagID

			res, err := linkStmt.ExecContext(ctx, img.ID, tagID)
			if err != nil {
				return nil, fmt.Errorf("failed to tag image %d: %w", img.ID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				stats.ImageTags += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catalogue: %w", err)
	}

	return stats, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, names []string) (map[string]int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer func() { _ = stmt.Close() }() //nolint:errcheck // Resource cleanup

	ids := make(map[string]int, len(names))
	for _, name := range names {
		tag, err := gallery.NewTag(name)
		if err != nil {
			return nil, err
		}
		if _, exists := ids[tag.Name]; exists {
			continue
		}

		var id int
		if err := stmt.QueryRowContext(ctx, tag.Name).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert tag %s: %w", tag.Name, err)
		}
		ids[tag.Name] = id
	}

	return ids, nil
}
