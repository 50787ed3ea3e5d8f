package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"media-gallery/internal/domain/gallery"
)

const imageColumns = `i.id, i.url, i.width, i.height, i.created_at`

// tagFilter keeps images carrying at least one of the named tags
const tagFilter = `
	EXISTS (
		SELECT 1 FROM image_tags it
		INNER JOIN tags t ON it.tag_id = t.id
		WHERE it.image_id = i.id AND t.name = ANY($1::text[])
	)`

// imageRepository implements gallery.ImageRepository on PostgreSQL
type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *sql.DB) gallery.ImageRepository {
	return &imageRepository{db: db}
}

// List returns one page of images ordered newest first.
// Images and their tags are loaded with two queries: the page itself,
// then all tags of the page in one batch keyed by image id.
func (r *imageRepository) List(ctx context.Context, req gallery.ListImagesRequest) ([]*gallery.Image, error) {
	req.Normalize()

	var (
		query string
		args  []interface{}
	)

	if req.HasFilter() {
		query = `SELECT ` + imageColumns + ` FROM images i WHERE ` + tagFilter + `
			ORDER BY i.created_at DESC, i.id DESC
			LIMIT $2 OFFSET $3`
		args = []interface{}{pq.Array(req.Tags), req.Limit, req.Offset()}
	} else {
		query = `SELECT ` + imageColumns + ` FROM images i
			ORDER BY i.created_at DESC, i.id DESC
			LIMIT $1 OFFSET $2`
		args = []interface{}{req.Limit, req.Offset()}
	}

	images, err := r.scanImages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database.imageRepository.List: %w", err)
	}

	if err := r.attachTags(ctx, images); err != nil {
		return nil, fmt.Errorf("database.imageRepository.List: %w", err)
	}

	return images, nil
}

// Count returns the number of images matching the tag filter
func (r *imageRepository) Count(ctx context.Context, tags []string) (int, error) {
	tags = gallery.CleanTagNames(tags)

	var (
		count int
		err   error
	)

	if len(tags) > 0 {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM images i WHERE `+tagFilter,
			pq.Array(tags),
		).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("database.imageRepository.Count: %w", err)
	}

	return count, nil
}

// GetByID returns a single image with its tags
func (r *imageRepository) GetByID(ctx context.Context, id int) (*gallery.Image, error) {
	img := &gallery.Image{Tags: []gallery.Tag{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images i WHERE i.id = $1`, id,
	).Scan(&img.ID, &img.URL, &img.Width, &img.Height, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gallery.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database.imageRepository.GetByID: %w", err)
	}

	if err := r.attachTags(ctx, []*gallery.Image{img}); err != nil {
		return nil, fmt.Errorf("database.imageRepository.GetByID: %w", err)
	}

	return img, nil
}

// attachTags loads the tags of all images in a single query
func (r *imageRepository) attachTags(ctx context.Context, images []*gallery.Image) error {
	if len(images) == 0 {
		return nil
	}

	byID := make(map[int]*gallery.Image, len(images))
	imageIDs := make([]int64, 0, len(images))
	for _, img := range images {
		byID[img.ID] = img
		imageIDs = append(imageIDs, int64(img.ID))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT it.image_id, t.id, t.name
		FROM image_tags it
		INNER JOIN tags t ON it.tag_id = t.id
		WHERE it.image_id = ANY($1)
		ORDER BY it.image_id, t.name COLLATE "C"
	`, pq.Array(imageIDs))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // Resource cleanup

	for rows.Next() {
		var (
			imageID int
			tag     gallery.Tag
		)
		if err := rows.Scan(&imageID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		if img, ok := byID[imageID]; ok {
			img.Tags = append(img.Tags, tag)
		}
	}

	return rows.Err()
}

// scanImages runs query and scans image rows without tags
func (r *imageRepository) scanImages(ctx context.Context, query string, args ...interface{}) ([]*gallery.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // Resource cleanup

	images := make([]*gallery.Image, 0)
	for rows.Next() {
		img := &gallery.Image{Tags: []gallery.Tag{}}
		if err := rows.Scan(&img.ID, &img.URL, &img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}
