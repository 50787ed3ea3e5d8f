package database

import (
	"database/sql"

	"media-gallery/internal/domain/gallery"
)

// Repositories groups the PostgreSQL repositories behind their domain interfaces
type Repositories struct {
	Images  gallery.ImageRepository
	Tags    gallery.TagRepository
	Catalog gallery.CatalogWriter
}

// NewRepositories creates every repository on the same pool
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Images:  NewImageRepository(db),
		Tags:    NewTagRepository(db),
		Catalog: NewCatalogRepository(db),
	}
}
