// Package models holds the persistence-layer row types shared by the
// queue, the handlers, and the HTTP surface.
package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDims is the fixed dimensionality of every stored vector —
// both the image tower and the text tower project into this space.
const EmbeddingDims = 512

// Image is a row of the `image` table.
type Image struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	Name           string           `db:"name" json:"name"`
	Path           string           `db:"path" json:"-"`
	Thumb          *string          `db:"thumb" json:"-"`
	Tags           []string         `db:"tags" json:"tags"`
	Embeddings     *pgvector.Vector `db:"embeddings" json:"-"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
	UploadedBy     *uuid.UUID       `db:"uploaded_by" json:"uploaded_by,omitempty"`
}

// HasThumb reports whether the thumbnail stage has completed.
func (i *Image) HasThumb() bool {
	return i.Thumb != nil && *i.Thumb != ""
}

// HasEmbeddings reports whether the vector stage has completed.
func (i *Image) HasEmbeddings() bool {
	return i.Embeddings != nil
}
