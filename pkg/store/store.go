// Package store persists chart documents. The file store keeps one JSON
// document per chart in a directory; the Mongo store backs shared
// deployments where several analysts work the same case file.
package store

import (
	"context"

	"github.com/BitEU/linkchart/pkg/chart"
)

// ChartStore saves and loads named chart documents.
type ChartStore interface {
	// Save writes the document under its name, replacing any previous
	// version.
	Save(ctx context.Context, doc chart.Document) error

	// Load retrieves a document by name.
	Load(ctx context.Context, name string) (chart.Document, error)

	// List returns the names of all stored documents.
	List(ctx context.Context) ([]string, error)

	// Delete removes a document. Deleting a missing document is an
	// error.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
