package repository

import (
	"context"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// DocStore is the document-store backend. A nil DocStore means the deployment
// runs on flat files only.
type DocStore interface {
	Get(ctx context.Context, collection, id string) (domain.Doc, error)
	// FindOne returns the first document whose field equals value.
	FindOne(ctx context.Context, collection, field, value string) (string, domain.Doc, error)
	// Set merges patch into the document, creating it when absent.
	Set(ctx context.Context, collection, id string, patch domain.Doc) error
	Create(ctx context.Context, collection string, doc domain.Doc) (string, error)
	List(ctx context.Context, collection string) ([]Record, error)
}

type Record struct {
	ID  string
	Doc domain.Doc
}
