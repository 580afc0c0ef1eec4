package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

type FirestoreDocs struct {
	client *firestore.Client
}

// NewFirestoreDocs uses application default credentials, or the emulator when
// FIRESTORE_EMULATOR_HOST is set.
func NewFirestoreDocs(ctx context.Context, projectID string) (*FirestoreDocs, error) {
	c, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreDocs{client: c}, nil
}

func (f *FirestoreDocs) Close() error {
	return f.client.Close()
}

func (f *FirestoreDocs) Get(ctx context.Context, collection, id string) (domain.Doc, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	return domain.Doc(snap.Data()), nil
}

func (f *FirestoreDocs) FindOne(ctx context.Context, collection, field, value string) (string, domain.Doc, error) {
	snaps, err := f.client.Collection(collection).Where(field, "==", value).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", nil, fmt.Errorf("firestore query %s.%s: %w", collection, field, err)
	}
	if len(snaps) == 0 {
		return "", nil, domain.ErrNotFound
	}
	return snaps[0].Ref.ID, domain.Doc(snaps[0].Data()), nil
}

func (f *FirestoreDocs) Set(ctx context.Context, collection, id string, patch domain.Doc) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(patch), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *FirestoreDocs) Create(ctx context.Context, collection string, doc domain.Doc) (string, error) {
	ref := f.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, map[string]interface{}(doc)); err != nil {
		return "", fmt.Errorf("firestore create %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *FirestoreDocs) List(ctx context.Context, collection string) ([]Record, error) {
	snaps, err := f.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list %s: %w", collection, err)
	}
	out := make([]Record, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, Record{ID: s.Ref.ID, Doc: domain.Doc(s.Data())})
	}
	return out, nil
}
