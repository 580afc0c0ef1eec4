package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// BookingRepo presents the document store and the flat-file collection as one
// logical booking store. The document store is authoritative when present.
type BookingRepo struct {
	docs  DocStore
	files *FileStore
	log   *logrus.Entry
	now   func() time.Time
}

func NewBookingRepo(docs DocStore, files *FileStore, log *logrus.Entry) *BookingRepo {
	return &BookingRepo{
		docs:  docs,
		files: files,
		log:   log.WithField("component", "booking-repo"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// FindByIDOrReference resolves key as a store id first and as a gateway
// reference second. Flat-file fields survive the merge only where the
// document store has none.
func (r *BookingRepo) FindByIDOrReference(ctx context.Context, key string) (*domain.Booking, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	id, primary := r.findPrimary(ctx, key)

	fileDoc, err := r.findFile(key)
	if err != nil {
		r.log.WithError(err).Warn("flat-file lookup failed")
	}
	if fileDoc == nil && primary != nil {
		alt := domain.BookingFromDoc(id, primary)
		for _, k := range []string{alt.ID, alt.Reference} {
			if k == "" || k == key {
				continue
			}
			if d, _ := r.findFile(k); d != nil {
				fileDoc = d
				break
			}
		}
	}

	switch {
	case primary != nil && fileDoc != nil:
		b := domain.BookingFromDoc(id, fileDoc.Merge(primary))
		return &b, nil
	case primary != nil:
		b := domain.BookingFromDoc(id, primary)
		return &b, nil
	case fileDoc != nil:
		b := domain.BookingFromDoc("", fileDoc)
		return &b, nil
	}
	return nil, domain.ErrNotFound
}

func (r *BookingRepo) findPrimary(ctx context.Context, key string) (string, domain.Doc) {
	if r.docs == nil {
		return "", nil
	}
	d, err := r.docs.Get(ctx, colBookings, key)
	if err == nil {
		return key, d
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.log.WithError(err).WithField("key", key).Warn("document store get failed")
	}
	id, d, err := r.docs.FindOne(ctx, colBookings, "reference", key)
	if err == nil {
		return id, d
	}
	if !errors.Is(err, domain.ErrNotFound) {
		r.log.WithError(err).WithField("key", key).Warn("document store reference query failed")
	}
	return "", nil
}

func (r *BookingRepo) findFile(key string) (domain.Doc, error) {
	docs, err := r.files.Read(colBookings)
	if err != nil {
		return nil, err
	}
	if i := findDoc(docs, key); i >= 0 {
		return docs[i], nil
	}
	return nil, nil
}

// Upsert merge-writes patch to every configured backend. It fails only when no
// backend accepted the write.
func (r *BookingRepo) Upsert(ctx context.Context, id string, patch domain.Doc) (*domain.Booking, error) {
	patch = patch.Clone()
	patch["updatedAt"] = r.now()

	var failures []error
	written := 0
	if r.docs != nil {
		if err := r.docs.Set(ctx, colBookings, id, patch); err != nil {
			r.log.WithError(err).WithField("booking_id", id).Error("document store write failed, continuing with flat file")
			failures = append(failures, err)
		} else {
			written++
		}
	}
	err := r.files.Update(colBookings, func(docs []domain.Doc) ([]domain.Doc, error) {
		if i := findDoc(docs, id); i >= 0 {
			docs[i] = docs[i].Merge(patch)
			return docs, nil
		}
		mirror := patch.Clone()
		mirror["id"] = id
		if r.docs != nil {
			mirror["firestoreId"] = id
		}
		return append(docs, mirror), nil
	})
	if err != nil {
		r.log.WithError(err).WithField("booking_id", id).Error("flat-file write failed")
		failures = append(failures, err)
	} else {
		written++
	}
	if written == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, errors.Join(failures...))
	}
	return r.FindByIDOrReference(ctx, id)
}

// Create stores a new booking and returns it with its allocated id.
func (r *BookingRepo) Create(ctx context.Context, doc domain.Doc) (*domain.Booking, error) {
	now := r.now()
	doc = doc.Clone()
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = now
	}
	doc["updatedAt"] = now

	var id string
	if r.docs != nil {
		newID, err := r.docs.Create(ctx, colBookings, doc)
		if err != nil {
			r.log.WithError(err).Error("document store create failed, booking kept in flat file only")
		} else {
			id = newID
		}
	}
	mirror := doc.Clone()
	if id != "" {
		mirror["firestoreId"] = id
	} else {
		id = uuid.NewString()
	}
	mirror["id"] = id
	err := r.files.Update(colBookings, func(docs []domain.Doc) ([]domain.Doc, error) {
		return append(docs, mirror), nil
	})
	if err != nil {
		if mirror["firestoreId"] == nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		r.log.WithError(err).WithField("booking_id", id).Error("flat-file write failed")
	}
	b := domain.BookingFromDoc(id, mirror)
	return &b, nil
}

// ListAll prefers the document store and reads the flat file only when the
// document store yields nothing. Newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	if r.docs != nil {
		recs, err := r.docs.List(ctx, colBookings)
		if err != nil {
			r.log.WithError(err).Warn("document store list failed, falling back to flat file")
		}
		for _, rec := range recs {
			out = append(out, domain.BookingFromDoc(rec.ID, rec.Doc))
		}
	}
	if len(out) == 0 {
		docs, err := r.files.Read(colBookings)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			out = append(out, domain.BookingFromDoc("", d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
