package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// PayoutFileRepo keeps the ledger in payouts.json, newest entry first.
type PayoutFileRepo struct {
	files *FileStore
}

func NewPayoutFileRepo(files *FileStore) *PayoutFileRepo {
	return &PayoutFileRepo{files: files}
}

func (r *PayoutFileRepo) Append(_ context.Context, p *domain.Payout) error {
	d, err := payoutToDoc(*p)
	if err != nil {
		return err
	}
	return r.files.Update(colPayouts, func(docs []domain.Doc) ([]domain.Doc, error) {
		return append([]domain.Doc{d}, docs...), nil
	})
}

func (r *PayoutFileRepo) List(_ context.Context) ([]domain.Payout, error) {
	docs, err := r.files.Read(colPayouts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payout, 0, len(docs))
	for _, d := range docs {
		out = append(out, payoutFromDoc(d))
	}
	return out, nil
}

func (r *PayoutFileRepo) ByRef(ctx context.Context, ref string) ([]domain.Payout, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Payout
	for _, p := range all {
		if p.Ref == ref {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PayoutFileRepo) UpdateStatus(_ context.Context, id string, to domain.PayoutStatus) (*domain.Payout, error) {
	var updated *domain.Payout
	err := r.files.Update(colPayouts, func(docs []domain.Doc) ([]domain.Doc, error) {
		for i, d := range docs {
			if d.String("id") != id {
				continue
			}
			docs[i] = d.Merge(domain.Doc{"status": string(to), "updatedAt": time.Now().UTC().Format(time.RFC3339Nano)})
			p := payoutFromDoc(docs[i])
			updated = &p
			return docs, nil
		}
		return nil, domain.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func payoutToDoc(p domain.Payout) (domain.Doc, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payout: %w", err)
	}
	var d domain.Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("encode payout: %w", err)
	}
	return d, nil
}

// payoutFromDoc tolerates rows written by hand or by older admin tooling.
func payoutFromDoc(d domain.Doc) domain.Payout {
	p := domain.Payout{
		ID:         d.String("id"),
		PayeeEmail: d.String("payeeEmail"),
		PayeeType:  d.String("payeeType"),
		Amount:     int64(d.Number("amount")),
		Currency:   d.String("currency"),
		Status:     domain.PayoutStatus(d.String("status")),
		Ref:        d.String("ref", "reference"),
		Note:       d.String("note"),
		BookingID:  d.String("bookingId"),
		Source:     d.String("_source"),
	}
	if p.Status == "" {
		p.Status = domain.PayoutPending
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	p.Date, _ = d.Time("date", "createdAt")
	p.CreatedAt, _ = d.Time("createdAt", "date")
	p.UpdatedAt, _ = d.Time("updatedAt", "createdAt")
	return p
}
