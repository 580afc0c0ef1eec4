package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// PayoutRepo is the postgres-backed ledger.
type PayoutRepo struct{ db *gorm.DB }

func NewPayoutRepo(db *gorm.DB) *PayoutRepo {
	return &PayoutRepo{db: db}
}

func (r *PayoutRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Payout{})
}

func (r *PayoutRepo) Append(ctx context.Context, p *domain.Payout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// List returns the ledger newest first.
func (r *PayoutRepo) List(ctx context.Context) ([]domain.Payout, error) {
	var out []domain.Payout
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PayoutRepo) ByRef(ctx context.Context, ref string) ([]domain.Payout, error) {
	var out []domain.Payout
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PayoutRepo) UpdateStatus(ctx context.Context, id string, to domain.PayoutStatus) (*domain.Payout, error) {
	var p domain.Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		p.Status = to
		p.UpdatedAt = time.Now().UTC()
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
