package domain

import (
	"strings"
	"time"
)

const (
	PayeeHost    = "host"
	PayeePartner = "partner"

	SourceSynthetic   = "synthetic"
	SyntheticIDPrefix = "syn_refund_"
	SyntheticNote     = "Synthetic payout from refunded booking"
)

type Payout struct {
	ID         string       `json:"id" gorm:"primaryKey"`
	Date       time.Time    `json:"date"`
	PayeeEmail string       `json:"payeeEmail" gorm:"index"`
	PayeeType  string       `json:"payeeType"`
	Amount     int64        `json:"amount"`
	Currency   string       `json:"currency"`
	Status     PayoutStatus `json:"status" gorm:"index"`
	Ref        string       `json:"ref" gorm:"index"`
	Note       string       `json:"note"`
	BookingID  string       `json:"bookingId,omitempty" gorm:"index"`
	Source     string       `json:"_source,omitempty" gorm:"-"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (p Payout) Synthetic() bool {
	return p.Source == SourceSynthetic || IsSyntheticID(p.ID)
}

func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// Covers reports whether this persisted row accounts for the given booking.
func (p Payout) Covers(b Booking) bool {
	if b.ID != "" && strings.Contains(p.Ref, b.ID) {
		return true
	}
	return b.Reference != "" && p.Ref == b.Reference
}
