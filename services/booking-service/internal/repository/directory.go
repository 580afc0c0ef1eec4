package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
)

// Directory resolves listings and users owned by the CRUD side of the platform.
type Directory struct {
	docs  DocStore
	files *FileStore
	log   *logrus.Entry
}

func NewDirectory(docs DocStore, files *FileStore, log *logrus.Entry) *Directory {
	return &Directory{docs: docs, files: files, log: log.WithField("component", "directory")}
}

func (d *Directory) Listing(ctx context.Context, id string) (*domain.Listing, error) {
	doc, err := d.lookup(ctx, colListings, id)
	if err != nil {
		return nil, err
	}
	return &domain.Listing{
		ID:            id,
		Title:         doc.String("title", "name"),
		PricePerNight: doc.Number("pricePerNight", "price"),
		OwnerID:       doc.String("ownerId", "hostId", "partnerUid"),
	}, nil
}

func (d *Directory) User(ctx context.Context, id string) (*domain.User, error) {
	doc, err := d.lookup(ctx, colUsers, id)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:                 id,
		Email:              doc.String("email"),
		Phone:              doc.String("phone", "phoneNumber"),
		WhatsApp:           doc.String("whatsapp", "whatsApp"),
		Role:               strings.ToLower(doc.String("role")),
		SubscriptionActive: doc.Bool("subscriptionActive", "isSubscribed"),
		KYCStatus:          strings.ToLower(doc.String("kycStatus")),
	}
	u.SubscriptionExpiresAt, _ = doc.Time("subscriptionExpiresAt", "subscriptionExpiry")
	if sub := doc.Map("subscription"); sub != nil {
		if !u.SubscriptionActive {
			u.SubscriptionActive = sub.Bool("active") || strings.EqualFold(sub.String("status"), "active")
		}
		if u.SubscriptionExpiresAt.IsZero() {
			u.SubscriptionExpiresAt, _ = sub.Time("expiresAt", "endsAt")
		}
	}
	if u.KYCStatus == "" {
		if kyc := doc.Map("kyc"); kyc != nil {
			u.KYCStatus = strings.ToLower(kyc.String("status"))
		}
	}
	return u, nil
}

func (d *Directory) lookup(ctx context.Context, collection, id string) (domain.Doc, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	if d.docs != nil {
		doc, err := d.docs.Get(ctx, collection, id)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			d.log.WithError(err).WithFields(logrus.Fields{"collection": collection, "id": id}).Warn("document store lookup failed")
		}
	}
	docs, err := d.files.Read(collection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		for _, k := range []string{"id", "uid", "_id"} {
			if doc.String(k) == id {
				return doc, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}
