// internal/app/store/payments/paymentstore.go
package paymentstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/domain/models"
)

const Collection = "payments"

var errBadPaymentStatus = errors.New(`payment status must be "pending"|"paid"|"refunded"`)

func validStatus(st string) bool {
	switch st {
	case models.PaymentPending, models.PaymentPaid, models.PaymentRefunded:
		return true
	}
	return false
}

type Store struct {
	repo *scoped.Repo
}

func New(repo *scoped.Repo) *Store {
	return &Store{repo: repo}
}

func (s *Store) ForTenant(orgID *primitive.ObjectID) *Scoped {
	return &Scoped{scope: s.repo.ForTenant(orgID)}
}

type Scoped struct {
	scope *scoped.Scope
}

// GetAll lists payments newest first.
func (sc *Scoped) GetAll(ctx context.Context, limit int64, useCache bool) ([]models.Payment, error) {
	return sc.list(ctx, nil, limit, useCache)
}

// GetByStudent lists one student's payments within the scope.
func (sc *Scoped) GetByStudent(ctx context.Context, studentID string, limit int64, useCache bool) ([]models.Payment, error) {
	return sc.list(ctx, []docstore.Filter{{Field: "student_id", Value: studentID}}, limit, useCache)
}

// GetByStatus lists payments with the given status within the scope.
func (sc *Scoped) GetByStatus(ctx context.Context, st string, limit int64, useCache bool) ([]models.Payment, error) {
	if !validStatus(st) {
		return nil, errBadPaymentStatus
	}
	return sc.list(ctx, []docstore.Filter{{Field: "status", Value: st}}, limit, useCache)
}

func (sc *Scoped) list(ctx context.Context, filters []docstore.Filter, limit int64, useCache bool) ([]models.Payment, error) {
	docs, err := sc.scope.List(ctx, Collection, scoped.ListOpts{
		Filters:  filters,
		Order:    &docstore.Order{Field: "created_at", Desc: true},
		Limit:    limit,
		UseCache: useCache,
	})
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[models.Payment](docs)
}

func (sc *Scoped) GetByID(ctx context.Context, id primitive.ObjectID) (models.Payment, error) {
	var p models.Payment
	if err := sc.scope.Get(ctx, Collection, id, &p); err != nil {
		return models.Payment{}, err
	}
	return p, nil
}

func (sc *Scoped) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	if p.StudentID == "" {
		return models.Payment{}, errors.New("payment student_id is required")
	}
	if p.Amount <= 0 {
		return models.Payment{}, errors.New("payment amount must be positive")
	}
	if p.Currency == "" {
		return models.Payment{}, errors.New("payment currency is required")
	}
	if sc.scope.TenantID() == nil && p.OrganizationID.IsZero() {
		return models.Payment{}, errors.New("payment must belong to an organization")
	}
	p.ID = primitive.NewObjectID()
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	if !validStatus(p.Status) {
		return models.Payment{}, errBadPaymentStatus
	}
	if _, err := sc.scope.Create(ctx, Collection, p); err != nil {
		return models.Payment{}, err
	}
	return sc.GetByID(ctx, p.ID)
}

// SetStatus moves a payment through pending -> paid -> refunded. Amount and
// student linkage are immutable once recorded; corrections are new records.
func (sc *Scoped) SetStatus(ctx context.Context, id primitive.ObjectID, st, note string) error {
	if !validStatus(st) {
		return errBadPaymentStatus
	}
	set := bson.M{"status": st}
	if note != "" {
		set["note"] = note
	}
	return sc.scope.Update(ctx, Collection, id, set)
}

func (sc *Scoped) Delete(ctx context.Context, id primitive.ObjectID) error {
	return sc.scope.Delete(ctx, Collection, id)
}

func (sc *Scoped) Count(ctx context.Context) (int64, error) {
	return sc.scope.Count(ctx, Collection, nil)
}

// CountByStatus reports the scoped total for one payment status.
func (sc *Scoped) CountByStatus(ctx context.Context, st string) (int64, error) {
	if !validStatus(st) {
		return 0, errBadPaymentStatus
	}
	return sc.scope.Count(ctx, Collection, []docstore.Filter{{Field: "status", Value: st}})
}
