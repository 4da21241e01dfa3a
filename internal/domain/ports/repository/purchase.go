package repository

import (
	"context"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/model"
)

type PurchaseRepository interface {
	// CreatePending inserts a pending purchase guarded by the UNIQUE
	// session id. Returns created=false when a row for the same session
	// already exists, which is how redelivered webhooks are detected.
	CreatePending(ctx context.Context, tx Tx, p *model.Purchase) (created bool, err error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Purchase, error)
	MarkCompleted(ctx context.Context, tx Tx, id string, at time.Time) error
	AddItem(ctx context.Context, tx Tx, item *model.PurchaseItem) error
	ListItems(ctx context.Context, tx Tx, purchaseID string) ([]*model.PurchaseItem, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Purchase, error)
}
