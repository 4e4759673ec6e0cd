package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// Service records sale events and serves the per-store history feed.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.SaleEvent, error)
	ListByStore(ctx context.Context, storeID string, params pagination.Params) (*Page, error)
}

// RecordInput captures one sale. OccurredAt defaults to the request timestamp
// when the caller does not backfill an older sale.
type RecordInput struct {
	StoreID    string
	ProductID  string
	Quantity   int
	OccurredAt time.Time
	Actor      string
	Timestamp  time.Time
}

// Page is one slice of the sales feed plus the cursor for the next one.
type Page struct {
	Events     []models.SaleEvent `json:"events"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type service struct {
	repo    Repository
	retrier db.Retrier
}

// NewService wires the sales service with the provided repository.
func NewService(repo Repository, retrier db.Retrier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo, retrier: retrier}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.SaleEvent, error) {
	if strings.TrimSpace(input.StoreID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be positive, got %d", input.Quantity))
	}
	if strings.TrimSpace(input.Actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.Timestamp.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp is required")
	}

	exists, err := s.repo.ProductExists(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("product %q not found", input.ProductID))
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = input.Timestamp
	}

	event := &models.SaleEvent{
		ID:         uuid.New(),
		StoreID:    input.StoreID,
		ProductID:  input.ProductID,
		Quantity:   input.Quantity,
		OccurredAt: occurredAt,
		RecordedBy: input.Actor,
	}

	err = s.retrier.Do(ctx, "record sale", func(ctx context.Context) error {
		return s.repo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) ListByStore(ctx context.Context, storeID string, params pagination.Params) (*Page, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var events []models.SaleEvent
	err = s.retrier.Do(ctx, "list sales", func(ctx context.Context) error {
		var innerErr error
		events, innerErr = s.repo.ListByStore(ctx, storeID, pagination.LimitWithBuffer(params.Limit), cursor)
		return innerErr
	})
	if err != nil {
		return nil, err
	}

	page := &Page{Events: events}
	if len(events) > limit {
		page.Events = events[:limit]
		last := page.Events[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			OccurredAt: last.OccurredAt,
			ID:         last.ID,
		})
	}
	return page, nil
}
