package serviceorder

import (
	"context"
	"time"
)

// ListFilter defines filter criteria for persisted service orders.
type ListFilter struct {
	// Status matches with a LIKE pattern ("%status%").
	Status string
	// Search matches numero, tipo, customer and city fields.
	Search string
	// DateFrom/DateTo window on data_cadastro OR data_termino_executado.
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Repository persists flattened service orders.
type Repository interface {
	// UpsertBatch inserts or updates the batch keyed on id_ordem_servico as
	// one atomic unit and returns the number of affected rows. Empty input
	// is a no-op returning zero.
	UpsertBatch(ctx context.Context, orders []*ServiceOrder) (int64, error)

	// FindByID returns the order with the given natural key, or
	// ErrOrderNotFound.
	FindByID(ctx context.Context, id int64) (*ServiceOrder, error)

	// List returns orders matching the filter plus the unpaginated total.
	List(ctx context.Context, filter ListFilter) ([]ServiceOrder, int64, error)

	// CompletedYesterday returns orders finalized during the previous
	// calendar day, newest first.
	CompletedYesterday(ctx context.Context, now time.Time) ([]ServiceOrder, error)
}
