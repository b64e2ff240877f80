package termination

import (
	"context"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows termination listings
type Filter struct {
	shared.Filter
	ContractID *uuid.UUID
	CustomerID *uuid.UUID
	Status     *Status
}

// Repository persists terminations with their deductions. Lookups that find nothing return (nil, nil).
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Termination, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Termination, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)
	// ExistsOpenForContract reports a non-cancelled termination for the contract
	ExistsOpenForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error)
	Save(ctx context.Context, t *Termination) error
	// SaveWithLock updates a termination if its version is unchanged, replacing its deductions
	SaveWithLock(ctx context.Context, t *Termination) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	GenerateTerminationNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error)
}
