package termination

import (
	"context"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/termination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of termination.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*termination.Termination, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*termination.Termination), args.Error(1)
}

func (m *MockRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter termination.Filter) ([]termination.Termination, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]termination.Termination), args.Error(1)
}

func (m *MockRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter termination.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ExistsOpenForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, t *termination.Termination) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockRepository) SaveWithLock(ctx context.Context, t *termination.Termination) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockRepository) GenerateTerminationNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	args := m.Called(ctx, tenantID, date)
	return args.String(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
	published []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.published = append(m.published, events...)
	return m.Called(ctx, events).Error(0)
}
