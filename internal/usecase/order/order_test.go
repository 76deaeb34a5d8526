package order_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/validation"
)

type mockOrderRepository struct {
	orders  map[uuid.UUID]*entity.Order
	updates int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*entity.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, o *entity.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepository) Update(ctx context.Context, o *entity.Order) error {
	m.updates++
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, apperror.ErrOrderNotFound
}

func seedOrder(t *testing.T, repo *mockOrderRepository, status valueobject.OrderStatus) (*entity.Order, uuid.UUID) {
	t.Helper()
	o, err := entity.NewDraftOrder(uuid.New(), "Анна", "+7 900 123 45 67")
	require.NoError(t, err)
	tailor := uuid.New()
	o.TailorID = &tailor
	o.Status = status
	repo.orders[o.ID] = o
	return o, tailor
}

func TestGetOrder_Visibility(t *testing.T) {
	repo := newMockOrderRepository()
	uc := order.NewGetOrderUseCase(repo)
	draft, tailor := seedOrder(t, repo, valueobject.OrderStatusDraft)

	got, err := uc.Execute(context.Background(), draft.ID, draft.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = uc.Execute(context.Background(), draft.ID, tailor)
	assert.True(t, apperror.IsNotFound(err), "портной не видит черновик")

	_, err = uc.Execute(context.Background(), draft.ID, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = uc.Execute(context.Background(), draft.ID, uuid.Nil)
	assert.True(t, apperror.IsUnauthorized(err))

	draft.Status = valueobject.OrderStatusPending
	_, err = uc.Execute(context.Background(), draft.ID, tailor)
	assert.NoError(t, err)
}

func TestChangeStatus_TailorLifecycle(t *testing.T) {
	repo := newMockOrderRepository()
	uc := order.NewChangeStatusUseCase(repo)
	o, tailor := seedOrder(t, repo, valueobject.OrderStatusPending)

	_, err := uc.Execute(context.Background(), o.ID, o.CustomerID, valueobject.OrderStatusInProgress)
	assert.True(t, apperror.IsForbidden(err), "клиент не начинает работу")

	got, err := uc.Execute(context.Background(), o.ID, tailor, valueobject.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInProgress, got.Status)

	got, err = uc.Execute(context.Background(), o.ID, tailor, valueobject.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCompleted, got.Status)

	_, err = uc.Execute(context.Background(), o.ID, o.CustomerID, valueobject.OrderStatusCancelled)
	require.Error(t, err, "завершённый заказ не отменяется")
	assert.Equal(t, 2, repo.updates)
}

func TestChangeStatus_OwnerCancels(t *testing.T) {
	repo := newMockOrderRepository()
	uc := order.NewChangeStatusUseCase(repo)
	o, _ := seedOrder(t, repo, valueobject.OrderStatusDraft)

	got, err := uc.Execute(context.Background(), o.ID, o.CustomerID, valueobject.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCancelled, got.Status)
}

func TestChangeStatus_RejectsPending(t *testing.T) {
	repo := newMockOrderRepository()
	uc := order.NewChangeStatusUseCase(repo)
	o, _ := seedOrder(t, repo, valueobject.OrderStatusDraft)

	_, err := uc.Execute(context.Background(), o.ID, o.CustomerID, valueobject.OrderStatusPending)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateTailorNotes(t *testing.T) {
	repo := newMockOrderRepository()
	uc := order.NewUpdateTailorNotesUseCase(repo)
	o, tailor := seedOrder(t, repo, valueobject.OrderStatusInProgress)

	got, err := uc.Execute(context.Background(), o.ID, tailor, "подогнать по талии")
	require.NoError(t, err)
	assert.Equal(t, "подогнать по талии", got.TailorNotes)

	_, err = uc.Execute(context.Background(), o.ID, o.CustomerID, "сам подгоню")
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), o.ID, tailor, strings.Repeat("x", validation.MaxTailorNotesLength+1))
	assert.True(t, apperror.IsValidation(err))
}
