package draft_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/draft"
)

type fakeOrderRepository struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]entity.Order
	creates int
	failing bool
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]entity.Order)}
}

func (f *fakeOrderRepository) Create(ctx context.Context, o *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	// имитируем сетевую задержку, чтобы гонки проявились
	time.Sleep(5 * time.Millisecond)
	f.creates++
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepository) Update(ctx context.Context, o *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	if _, ok := f.orders[o.ID]; !ok {
		return apperror.ErrOrderNotFound
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &o, nil
}

func contact(name, phone string) draft.Fields {
	return draft.Fields{CustomerName: draft.String(name), CustomerPhone: draft.String(phone)}
}

func TestSaveCreatesDraftWithContact(t *testing.T) {
	repo := newFakeOrderRepository()
	store := draft.NewStore(repo, nil)
	owner := uuid.New()

	id, err := store.Save(context.Background(), owner, nil, contact("Анна", "+7 900 123-45-67"))
	require.NoError(t, err)

	order, err := store.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusDraft, order.Status)
	assert.Equal(t, "Анна", order.CustomerName)
	assert.Equal(t, owner, order.CustomerID)
}

func TestSaveWithoutContactRequiresOrder(t *testing.T) {
	store := draft.NewStore(newFakeOrderRepository(), nil)

	_, err := store.Save(context.Background(), uuid.New(), nil, draft.Fields{Notes: draft.String("без подкладки")})
	assert.ErrorIs(t, err, draft.ErrInsufficientFields)
	assert.True(t, apperror.IsValidation(err))
}

func TestSaveRequiresIdentity(t *testing.T) {
	store := draft.NewStore(newFakeOrderRepository(), nil)

	_, err := store.Save(context.Background(), uuid.Nil, nil, contact("Анна", "89001234567"))
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestSaveMergesIntoExistingOrder(t *testing.T) {
	repo := newFakeOrderRepository()
	store := draft.NewStore(repo, nil)
	owner := uuid.New()
	ctx := context.Background()

	id, err := store.Save(ctx, owner, nil, contact("Анна", "89001234567"))
	require.NoError(t, err)

	waist := 30.0
	again, err := store.Save(ctx, owner, &id, draft.Fields{
		FabricType:   draft.String("лён"),
		Measurements: &valueobject.MeasurementSet{Waist: &waist},
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	order, err := store.Get(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "лён", order.FabricType)
	assert.Equal(t, "Анна", order.CustomerName)
	require.NotNil(t, order.Measurements.Waist)
	assert.Equal(t, 30.0, *order.Measurements.Waist)
}

func TestSaveRejectsOutOfRangeMeasurement(t *testing.T) {
	store := draft.NewStore(newFakeOrderRepository(), nil)
	waist := 15.0

	f := contact("Анна", "89001234567")
	f.Measurements = &valueobject.MeasurementSet{Waist: &waist}
	_, err := store.Save(context.Background(), uuid.New(), nil, f)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "20–60")
}

func TestSaveForeignOrderIsForbidden(t *testing.T) {
	store := draft.NewStore(newFakeOrderRepository(), nil)
	ctx := context.Background()

	id, err := store.Save(ctx, uuid.New(), nil, contact("Анна", "89001234567"))
	require.NoError(t, err)

	_, err = store.Save(ctx, uuid.New(), &id, draft.Fields{Notes: draft.String("x")})
	assert.True(t, apperror.IsForbidden(err))
}

func TestSaveStorageFailureIsTransient(t *testing.T) {
	repo := newFakeOrderRepository()
	repo.failing = true
	store := draft.NewStore(repo, nil)

	_, err := store.Save(context.Background(), uuid.New(), nil, contact("Анна", "89001234567"))
	assert.True(t, apperror.IsTransient(err))
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := newFakeOrderRepository()
	store := draft.NewStore(repo, nil)
	owner := uuid.New()
	ctx := context.Background()

	id, err := store.Save(ctx, owner, nil, contact("Анна", "89001234567"))
	require.NoError(t, err)

	first, err := store.Finalize(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPending, first.Status)

	second, err := store.Finalize(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPending, second.Status)

	// портной уже начал работу: повторная отправка не откатывает статус
	o := repo.orders[id]
	require.NoError(t, o.StartWork())
	repo.orders[id] = o

	third, err := store.Finalize(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInProgress, third.Status)
}

func TestFinalizeCancelledOrderFails(t *testing.T) {
	repo := newFakeOrderRepository()
	store := draft.NewStore(repo, nil)
	owner := uuid.New()
	ctx := context.Background()

	id, err := store.Save(ctx, owner, nil, contact("Анна", "89001234567"))
	require.NoError(t, err)
	o := repo.orders[id]
	require.NoError(t, o.Cancel())
	repo.orders[id] = o

	_, err = store.Finalize(ctx, owner, id)
	assert.Error(t, err)
}

func TestSessionConcurrentSavesCreateOneOrder(t *testing.T) {
	repo := newFakeOrderRepository()
	session := draft.NewSession(draft.NewStore(repo, nil), uuid.New(), nil)

	const n = 20
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := session.Save(context.Background(), contact("Анна", "89001234567"))
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, repo.creates)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	pinned, ok := session.OrderID()
	require.True(t, ok)
	assert.Equal(t, ids[0], pinned)
}

func TestSessionFinalizeWithoutOrder(t *testing.T) {
	session := draft.NewSession(draft.NewStore(newFakeOrderRepository(), nil), uuid.New(), nil)

	_, err := session.Finalize(context.Background())
	assert.True(t, apperror.IsPrecondition(err))
}

func TestDebouncerCoalescesTriggers(t *testing.T) {
	var runs int32
	d := draft.NewDebouncer(20*time.Millisecond, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil)

	for i := 0; i < 10; i++ {
		d.Trigger()
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	var runs int32
	d := draft.NewDebouncer(time.Hour, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil)

	require.NoError(t, d.Flush())
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))

	d.Trigger()
	require.NoError(t, d.Flush())
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.False(t, d.Pending())
}

func TestDebouncerKeepsWorkAfterFailure(t *testing.T) {
	fail := true
	d := draft.NewDebouncer(time.Hour, func() error {
		if fail {
			return errors.New("store down")
		}
		return nil
	}, nil)

	d.Trigger()
	assert.Error(t, d.Flush())
	assert.True(t, d.Pending())

	fail = false
	assert.NoError(t, d.Flush())
	assert.False(t, d.Pending())
}

func TestDebouncerOneRunInFlight(t *testing.T) {
	var inFlight, maxInFlight int32
	d := draft.NewDebouncer(time.Millisecond, func() error {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}, nil)

	for i := 0; i < 20; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, d.Flush())
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestDebouncerStopDropsPendingWork(t *testing.T) {
	var runs int32
	d := draft.NewDebouncer(10*time.Millisecond, func() error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, nil)

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}
