package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"charterdesk/internal/domain"
	"charterdesk/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReservationCache struct {
	mock.Mock
}

func (m *MockReservationCache) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationCache) Version(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationCache) Fill(ctx context.Context, r *domain.Reservation, version int64) (bool, error) {
	args := m.Called(ctx, r, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationCache) Invalidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishReservationEvent(ctx context.Context, e events.ReservationEvent) error {
	return m.Called(ctx, e).Error(0)
}

func withSideEffects(f *fixture) (*MockReservationCache, *MockEventPublisher) {
	c := new(MockReservationCache)
	p := new(MockEventPublisher)
	f.svc.cache = c
	f.svc.events = p
	return c, p
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(e events.ReservationEvent) bool { return e.Type == eventType })
}

func TestService_Create_InvalidatesCachesAndPublishes(t *testing.T) {
	f := newFixture(t)
	c, p := withSideEffects(f)

	c.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Once()
	p.On("PublishReservationEvent", mock.Anything, mock.MatchedBy(func(e events.ReservationEvent) bool {
		return e.Type == events.ReservationCreated &&
			e.ServiceDay == "2025-12-15" &&
			e.PassengerCount == 2 &&
			e.VehicleID != nil && *e.VehicleID == f.van.ID &&
			!e.OccurredAt.IsZero()
	})).Return(nil).Once()

	req := f.request("2025-12-15")
	req.VehicleID = &f.van.ID
	req.Details = passengers(2)
	res := f.create(t, req)

	c.AssertCalled(t, "Invalidate", mock.Anything, res.ID)
	c.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
	c.AssertExpectations(t)
	p.AssertExpectations(t)
}

func TestService_SideEffectFailuresDoNotFailTheOperation(t *testing.T) {
	f := newFixture(t)
	c, p := withSideEffects(f)

	c.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	p.On("PublishReservationEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := f.svc.Create(context.Background(), f.request("2025-12-15"))
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(context.Background(), res.ID, "confirmed")
	require.NoError(t, err)
}

func TestService_FindOne_ServesFromCache(t *testing.T) {
	f := newFixture(t)
	c, _ := withSideEffects(f)
	f.svc.events = nil

	cached := &domain.Reservation{ID: "4b1f7a38-6c5e-4d8b-9f2a-0e1d2c3b4a59", ServiceDay: "2025-12-24"}
	c.On("Get", mock.Anything, cached.ID).Return(cached, nil).Once()

	got, err := f.svc.FindOne(context.Background(), cached.ID)
	require.NoError(t, err)
	assert.Same(t, cached, got)
	c.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_FindOne_MissFillsCache(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, f.request("2025-12-15"))

	c, _ := withSideEffects(f)
	f.svc.events = nil
	c.On("Get", mock.Anything, res.ID).Return(nil, nil).Once()
	c.On("Version", mock.Anything, res.ID).Return(int64(3), nil).Once()
	c.On("Fill", mock.Anything, mock.MatchedBy(func(r *domain.Reservation) bool { return r.ID == res.ID }), int64(3)).
		Return(true, nil).Once()

	got, err := f.svc.FindOne(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	c.AssertExpectations(t)
}

func TestService_FindOne_VersionReadFailureSkipsFill(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, f.request("2025-12-15"))

	c, _ := withSideEffects(f)
	f.svc.events = nil
	c.On("Get", mock.Anything, res.ID).Return(nil, nil).Once()
	c.On("Version", mock.Anything, res.ID).Return(int64(0), errors.New("redis down")).Once()

	got, err := f.svc.FindOne(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	c.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
}

// memoryCache follows the same version protocol as the Redis cache. When
// fillGate is set, the next Fill reports on fillEntered and blocks until the
// gate is closed.
type memoryCache struct {
	mu       sync.Mutex
	entries  map[string]domain.Reservation
	versions map[string]int64
	fills    int

	fillEntered chan struct{}
	fillGate    chan struct{}
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries:  make(map[string]domain.Reservation),
		versions: make(map[string]int64),
	}
}

func (c *memoryCache) Get(_ context.Context, id string) (*domain.Reservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (c *memoryCache) Version(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[id], nil
}

func (c *memoryCache) Fill(_ context.Context, r *domain.Reservation, version int64) (bool, error) {
	c.mu.Lock()
	entered, gate := c.fillEntered, c.fillGate
	c.fillEntered, c.fillGate = nil, nil
	c.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[r.ID] != version {
		return false, nil
	}
	c.entries[r.ID] = *r
	c.fills++
	return true, nil
}

func (c *memoryCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[id]++
	delete(c.entries, id)
	return nil
}

func TestService_WritesNeverFillCache(t *testing.T) {
	f := newFixture(t)
	c := newMemoryCache()
	f.svc.cache = c
	ctx := context.Background()

	res := f.create(t, f.request("2025-12-15"))
	_, err := f.svc.ChangeStatus(ctx, res.ID, "confirmed")
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, res.ID, "cancelled")
	require.NoError(t, err)
	assert.Zero(t, c.fills)

	got, err := f.svc.FindOne(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, got.Status)
	assert.Equal(t, 1, c.fills)
}

func TestService_FindOne_StaleReadDoesNotOverwriteNewerWrite(t *testing.T) {
	f := newFixture(t)
	c := newMemoryCache()
	f.svc.cache = c
	ctx := context.Background()

	res := f.create(t, f.request("2025-12-15"))

	c.fillEntered = make(chan struct{})
	c.fillGate = make(chan struct{})
	entered, gate := c.fillEntered, c.fillGate

	type result struct {
		res *domain.Reservation
		err error
	}
	done := make(chan result, 1)
	go func() {
		r, err := f.svc.FindOne(ctx, res.ID)
		done <- result{r, err}
	}()

	// The reader has loaded the pending row and is about to fill.
	<-entered
	_, err := f.svc.ChangeStatus(ctx, res.ID, "cancelled")
	require.NoError(t, err)
	close(gate)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Equal(t, domain.ReservationPending, stale.res.Status)
	assert.Zero(t, c.fills)

	got, err := f.svc.FindOne(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, got.Status)

	cached, err := c.Get(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, domain.ReservationCancelled, cached.Status)
}

func TestService_PassengerEvents(t *testing.T) {
	f := newFixture(t)
	req := f.request("2025-12-15")
	req.VehicleID = &f.van.ID
	res := f.create(t, req)

	c, p := withSideEffects(f)
	c.On("Invalidate", mock.Anything, res.ID).Return(nil)
	p.On("PublishReservationEvent", mock.Anything, eventOfType(events.PassengerAdded)).Return(nil).Once()
	p.On("PublishReservationEvent", mock.Anything, eventOfType(events.PassengerRemoved)).Return(nil).Once()

	pass := passengers(1)[0]
	added, err := f.svc.AddPassenger(context.Background(), res.ID, AddPassengerRequest{Passenger: &pass})
	require.NoError(t, err)
	require.NoError(t, f.svc.RemovePassenger(context.Background(), added.ID))

	p.AssertExpectations(t)
	c.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestService_Delete_PublishesLastKnownState(t *testing.T) {
	f := newFixture(t)
	req := f.request("2025-12-15")
	req.DriverID = &f.driver.ID
	res := f.create(t, req)

	c, p := withSideEffects(f)
	c.On("Invalidate", mock.Anything, res.ID).Return(nil).Once()
	p.On("PublishReservationEvent", mock.Anything, mock.MatchedBy(func(e events.ReservationEvent) bool {
		return e.Type == events.ReservationDeleted &&
			e.ReservationID == res.ID &&
			e.DriverID != nil && *e.DriverID == f.driver.ID
	})).Return(nil).Once()

	require.NoError(t, f.svc.Delete(context.Background(), res.ID))
	c.AssertExpectations(t)
	p.AssertExpectations(t)
}

func TestService_FailedMutationHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	c, p := withSideEffects(f)

	req := f.request("2025-12-15")
	req.VehicleID = &f.van.ID
	req.RequestedPassengerCount = 9
	_, err := f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "PublishReservationEvent", mock.Anything, mock.Anything)
}
