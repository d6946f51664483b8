package services

import (
	"context"
	"sync"
	"testing"

	"busbooking/internal/domain/models"
	"busbooking/internal/gateway"
	"busbooking/internal/repositories"
	"busbooking/internal/seatmap"

	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	mu       sync.Mutex
	signedIn bool
	begins   []string
}

func (f *fakeIdentity) CurrentIdentity(context.Context) (models.Identity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.signedIn {
		return models.Identity{}, false, nil
	}
	return models.Identity{UserID: "u1", Name: "Tester"}, true, nil
}

func (f *fakeIdentity) BeginAuth(_ context.Context, returnTo string) error {
	f.mu.Lock()
	f.begins = append(f.begins, returnTo)
	f.mu.Unlock()
	return nil
}

type countingCatalog struct {
	repositories.TripCatalog
	mu    sync.Mutex
	calls int
}

func (c *countingCatalog) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.TripCatalog.GetTrip(ctx, id)
}

type countingSeatMaps struct {
	gen   *seatmap.Generator
	mu    sync.Mutex
	calls int
}

func (c *countingSeatMaps) GenerateContext(ctx context.Context, trip models.Trip) (models.SeatMap, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.gen.GenerateContext(ctx, trip)
}

type fakeGateway struct {
	mu     sync.Mutex
	calls  []gateway.ChargeRequest
	charge func(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error)
}

func (g *fakeGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	fn := g.charge
	g.mu.Unlock()
	if fn == nil {
		return gateway.ChargeResponse{Success: true, TransactionID: "tx-" + string(req.Method), Status: "completed"}, nil
	}
	return fn(ctx, req)
}

func (g *fakeGateway) GetTransaction(context.Context, string) (gateway.TransactionInfo, bool, error) {
	return gateway.TransactionInfo{}, false, nil
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Calls() []gateway.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.ChargeRequest(nil), g.calls...)
}

type harness struct {
	identity *fakeIdentity
	catalog  *countingCatalog
	seatMaps *countingSeatMaps
	gateway  *fakeGateway
	bookings *repositories.MemoryBookingStore
	sessions *repositories.MemorySessionStore
	manager  *Manager
}

func testTrips() []models.Trip {
	return []models.Trip{
		{ID: "T1", Origin: "Addis Ababa", Destination: "Adama", Date: "2024-01-02", DepartureTime: "07:00",
			Price: 800, TotalSeats: 10, AvailableSeats: 8, BusType: "Standard"},
		{ID: "T2", Origin: "Addis Ababa", Destination: "Hawassa", Date: "2024-01-02", DepartureTime: "09:00",
			Price: 900, TotalSeats: 12, AvailableSeats: 12, BusType: "Luxury"},
		{ID: "BAD", Origin: "Addis Ababa", Destination: "Nowhere", Price: 100, TotalSeats: 5, AvailableSeats: 6},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := repositories.NewStaticCatalog(testTrips())
	require.NoError(t, err)
	h := &harness{
		identity: &fakeIdentity{signedIn: true},
		catalog:  &countingCatalog{TripCatalog: cat},
		seatMaps: &countingSeatMaps{gen: seatmap.NewGenerator(7)},
		gateway:  &fakeGateway{},
		bookings: repositories.NewMemoryBookingStore(),
		sessions: repositories.NewMemorySessionStore(),
	}
	h.manager = NewManager(h.deps())
	return h
}

func (h *harness) deps() PipelineDeps {
	return PipelineDeps{
		Catalog:  h.catalog,
		SeatMaps: h.seatMaps,
		Gateway:  h.gateway,
		Bookings: h.bookings,
		Sessions: h.sessions,
		Identity: h.identity,
	}
}

func (h *harness) session(t *testing.T, id string) *ReservationPipeline {
	t.Helper()
	p, err := h.manager.Session(context.Background(), id)
	require.NoError(t, err)
	return p
}

// pickFree enters tripID and selects the first n free seats.
func pickFree(t *testing.T, p *ReservationPipeline, tripID string, n int) []string {
	t.Helper()
	ctx := context.Background()
	m, err := p.EnterFlow(ctx, tripID)
	require.NoError(t, err)
	free := m.AvailableIDs()
	require.GreaterOrEqual(t, len(free), n)
	for _, id := range free[:n] {
		selected, err := p.ToggleSeat(ctx, id)
		require.NoError(t, err)
		require.True(t, selected)
	}
	return free[:n]
}
