package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/event"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// memStore is a serializable in-memory stand-in for postgres. A transaction
// holds the store lock for its whole duration and restores a snapshot when
// fn fails.
type memStore struct {
	mu   sync.Mutex
	data memData
}

type memData struct {
	users    map[string]entity.User
	flights  map[int64]entity.Flight
	hotels   map[int64]entity.Hotel
	bookings map[int64]entity.Booking
	payments map[int64]entity.Payment
	nextID   int64
}

func (d memData) clone() memData {
	c := memData{
		users:    make(map[string]entity.User, len(d.users)),
		flights:  make(map[int64]entity.Flight, len(d.flights)),
		hotels:   make(map[int64]entity.Hotel, len(d.hotels)),
		bookings: make(map[int64]entity.Booking, len(d.bookings)),
		payments: make(map[int64]entity.Payment, len(d.payments)),
		nextID:   d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.flights {
		c.flights[k] = v
	}
	for k, v := range d.hotels {
		c.hotels[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	return c
}

func newMemStore() *memStore {
	return &memStore{data: memData{}.clone()}
}

func (s *memStore) id() int64 {
	s.data.nextID++
	return s.data.nextID
}

// conn is one view of the store: outside a transaction every call takes the
// lock, inside one the transaction already holds it.
type conn struct {
	s    *memStore
	inTx bool
}

func (c conn) lock() func() {
	if c.inTx {
		return func() {}
	}
	c.s.mu.Lock()
	return c.s.mu.Unlock
}

func (s *memStore) repository(inTx bool) *repository.Repository {
	c := conn{s: s, inTx: inTx}
	repo := &repository.Repository{
		User:      memUsers{c},
		Session:   memSessions{c},
		Flight:    memFlights{c},
		Hotel:     memHotels{c},
		Inventory: memInventory{c},
		Booking:   memBookings{c},
		Payment:   memPayments{c},
	}
	if inTx {
		repo.Tx = joined{repo}
	} else {
		repo.Tx = memTx{s}
	}
	return repo
}

type memTx struct{ s *memStore }

func (t memTx) InTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snapshot := t.s.data.clone()
	if err := fn(t.s.repository(true)); err != nil {
		t.s.data = snapshot
		return err
	}
	return nil
}

type joined struct{ repo *repository.Repository }

func (j joined) InTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(j.repo)
}

// seeding helpers, callers own the returned copies

func (s *memStore) addUser(id, first, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[id] = entity.User{ID: id, FirstName: first, LastName: last, Role: entity.RoleCustomer, IsActive: true}
}

func (s *memStore) addFlight(f entity.Flight) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.data.flights[f.ID] = f
	return f.ID
}

func (s *memStore) addHotel(h entity.Hotel) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.id()
	s.data.hotels[h.ID] = h
	return h.ID
}

func (s *memStore) addBooking(b entity.Booking) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	if b.DateBooked.IsZero() {
		b.DateBooked = time.Now().UTC()
	}
	s.data.bookings[b.ID] = b
	return b.ID
}

func (s *memStore) booking(id int64) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.bookings[id]
}

func (s *memStore) flight(id int64) entity.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.flights[id]
}

func (s *memStore) hotel(id int64) entity.Hotel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.hotels[id]
}

func (s *memStore) paymentOf(bookingID int64) (entity.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.payments {
		if p.BookingID == bookingID {
			return p, true
		}
	}
	return entity.Payment{}, false
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.payments)
}

func (s *memStore) repriceFlight(id int64, price entity.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.data.flights[id]
	f.Price = price
	s.data.flights[id] = f
}

func (s *memStore) deleteFlight(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.flights, id)
}

type memUsers struct{ conn }

func (r memUsers) FindByID(_ context.Context, id string) (*entity.User, error) {
	defer r.lock()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memSessions struct{ conn }

func (memSessions) FindValidSession(context.Context, uuid.UUID) (*entity.Session, error) {
	return nil, nil
}

func (memSessions) CleanExpiredSessions(context.Context) (int64, error) { return 0, nil }

type memFlights struct{ conn }

func (r memFlights) Create(_ context.Context, f *entity.Flight) error {
	defer r.lock()()
	for _, existing := range r.s.data.flights {
		if existing.FlightNumber == f.FlightNumber {
			return repository.ErrFlightNumberTaken
		}
	}
	f.ID = r.s.id()
	r.s.data.flights[f.ID] = *f
	return nil
}

func (r memFlights) FindByID(_ context.Context, id int64) (*entity.Flight, error) {
	defer r.lock()()
	f, ok := r.s.data.flights[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r memFlights) FindByFlightNumber(_ context.Context, number string) (*entity.Flight, error) {
	defer r.lock()()
	for _, f := range r.s.data.flights {
		f := f
		if f.FlightNumber == number {
			return &f, nil
		}
	}
	return nil, nil
}

func (r memFlights) matching(filter repository.FlightFilter) []*entity.Flight {
	var out []*entity.Flight
	for _, f := range r.s.data.flights {
		f := f
		if filter.Origin != "" && !strings.Contains(strings.ToLower(f.Origin), strings.ToLower(filter.Origin)) {
			continue
		}
		if filter.Destination != "" && !strings.Contains(strings.ToLower(f.Destination), strings.ToLower(filter.Destination)) {
			continue
		}
		if filter.MaxPrice != nil && f.Price > *filter.MaxPrice {
			continue
		}
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out
}

func (r memFlights) Search(_ context.Context, filter repository.FlightFilter, limit, offset int) ([]*entity.Flight, error) {
	defer r.lock()()
	return page(r.matching(filter), limit, offset), nil
}

func (r memFlights) Count(_ context.Context, filter repository.FlightFilter) (int64, error) {
	defer r.lock()()
	return int64(len(r.matching(filter))), nil
}

func (r memFlights) Update(_ context.Context, f *entity.Flight) error {
	defer r.lock()()
	if _, ok := r.s.data.flights[f.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.flights[f.ID] = *f
	return nil
}

func (r memFlights) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.s.data.flights[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.flights, id)
	return nil
}

type memHotels struct{ conn }

func (r memHotels) Create(_ context.Context, h *entity.Hotel) error {
	defer r.lock()()
	h.ID = r.s.id()
	r.s.data.hotels[h.ID] = *h
	return nil
}

func (r memHotels) FindByID(_ context.Context, id int64) (*entity.Hotel, error) {
	defer r.lock()()
	h, ok := r.s.data.hotels[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r memHotels) matching(filter repository.HotelFilter) []*entity.Hotel {
	var out []*entity.Hotel
	for _, h := range r.s.data.hotels {
		h := h
		if filter.Location != "" && !strings.Contains(strings.ToLower(h.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if filter.MaxPrice != nil && h.PricePerNight > *filter.MaxPrice {
			continue
		}
		if filter.MinRating != nil && h.Rating < *filter.MinRating {
			continue
		}
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memHotels) Search(_ context.Context, filter repository.HotelFilter, limit, offset int) ([]*entity.Hotel, error) {
	defer r.lock()()
	return page(r.matching(filter), limit, offset), nil
}

func (r memHotels) Count(_ context.Context, filter repository.HotelFilter) (int64, error) {
	defer r.lock()()
	return int64(len(r.matching(filter))), nil
}

func (r memHotels) Update(_ context.Context, h *entity.Hotel) error {
	defer r.lock()()
	if _, ok := r.s.data.hotels[h.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.hotels[h.ID] = *h
	return nil
}

func (r memHotels) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	if _, ok := r.s.data.hotels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.hotels, id)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// memInventory mirrors the conditional UPDATE of the postgres repository.
type memInventory struct{ conn }

func (r memInventory) counter(t entity.BookingType, id int64) (*int, func(), error) {
	switch t {
	case entity.BookingTypeFlight:
		f, ok := r.s.data.flights[id]
		if !ok {
			return nil, nil, repository.ErrNotFound
		}
		return &f.AvailableSeats, func() { r.s.data.flights[id] = f }, nil
	case entity.BookingTypeHotel:
		h, ok := r.s.data.hotels[id]
		if !ok {
			return nil, nil, repository.ErrNotFound
		}
		return &h.RoomsAvailable, func() { r.s.data.hotels[id] = h }, nil
	}
	return nil, nil, repository.ErrUnknownInventory
}

func (r memInventory) Reserve(_ context.Context, t entity.BookingType, id int64, qty int) (bool, error) {
	if qty < 1 {
		return false, repository.ErrInvalidQuantity
	}
	defer r.lock()()
	n, save, err := r.counter(t, id)
	if err != nil {
		return false, err
	}
	if *n < qty {
		return false, nil
	}
	*n -= qty
	save()
	return true, nil
}

func (r memInventory) Release(_ context.Context, t entity.BookingType, id int64, qty int) error {
	if qty < 1 {
		return repository.ErrInvalidQuantity
	}
	defer r.lock()()
	n, save, err := r.counter(t, id)
	if err != nil {
		return err
	}
	*n += qty
	save()
	return nil
}

func (r memInventory) Available(_ context.Context, t entity.BookingType, id int64) (int, error) {
	defer r.lock()()
	n, _, err := r.counter(t, id)
	if err != nil {
		return 0, err
	}
	return *n, nil
}

type memBookings struct{ conn }

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	defer r.lock()()
	for _, existing := range r.s.data.bookings {
		if !existing.Status.Active() || existing.UserID != b.UserID ||
			existing.Type != b.Type || existing.ReferenceID != b.ReferenceID {
			continue
		}
		if b.Type == entity.BookingTypeFlight || sameDay(existing.CheckInDate, b.CheckInDate) {
			return repository.ErrDuplicateBooking
		}
	}
	b.ID = r.s.id()
	b.UpdatedAt = time.Now().UTC()
	r.s.data.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(_ context.Context, id int64) (*entity.Booking, error) {
	defer r.lock()()
	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookings) filter(keep func(entity.Booking) bool) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.s.data.bookings {
		b := b
		if keep(b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memBookings) FindByUserID(_ context.Context, userID string) ([]*entity.Booking, error) {
	defer r.lock()()
	return r.filter(func(b entity.Booking) bool { return b.UserID == userID }), nil
}

func (r memBookings) FindByStatus(_ context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	defer r.lock()()
	return r.filter(func(b entity.Booking) bool { return b.Status == status }), nil
}

func (r memBookings) HasActiveFlightBooking(_ context.Context, userID string, flightID int64) (bool, error) {
	defer r.lock()()
	found := r.filter(func(b entity.Booking) bool {
		return b.UserID == userID && b.Type == entity.BookingTypeFlight && b.ReferenceID == flightID && b.Status.Active()
	})
	return len(found) > 0, nil
}

func (r memBookings) HasActiveHotelBooking(_ context.Context, userID string, hotelID int64, checkIn time.Time) (bool, error) {
	defer r.lock()()
	found := r.filter(func(b entity.Booking) bool {
		return b.UserID == userID && b.Type == entity.BookingTypeHotel && b.ReferenceID == hotelID &&
			b.Status.Active() && sameDay(b.CheckInDate, &checkIn)
	})
	return len(found) > 0, nil
}

func (r memBookings) CountByReference(_ context.Context, t entity.BookingType, ref int64, status entity.BookingStatus) (int64, error) {
	defer r.lock()()
	found := r.filter(func(b entity.Booking) bool {
		return b.Type == t && b.ReferenceID == ref && b.Status == status
	})
	return int64(len(found)), nil
}

func (r memBookings) UpdateStatus(_ context.Context, id int64, from, to entity.BookingStatus) error {
	defer r.lock()()
	b, ok := r.s.data.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStatusChanged
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	r.s.data.bookings[id] = b
	return nil
}

type memPayments struct{ conn }

func (r memPayments) Create(_ context.Context, p *entity.Payment) error {
	defer r.lock()()
	for _, existing := range r.s.data.payments {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrDuplicateTxnID
		}
		if existing.BookingID == p.BookingID {
			return repository.ErrDuplicatePayment
		}
	}
	p.ID = r.s.id()
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r memPayments) FindByID(_ context.Context, id int64) (*entity.Payment, error) {
	defer r.lock()()
	p, ok := r.s.data.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memPayments) FindByBookingID(_ context.Context, bookingID int64) (*entity.Payment, error) {
	defer r.lock()()
	for _, p := range r.s.data.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPayments) list(keep func(entity.Payment) bool) []*entity.Payment {
	var out []*entity.Payment
	for _, p := range r.s.data.payments {
		p := p
		if keep(p) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memPayments) FindByUserID(_ context.Context, userID string) ([]*entity.Payment, error) {
	defer r.lock()()
	return r.list(func(p entity.Payment) bool {
		return r.s.data.bookings[p.BookingID].UserID == userID
	}), nil
}

func (r memPayments) FindByStatus(_ context.Context, status entity.PaymentStatus) ([]*entity.Payment, error) {
	defer r.lock()()
	return r.list(func(p entity.Payment) bool { return p.Status == status }), nil
}

func (r memPayments) Update(_ context.Context, p *entity.Payment) error {
	defer r.lock()()
	existing, ok := r.s.data.payments[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Amount = existing.Amount
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r memPayments) TotalRevenue(_ context.Context, start, end *time.Time) (entity.Money, error) {
	defer r.lock()()
	var total entity.Money
	for _, p := range r.s.data.payments {
		if p.Status != entity.PaymentStatusCompleted {
			continue
		}
		if start != nil && p.PaymentDate.Before(*start) {
			continue
		}
		if end != nil && p.PaymentDate.After(*end) {
			continue
		}
		total += p.Amount
	}
	return total, nil
}

// fixedSettler yields the queued outcomes in order, repeating the last.
type fixedSettler struct {
	mu       sync.Mutex
	outcomes []entity.PaymentStatus
	calls    int
}

func settleAlways(status entity.PaymentStatus) *fixedSettler {
	return &fixedSettler{outcomes: []entity.PaymentStatus{status}}
}

func (f *fixedSettler) Settle(context.Context, *entity.Booking, entity.Money) Settlement {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	f.calls++
	return Settlement{
		Status:        f.outcomes[i],
		TransactionID: fmt.Sprintf("TXN-TEST-%04d", f.calls),
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type refusingClaims struct{}

func (refusingClaims) Acquire(context.Context, string) (bool, error) { return false, nil }
func (refusingClaims) Release(context.Context, string) error         { return nil }

type brokenClaims struct {
	mu       sync.Mutex
	released []string
}

func (*brokenClaims) Acquire(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (c *brokenClaims) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = append(c.released, key)
	return nil
}

type (
	pagedFlights = response.PaginatedResponse[response.FlightResponse]
	pagedHotels  = response.PaginatedResponse[response.HotelResponse]
)

// mapCache is a SearchCache that keeps raw values, enough to observe hits
// and invalidations.
type mapCache struct {
	mu          sync.Mutex
	entries     map[string]map[string]any
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]map[string]any{}}
}

func (c *mapCache) Get(_ context.Context, kind, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[kind][key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *pagedFlights:
		*d = *(v.(*pagedFlights))
	case *pagedHotels:
		*d = *(v.(*pagedHotels))
	default:
		return false, nil
	}
	return true, nil
}

func (c *mapCache) Set(_ context.Context, kind, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[kind] == nil {
		c.entries[kind] = map[string]any{}
	}
	c.entries[kind][key] = value
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, kind)
	c.invalidated = append(c.invalidated, kind)
	return nil
}

type fixture struct {
	store    *memStore
	repo     *repository.Repository
	events   *recordingPublisher
	cache    *mapCache
	settler  *fixedSettler
	bookings BookingService
	payments PaymentService
	flights  FlightService
	hotels   HotelService
}

func newFixture(t *testing.T, settler *fixedSettler, claims BookingClaims) *fixture {
	t.Helper()

	store := newMemStore()
	store.addUser("user-1", "Ada", "Lovelace")
	store.addUser("user-2", "Alan", "Turing")

	f := &fixture{
		store:   store,
		repo:    store.repository(false),
		events:  &recordingPublisher{},
		cache:   newMapCache(),
		settler: settler,
	}
	if f.settler == nil {
		f.settler = settleAlways(entity.PaymentStatusCompleted)
	}

	svc := NewService(f.repo, Infra{
		Cache:   f.cache,
		Claims:  claims,
		Events:  f.events,
		Settler: f.settler,
	}, zaptest.NewLogger(t))

	f.bookings = svc.Booking
	f.payments = svc.Payment
	f.flights = svc.Flight
	f.hotels = svc.Hotel
	return f
}

func testFlight(seats int, price float64) entity.Flight {
	dep := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return entity.Flight{
		Airline:        "Garuda",
		FlightNumber:   "GA-" + uuid.NewString()[:6],
		Origin:         "Jakarta",
		Destination:    "Bali",
		DepartureTime:  dep,
		ArrivalTime:    dep.Add(2 * time.Hour),
		Price:          entity.MoneyFromFloat(price),
		AvailableSeats: seats,
	}
}

func testHotel(rooms int, perNight float64) entity.Hotel {
	return entity.Hotel{
		Name:           "Hotel Indonesia",
		Location:       "Jakarta",
		PricePerNight:  entity.MoneyFromFloat(perNight),
		RoomsAvailable: rooms,
		Rating:         4.5,
	}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
