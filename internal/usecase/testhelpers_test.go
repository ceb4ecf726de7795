package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/gateway"
	"event-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ---- fake database ----

type fakeTx struct {
	mu         sync.Mutex
	committed  bool
	rolledBack bool
	unlocks    []func()
}

// onResolve registers a row-lock release to run when the transaction
// commits or rolls back.
func (t *fakeTx) onResolve(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlocks = append(t.unlocks, fn)
}

func (t *fakeTx) releaseLocks() {
	t.mu.Lock()
	unlocks := t.unlocks
	t.unlocks = nil
	t.mu.Unlock()
	for _, fn := range unlocks {
		fn()
	}
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("fakeTx.Query should not be reached")
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("fakeTx.QueryRow should not be reached")
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	panic("fakeTx.Exec should not be reached")
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	t.releaseLocks()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	t.releaseLocks()
	return nil
}

type fakeDB struct {
	mu       sync.Mutex
	beginErr error
	txs      []*fakeTx
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("fakeDB.Query should not be reached")
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("fakeDB.QueryRow should not be reached")
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	panic("fakeDB.Exec should not be reached")
}

func (d *fakeDB) Begin(ctx context.Context) (database.Tx, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) Ping(ctx context.Context) error { return nil }
func (d *fakeDB) Close()                         {}

// ---- fake repositories ----

type fakeEventRepo struct {
	mu       sync.Mutex
	events   []*entity.Event
	rowLocks map[uuid.UUID]*sync.Mutex
}

func (r *fakeEventRepo) add(event *entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *fakeEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			copy := *e
			return &copy, nil
		}
	}
	return nil, nil
}

// FindByIDForUpdateTx mimics a row lock: the per-event mutex is held
// until the transaction commits or rolls back, so concurrent orders for
// the same event serialize the way they would against Postgres.
func (r *fakeEventRepo) FindByIDForUpdateTx(ctx context.Context, tx database.Tx, id uuid.UUID) (*entity.Event, error) {
	r.mu.Lock()
	if r.rowLocks == nil {
		r.rowLocks = make(map[uuid.UUID]*sync.Mutex)
	}
	rowLock := r.rowLocks[id]
	if rowLock == nil {
		rowLock = &sync.Mutex{}
		r.rowLocks[id] = rowLock
	}
	r.mu.Unlock()

	rowLock.Lock()
	if ft, ok := tx.(*fakeTx); ok {
		ft.onResolve(rowLock.Unlock)
	} else {
		rowLock.Unlock()
	}

	return r.FindByID(ctx, id)
}

func (r *fakeEventRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Event, error) {
	var out []*entity.Event
	for _, id := range ids {
		e, _ := r.FindByID(ctx, id)
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) FindOnSale(ctx context.Context, limit, offset int) ([]*entity.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var onSale []*entity.Event
	for _, e := range r.events {
		if e.OnSale() {
			copy := *e
			onSale = append(onSale, &copy)
		}
	}
	if offset >= len(onSale) {
		return nil, nil
	}
	onSale = onSale[offset:]
	if limit < len(onSale) {
		onSale = onSale[:limit]
	}
	return onSale, nil
}

func (r *fakeEventRepo) CountOnSale(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.events {
		if e.OnSale() {
			n++
		}
	}
	return n, nil
}

type fakeBookingRepo struct {
	mu              sync.Mutex
	bookings        []*entity.Booking
	hasConfirmedErr error
}

func (r *fakeBookingRepo) add(booking *entity.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, booking)
}

func (r *fakeBookingRepo) byID(id uuid.UUID) *entity.Booking {
	for _, b := range r.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (r *fakeBookingRepo) CreateTx(ctx context.Context, tx database.Tx, booking *entity.Booking) error {
	copy := *booking
	r.add(&copy)
	return nil
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.byID(id); b != nil {
		copy := *b
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.PaymentID == paymentID {
			copy := *b
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindByPaymentIDTx(ctx context.Context, tx database.Tx, paymentID uuid.UUID) ([]*entity.Booking, error) {
	return r.FindByPaymentID(ctx, paymentID)
}

func (r *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []*entity.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			copy := *b
			mine = append(mine, &copy)
		}
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, nil
}

func (r *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.byID(bookingID)
	if b == nil {
		return errors.New("booking not found")
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) UpdateStatusTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID, status entity.BookingStatus) error {
	return r.UpdateStatus(ctx, bookingID, status)
}

func (r *fakeBookingRepo) ReservedQuantity(ctx context.Context, eventID uuid.UUID, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.bookings {
		if b.EventID != eventID {
			continue
		}
		if b.Status == entity.BookingStatusConfirmed {
			total += b.Quantity
		}
		if b.Status == entity.BookingStatusPending && b.ExpiresAt.After(now) {
			total += b.Quantity
		}
	}
	return total, nil
}

func (r *fakeBookingRepo) ReservedQuantityTx(ctx context.Context, tx database.Tx, eventID uuid.UUID, now time.Time) (int, error) {
	return r.ReservedQuantity(ctx, eventID, now)
}

func (r *fakeBookingRepo) HasConfirmedForEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasConfirmedErr != nil {
		return false, r.hasConfirmedErr
	}
	for _, b := range r.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status == entity.BookingStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []*entity.Payment
}

func (r *fakePaymentRepo) add(payment *entity.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, payment)
}

func (r *fakePaymentRepo) byID(id uuid.UUID) *entity.Payment {
	for _, p := range r.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *fakePaymentRepo) CreateTx(ctx context.Context, tx database.Tx, payment *entity.Payment) error {
	copy := *payment
	r.add(&copy)
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.byID(id); p != nil {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByOrderIDForUpdateTx(ctx context.Context, tx database.Tx, orderID string) (*entity.Payment, error) {
	return r.FindByOrderID(ctx, orderID)
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status entity.PaymentStatus, gatewayRef *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.byID(paymentID)
	if p == nil {
		return errors.New("payment not found")
	}
	p.Status = status
	if gatewayRef != nil {
		p.GatewayRef = gatewayRef
	}
	return nil
}

func (r *fakePaymentRepo) UpdateStatusTx(ctx context.Context, tx database.Tx, paymentID uuid.UUID, status entity.PaymentStatus, gatewayRef *string) error {
	return r.UpdateStatus(ctx, paymentID, status, gatewayRef)
}

func (r *fakePaymentRepo) FindStaleNonTerminal(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.payments {
		if len(out) >= limit {
			break
		}
		if !p.Status.Terminal() && p.CreatedAt.Before(cutoff) {
			copy := *p
			out = append(out, &copy)
		}
	}
	return out, nil
}

type fakeTicketRepo struct {
	mu       sync.Mutex
	tickets  []*entity.Ticket
	bookings *fakeBookingRepo

	findByCodeCalls int
	checkInErr      error
}

func (r *fakeTicketRepo) add(ticket *entity.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, ticket)
}

func (r *fakeTicketRepo) CreateBatchTx(ctx context.Context, tx database.Tx, tickets []*entity.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tickets {
		copy := *t
		r.tickets = append(r.tickets, &copy)
	}
	return nil
}

func (r *fakeTicketRepo) CountByBookingIDTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tickets {
		if t.BookingID == bookingID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTicketRepo) FindByCode(ctx context.Context, code string) (*entity.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findByCodeCalls++
	for _, t := range r.tickets {
		if t.Code == code {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ticket
	for _, t := range r.tickets {
		if t.BookingID == bookingID {
			copy := *t
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ticket
	for _, t := range r.tickets {
		booking, _ := r.bookings.FindByID(ctx, t.BookingID)
		if booking != nil && booking.UserID == userID {
			copy := *t
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) CheckIn(ctx context.Context, ticketID, staffID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.checkInErr != nil {
		return false, r.checkInErr
	}
	for _, t := range r.tickets {
		if t.ID == ticketID {
			if t.CheckedIn {
				return false, nil
			}
			t.CheckedIn = true
			t.CheckedInAt = &at
			t.CheckedInBy = &staffID
			return true, nil
		}
	}
	return false, nil
}

// ---- fake gateway ----

type fakeGateway struct {
	mu sync.Mutex

	session    *gateway.Session
	sessionErr error
	state      *gateway.OrderState
	statusErr  error

	sessionCalls    int
	statusCalls     int
	lastSessionReq  gateway.SessionRequest
	lastStatusOrder string
}

func (g *fakeGateway) CreateSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionCalls++
	g.lastSessionReq = req
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &gateway.Session{
		SessionID:  "sess_fake",
		SDKPayload: []byte(`{"id":"sess_fake"}`),
	}, nil
}

func (g *fakeGateway) OrderStatus(ctx context.Context, orderID string) (*gateway.OrderState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	g.lastStatusOrder = orderID
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if g.state != nil {
		return g.state, nil
	}
	return &gateway.OrderState{Outcome: gateway.OutcomePending, RawStatus: "NEW"}, nil
}

func (g *fakeGateway) VerifySignature(body []byte, signature string) bool {
	return signature == "valid"
}

func (g *fakeGateway) SignatureConfigured() bool { return true }

func (g *fakeGateway) orderStatusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

// ---- fixture ----

type fixture struct {
	db       *fakeDB
	events   *fakeEventRepo
	bookings *fakeBookingRepo
	payments *fakePaymentRepo
	tickets  *fakeTicketRepo
	gw       *fakeGateway
	repo     *repository.Repository
}

func newFixture() *fixture {
	events := &fakeEventRepo{}
	bookings := &fakeBookingRepo{}
	payments := &fakePaymentRepo{}
	tickets := &fakeTicketRepo{bookings: bookings}

	return &fixture{
		db:       &fakeDB{},
		events:   events,
		bookings: bookings,
		payments: payments,
		tickets:  tickets,
		gw:       &fakeGateway{},
		repo: &repository.Repository{
			Event:   events,
			Booking: bookings,
			Payment: payments,
			Ticket:  tickets,
		},
	}
}

func (f *fixture) seedEvent(status entity.EventStatus, price int64, maxTickets int) *entity.Event {
	now := time.Now()
	event := &entity.Event{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:       "Jazz Night",
		Venue:      "City Hall",
		StartsAt:   now.Add(72 * time.Hour),
		Price:      decimal.NewFromInt(price),
		MaxTickets: maxTickets,
		Status:     status,
	}
	f.events.add(event)
	return event
}

func (f *fixture) seedPayment(orderID string, userID uuid.UUID, status entity.PaymentStatus, createdAt time.Time) *entity.Payment {
	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		OrderID: orderID,
		UserID:  userID,
		Amount:  decimal.NewFromInt(500),
		Status:  status,
	}
	f.payments.add(payment)
	return payment
}

func (f *fixture) seedBooking(payment *entity.Payment, event *entity.Event, userID uuid.UUID, quantity int, status entity.BookingStatus, expiresAt time.Time) *entity.Booking {
	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PaymentID:  payment.ID,
		EventID:    event.ID,
		UserID:     userID,
		Quantity:   quantity,
		UnitPrice:  event.Price,
		TotalPrice: event.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:     status,
		ExpiresAt:  expiresAt,
	}
	f.bookings.add(booking)
	return booking
}

func (f *fixture) seedTicket(booking *entity.Booking, seq int) *entity.Ticket {
	ticket := &entity.Ticket{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		BookingID: booking.ID,
		EventID:   booking.EventID,
		Code:      uuid.New().String(),
		Seq:       seq,
	}
	f.tickets.add(ticket)
	return ticket
}
