package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-booking/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateBooking  = errors.New("active booking already exists")
	ErrDuplicatePayment  = errors.New("payment already exists for booking")
	ErrDuplicateTxnID    = errors.New("transaction id already used")
	ErrFlightNumberTaken = errors.New("flight number already exists")
	ErrStatusChanged     = errors.New("status changed concurrently")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrUnknownInventory  = errors.New("unknown inventory type")
)

// Transactor runs fn against repositories bound to a single transaction.
// Returning an error from fn rolls every write back.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	User      UserRepository
	Session   SessionRepository
	Flight    FlightRepository
	Hotel     HotelRepository
	Inventory InventoryRepository
	Booking   BookingRepository
	Payment   PaymentRepository
	Tx        Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := bind(db, log)
	repo.Tx = &pgxTransactor{db: db, log: log}
	return repo
}

func bind(db database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(db, log),
		Session:   NewSessionRepository(db, log),
		Flight:    NewFlightRepository(db, log),
		Hotel:     NewHotelRepository(db, log),
		Inventory: NewInventoryRepository(db, log),
		Booking:   NewBookingRepository(db, log),
		Payment:   NewPaymentRepository(db, log),
	}
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.String("repository", "tx"), zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	repo := bind(tx, t.log)
	repo.Tx = joinedTx{repo: repo}

	if err := fn(repo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.String("repository", "tx"), zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// joinedTx lets code that already holds a transactional Repository call InTx
// again without opening a nested transaction.
type joinedTx struct {
	repo *Repository
}

func (j joinedTx) InTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(j.repo)
}

// likeEscaper quotes LIKE metacharacters using the default backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern makes user text match literally inside a
// '%' || $n || '%' pattern.
func containsPattern(s string) string {
	return likeEscaper.Replace(s)
}

const pgUniqueViolation = "23505"

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr, true
	}
	return nil, false
}
