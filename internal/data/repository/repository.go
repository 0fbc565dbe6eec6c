package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medhistory/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Repository struct {
	User      UserRepository
	Pending   PendingRegistrationRepository
	Challenge OTPChallengeRepository
	Catalog   CatalogRepository
	Session   SessionRepository
	Tx        Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgxTransactor{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(q, log),
		Pending:   NewPendingRegistrationRepository(q, log),
		Challenge: NewOTPChallengeRepository(q, log),
		Catalog:   NewCatalogRepository(q, log),
		Session:   NewSessionRepository(q, log),
	}
}

// Transactor runs fn against repositories bound to a single transaction.
// A non-nil error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo *Repository) error) error
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) WithinTx(ctx context.Context, fn func(repo *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			t.log.Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	txRepo := newRepository(tx, t.log)
	txRepo.Tx = nestedTransactor{repo: txRepo}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// nestedTransactor reuses the enclosing transaction.
type nestedTransactor struct {
	repo *Repository
}

func (n nestedTransactor) WithinTx(ctx context.Context, fn func(repo *Repository) error) error {
	return fn(n.repo)
}

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// asDuplicate converts a unique violation into a DuplicateError, naming the
// field after the violated constraint.
func asDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	field := "name"
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		field = "email"
	case strings.Contains(pgErr.ConstraintName, "username"),
		strings.Contains(pgErr.ConstraintName, "phone"):
		field = "phone_number"
	}
	return &DuplicateError{Field: field, Err: err}
}
