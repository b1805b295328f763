package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-service/internal/database"
)

// Repository handles user persistence in PostgreSQL
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) errs(operation string) oops.OopsErrorBuilder {
	return oops.In("user_store").Code("STORE_UNAVAILABLE").With("store", "postgres", "operation", operation)
}

// Connect verifies the database is reachable.
// Schema is owned by the migrations in internal/database.
func (r *Repository) Connect(ctx context.Context) error {
	return r.Ping(ctx)
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return r.errs("ping").Wrapf(err, "failed to ping database")
	}
	return nil
}

// Disconnect closes the connection pool
func (r *Repository) Disconnect(_ context.Context) error {
	if err := r.db.Close(); err != nil {
		return r.errs("disconnect").Wrapf(err, "failed to close database")
	}
	return nil
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	dbUser := &database.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, r.errs("create").Wrapf(err, "failed to create user")
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByEmail retrieves a user by email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, r.errs("find_by_email").Wrapf(err, "failed to get user by email")
	}

	return mapDBUserToModel(dbUser), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID.String(),
		Name:         dbu.Name,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
