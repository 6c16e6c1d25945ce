package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
)

// SQLiteAccountRepositoryConfig holds configuration for the SQLite account repository.
type SQLiteAccountRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/affinityapi.db"`
}

// SQLiteAccountRepository implements Repository using SQLite as the storage backend.
type SQLiteAccountRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAccountRepository)(nil)

// SQLiteAccountRepositoryFactory creates a factory function that returns a new SQLiteAccountRepository.
func SQLiteAccountRepositoryFactory(cfg SQLiteAccountRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteAccountRepository(cfg)
	}
}

// NewSQLiteAccountRepository opens the database at cfg.DatabasePath and
// creates the schema if needed.
func NewSQLiteAccountRepository(cfg SQLiteAccountRepositoryConfig) (*SQLiteAccountRepository, error) {
	log := logging.GetLogger("repo.account.sqlite").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	log.Debug("account database ready")

	return &SQLiteAccountRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT    UNIQUE NOT NULL,
			email         TEXT    UNIQUE NOT NULL,
			nombre        TEXT    NOT NULL DEFAULT '',
			apellido      TEXT    NOT NULL DEFAULT '',
			genero        TEXT    NOT NULL DEFAULT '',
			ubicacion     TEXT    NOT NULL DEFAULT '',
			foto          TEXT    NOT NULL DEFAULT '',
			password_hash BLOB    NOT NULL,
			created_at    INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

const selectAccount = `SELECT id, username, email, nombre, apellido, genero, ubicacion, foto, password_hash, created_at FROM accounts`

// CreateAccount implements Repository.CreateAccount using SQLite.
func (r *SQLiteAccountRepository) CreateAccount(ctx context.Context, p domain.UserProfile, passwordHash []byte) (int64, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, nombre, apellido, genero, ubicacion, foto, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Handle, p.Email, p.GivenName, p.FamilyName, p.Gender, p.Location, p.Photo,
		passwordHash,
		time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", mapConstraintError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

// GetAccountByIdentifier implements Repository.GetAccountByIdentifier using SQLite.
func (r *SQLiteAccountRepository) GetAccountByIdentifier(ctx context.Context, identifier string) (*domain.Account, bool, error) {
	return r.queryAccount(ctx, selectAccount+" WHERE username = ? OR email = ? ORDER BY username = ? DESC LIMIT 1",
		identifier, identifier, identifier)
}

// GetAccountByID implements Repository.GetAccountByID using SQLite.
func (r *SQLiteAccountRepository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, bool, error) {
	return r.queryAccount(ctx, selectAccount+" WHERE id = ?", id)
}

func (r *SQLiteAccountRepository) queryAccount(ctx context.Context, query string, args ...any) (*domain.Account, bool, error) {
	var acc domain.Account

	p := &acc.Profile

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Handle, &p.Email, &p.GivenName, &p.FamilyName, &p.Gender, &p.Location, &p.Photo,
		&acc.PasswordHash, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query account: %w", err)
	}

	return &acc, true, nil
}

// UpdateProfile implements Repository.UpdateProfile using SQLite.
func (r *SQLiteAccountRepository) UpdateProfile(ctx context.Context, p domain.UserProfile) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, email = ?, nombre = ?, apellido = ?, genero = ?, ubicacion = ?, foto = ?
		 WHERE id = ?`,
		p.Handle, p.Email, p.GivenName, p.FamilyName, p.Gender, p.Location, p.Photo,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", mapConstraintError(err))
	}

	return requireAffected(res)
}

// DeleteAccount implements Repository.DeleteAccount using SQLite.
func (r *SQLiteAccountRepository) DeleteAccount(ctx context.Context, id int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	return requireAffected(res)
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAccountRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func mapConstraintError(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(domain.ErrAccountAlreadyExists, err)
		}
	}

	return err
}
