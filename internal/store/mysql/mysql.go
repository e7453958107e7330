// Package mysql stores contacts in a MySQL table through sqlx. The schema is in
// scripts/database.sql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// columns is the select list matching the db tags of model.Contact.
const columns = "id, avatar, first, last, twitter, favorite, created_at"

// likeEscaper escapes the LIKE wildcards so that search terms are matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Store is a store.Store on top of a MySQL database.
type Store struct {
	db *sqlx.DB

	// insert is a prepared statement for creating a contact on the database.
	insert *sqlx.NamedStmt
	// selectWhereId is a prepared statement for selecting the contact with a given id.
	selectWhereId *sqlx.Stmt
	// deleteWhereId is a prepared statement for deleting the contact with a given id.
	deleteWhereId *sqlx.Stmt

	now func() time.Time
}

// Open connects to the MySQL server at host and verifies the connection.
func Open(ctx context.Context, user, password, host, dbName string) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.DBName = dbName
	cfg.ParseTime = true
	sqlDB, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to mysql at %s: %w", host, err)
	}
	return sqlDB, nil
}

// New wraps the sql database and prepares all statements. The database argument can be a
// real database for production use or a mock database within unit tests.
func New(sqlDB *sql.DB) (*Store, error) {
	s := &Store{db: sqlx.NewDb(sqlDB, "mysql"), now: time.Now}
	var err error

	// Prepared statements offer a significant speed increase if executed many times.
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (id, avatar, first, last, twitter, favorite, created_at)
		VALUES (:id, :avatar, :first, :last, :twitter, :favorite, :created_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT ` + columns + ` FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing select: %w", err)
	}
	s.deleteWhereId, err = s.db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing delete: %w", err)
	}
	return s, nil
}

func (s *Store) Insert(ctx context.Context, fields model.Fields) (*model.Contact, error) {
	c := model.Contact{
		Id:      uuid.NewString(),
		Avatar:  fields.Avatar,
		First:   fields.First,
		Last:    fields.Last,
		Twitter: fields.Twitter,
		// DATETIME(6) keeps microseconds, anything finer would not survive a round trip.
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if _, err := s.insert.ExecContext(ctx, &c); err != nil {
		return nil, fmt.Errorf("inserting contact: %w", err)
	}
	return &c, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	var c model.Contact
	err := s.selectWhereId.GetContext(ctx, &c, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting contact %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) FindMany(ctx context.Context, filter *store.Filter) ([]model.Contact, error) {
	contacts := []model.Contact{}
	var err error
	if filter == nil {
		err = s.db.SelectContext(ctx, &contacts, `
			SELECT `+columns+`
			FROM contacts
			ORDER BY created_at, id`)
	} else {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Query)) + "%"
		err = s.db.SelectContext(ctx, &contacts, `
			SELECT `+columns+`
			FROM contacts
			WHERE LOWER(first) LIKE ?
				OR LOWER(last) LIKE ?
				OR LOWER(twitter) LIKE ?
			ORDER BY created_at, id`, pattern, pattern, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting contacts: %w", err)
	}
	return contacts, nil
}

// UpdateByID writes the values of the patch (and only those) and returns the contact as it
// is stored afterwards.
func (s *Store) UpdateByID(ctx context.Context, id string, patch model.Patch) (*model.Contact, error) {
	var args []interface{}
	var sets []string
	if patch.Avatar != nil {
		args = append(args, *patch.Avatar)
		sets = append(sets, "avatar=?")
	}
	if patch.First != nil {
		args = append(args, *patch.First)
		sets = append(sets, "first=?")
	}
	if patch.Last != nil {
		args = append(args, *patch.Last)
		sets = append(sets, "last=?")
	}
	if patch.Twitter != nil {
		args = append(args, *patch.Twitter)
		sets = append(sets, "twitter=?")
	}
	if patch.Favorite != nil {
		args = append(args, *patch.Favorite)
		sets = append(sets, "favorite=?")
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id=?"
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("updating contact %s: %w", id, err)
		}
	}

	// RowsAffected is 0 for matched rows whose values did not change, so existence is
	// decided by reading the row back.
	return s.FindByID(ctx, id)
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	result, err := s.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return errors.Join(
		s.insert.Close(),
		s.selectWhereId.Close(),
		s.deleteWhereId.Close(),
		s.db.Close(),
	)
}
