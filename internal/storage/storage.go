// Package storage is the persistence adapter for the phonebook. It owns the
// SQL for the contacts and users tables; everything above it works with the
// model types only.
package storage

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/phonebookapi/phonebook-service/internal/config"
	"gitlab.com/phonebookapi/phonebook-service/internal/model"
)

// Store wraps the database handle together with the prepared statements for
// the hot code paths. Absent rows are reported as nil results, never as
// errors; a non-nil error always means the database itself failed.
type Store struct {
	db *sqlx.DB

	insert        *sqlx.NamedStmt
	selectWhereId *sqlx.Stmt
	updateWhereId *sqlx.Stmt
	deleteWhereId *sqlx.Stmt
}

// CreateDatabase opens a database connection with the parameters from the
// given configuration.
func CreateDatabase(cfg config.Config) *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// New initializes the sqlx wrapper around the specified sql database and
// prepares all statements. The database argument can be a real database for
// production use or a mock database within unit tests.
func New(sqlDB *sql.DB) (*Store, error) {
	db := sqlx.NewDb(sqlDB, "mysql")
	s := &Store{db: db}

	// Prepared statements offer a significant speed increase if executed many times.
	var err error
	s.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (name, surname, phone, email)
		VALUES (:name, :surname, :phone, :email)
	`)
	if err != nil {
		return nil, err
	}
	s.selectWhereId, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}
	s.updateWhereId, err = db.Preparex(`
		UPDATE contacts SET name = ?, surname = ?, phone = ?, email = ? WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}
	s.deleteWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the database handle and its prepared statements.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertContact creates the contact on the database and returns the newly
// assigned id.
func (s *Store) InsertContact(contact model.Contact) (int64, error) {
	result, err := s.insert.Exec(&contact)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FindContactByID returns the contact with the given id, or nil if no such
// row exists.
func (s *Store) FindContactByID(id int64) (*model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectWhereId.Select(&contacts, id); err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// ListContacts returns up to limit contacts ordered by id, skipping the
// first offset rows. Asking beyond the end of the table yields a shorter or
// empty slice.
func (s *Store) ListContacts(limit int, offset int) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := s.db.Select(&contacts, `
		SELECT *
		FROM contacts
		ORDER BY id
		LIMIT ?
		OFFSET ?`, limit, offset)
	return contacts, err
}

// CountContacts returns the total number of rows on the contacts table.
func (s *Store) CountContacts() (int, error) {
	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM contacts`)
	return count, err
}

// UpdateContact replaces all mutable fields of the row with the given id.
// Whether the row exists is the caller's concern; updating an absent id is a
// silent no-op.
func (s *Store) UpdateContact(id int64, contact model.Contact) error {
	_, err := s.updateWhereId.Exec(contact.Name, contact.Surname, contact.Phone, contact.Email, id)
	return err
}

// DeleteContact removes the row with the given id. Deleting an absent id is
// a silent no-op.
func (s *Store) DeleteContact(id int64) error {
	_, err := s.deleteWhereId.Exec(id)
	return err
}

// FindUserByUsername returns the user with the given username, or nil if no
// such account exists.
func (s *Store) FindUserByUsername(username string) (*model.User, error) {
	var users []model.User
	if err := s.db.Select(&users, `SELECT * FROM users WHERE username = ?`, username); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// InsertUser creates a user account with an already hashed password and
// returns the newly assigned id.
func (s *Store) InsertUser(username string, hashedPassword string) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO users (username, hashed_password)
		VALUES (?, ?)`, username, hashedPassword)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
