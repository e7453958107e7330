// Package store defines the persistence contract for contacts. The implementations live in
// the subpackages mysql, mongo and memory.
package store

import (
	"context"
	"errors"
	"strings"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// ErrNotFound is returned when no contact with the requested id exists. Ids that are
// malformed for a backend are reported the same way.
var ErrNotFound = errors.New("store: contact not found")

// Store is the document store contract the contact service is written against.
type Store interface {
	// Insert creates a contact. The store assigns Id and CreatedAt; Favorite starts false.
	Insert(ctx context.Context, fields model.Fields) (*model.Contact, error)
	// FindByID returns the contact with the given id.
	FindByID(ctx context.Context, id string) (*model.Contact, error)
	// FindMany returns the contacts matching the filter. A nil filter matches all contacts.
	// The result is never nil.
	FindMany(ctx context.Context, filter *Filter) ([]model.Contact, error)
	// UpdateByID applies the patch and returns the contact after the update.
	UpdateByID(ctx context.Context, id string, patch model.Patch) (*model.Contact, error)
	// DeleteByID removes the contact.
	DeleteByID(ctx context.Context, id string) error
	// Close releases the connection to the backend.
	Close(ctx context.Context) error
}

// Filter selects the contacts whose first name, last name or twitter handle contains Query.
// The comparison ignores case and treats Query as a literal string. An empty Query matches
// every contact.
type Filter struct {
	Query string
}

// Matches reports whether c satisfies the filter.
func (f *Filter) Matches(c *model.Contact) bool {
	if f == nil {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(c.First), q) ||
		strings.Contains(strings.ToLower(c.Last), q) ||
		strings.Contains(strings.ToLower(c.Twitter), q)
}
