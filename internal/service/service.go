package service

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// ErrNotFound is returned when the referenced contact does not exist.
var ErrNotFound = errors.New("contact not found")

// StorageError reports that the store could not carry out an operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ContactService implements the operations on contacts on top of a store. All mutations are
// persisted before the method returns.
type ContactService struct {
	store store.Store
}

// New returns a service using the given store.
func New(s store.Store) *ContactService {
	return &ContactService{store: s}
}

// translate maps store errors onto the errors of this package.
func translate(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}

// ListAll returns all contacts in the store's default order.
func (s *ContactService) ListAll(ctx context.Context) ([]model.Contact, error) {
	contacts, err := s.store.FindMany(ctx, nil)
	if err != nil {
		return nil, translate("list contacts", err)
	}
	return contacts, nil
}

// Search returns the contacts whose first name, last name or twitter handle contains query,
// ignoring case. The empty query matches every contact.
func (s *ContactService) Search(ctx context.Context, query string) ([]model.Contact, error) {
	contacts, err := s.store.FindMany(ctx, &store.Filter{Query: query})
	if err != nil {
		return nil, translate("search contacts", err)
	}
	return contacts, nil
}

// GetByID returns the contact with the given id.
func (s *ContactService) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate("get contact", err)
	}
	return c, nil
}

// Create stores a new contact. Id and creation time are assigned by the store.
func (s *ContactService) Create(ctx context.Context, fields model.Fields) (*model.Contact, error) {
	c, err := s.store.Insert(ctx, fields)
	if err != nil {
		return nil, translate("create contact", err)
	}
	return c, nil
}

// Update replaces avatar, names and twitter handle of the contact. Favorite and creation
// time are left alone.
func (s *ContactService) Update(ctx context.Context, id string, fields model.Fields) (*model.Contact, error) {
	c, err := s.store.UpdateByID(ctx, id, model.ReplaceFields(fields))
	if err != nil {
		return nil, translate("update contact", err)
	}
	return c, nil
}

// DeleteByID removes the contact for good.
func (s *ContactService) DeleteByID(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return translate("delete contact", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated contact.
//
// The flag is read and written in two steps without a lock, so two concurrent toggles of the
// same contact can cancel out to a single one.
func (s *ContactService) ToggleFavorite(ctx context.Context, id string) (*model.Contact, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate("toggle favorite", err)
	}
	favorite := !c.Favorite
	c, err = s.store.UpdateByID(ctx, id, model.Patch{Favorite: &favorite})
	if err != nil {
		return nil, translate("toggle favorite", err)
	}
	return c, nil
}
