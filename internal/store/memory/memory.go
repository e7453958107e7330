// Package memory is a Store that keeps contacts in a map. It backs DATABASE=memory and the
// tests of the packages above the store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// Store holds contacts in process memory. Ids are sequential numbers.
type Store struct {
	mu       sync.Mutex
	contacts map[string]model.Contact
	nextId   int64
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		contacts: make(map[string]model.Contact),
		now:      time.Now,
	}
}

func (s *Store) Insert(_ context.Context, fields model.Fields) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	c := model.Contact{
		Id:        strconv.FormatInt(s.nextId, 10),
		Avatar:    fields.Avatar,
		First:     fields.First,
		Last:      fields.Last,
		Twitter:   fields.Twitter,
		CreatedAt: s.now().UTC(),
	}
	s.contacts[c.Id] = c
	return &c, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

// FindMany returns the matching contacts in insertion order.
func (s *Store) FindMany(_ context.Context, filter *store.Filter) ([]model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := []model.Contact{}
	for _, c := range s.contacts {
		if filter.Matches(&c) {
			contacts = append(contacts, c)
		}
	}
	sort.Slice(contacts, func(i, j int) bool {
		a, _ := strconv.ParseInt(contacts[i].Id, 10, 64)
		b, _ := strconv.ParseInt(contacts[j].Id, 10, 64)
		return a < b
	})
	return contacts, nil
}

func (s *Store) UpdateByID(_ context.Context, id string, patch model.Patch) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&c)
	s.contacts[id] = c
	return &c, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}
