package services

import (
	"context"
	"log"
	"strings"

	"supportdesk/internal/domain"
	"supportdesk/internal/store"
)

// ContactBookService manages the address book. It is a plain CRUD surface,
// unrelated to the support request pipeline.
type ContactBookService struct {
	store *store.ContactStore
}

// NewContactBookService creates a new contact book service
func NewContactBookService(st *store.ContactStore) *ContactBookService {
	return &ContactBookService{store: st}
}

// Create inserts a new contact.
func (s *ContactBookService) Create(ctx context.Context, c *domain.Contact) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	log.Printf("[CONTACTS] Creating contact: %s %s", c.FirstName, c.LastName)
	return s.store.CreateContact(ctx, c)
}

// Get returns one contact by ID.
func (s *ContactBookService) Get(ctx context.Context, id uint) (*domain.Contact, error) {
	return s.store.GetContact(ctx, id)
}

// Update rewrites an existing contact.
func (s *ContactBookService) Update(ctx context.Context, c *domain.Contact) error {
	log.Printf("[CONTACTS] Updating contact id=%d", c.ID)
	return s.store.UpdateContact(ctx, c)
}

// Delete removes a contact.
func (s *ContactBookService) Delete(ctx context.Context, id uint) error {
	log.Printf("[CONTACTS] Deleting contact id=%d", id)
	return s.store.DeleteContact(ctx, id)
}

// List returns contacts ordered by name, optionally filtered by a name
// search or by having an email or phone number.
func (s *ContactBookService) List(ctx context.Context, search string, withEmail, withPhone bool) ([]domain.Contact, error) {
	switch {
	case search != "":
		return s.store.SearchByName(ctx, search)
	case withEmail:
		return s.store.WithEmail(ctx)
	case withPhone:
		return s.store.WithPhoneNumber(ctx)
	default:
		return s.store.ListByName(ctx)
	}
}

// CreateLabel inserts a new label.
func (s *ContactBookService) CreateLabel(ctx context.Context, l *domain.Label) error {
	l.Name = strings.TrimSpace(l.Name)
	return s.store.CreateLabel(ctx, l)
}

// SearchLabels finds labels by name; an empty query matches all.
func (s *ContactBookService) SearchLabels(ctx context.Context, name string) ([]domain.Label, error) {
	return s.store.SearchLabelsByName(ctx, name)
}

// AssignLabel links a contact to a label.
func (s *ContactBookService) AssignLabel(ctx context.Context, contactID, labelID uint) error {
	return s.store.AssignLabel(ctx, contactID, labelID)
}

// ContactsByLabel lists the contacts carrying a label.
func (s *ContactBookService) ContactsByLabel(ctx context.Context, labelID uint) ([]domain.Contact, error) {
	return s.store.ContactsByLabel(ctx, labelID)
}

// AddCustomField attaches a user-defined field to a contact.
func (s *ContactBookService) AddCustomField(ctx context.Context, f *domain.CustomField) error {
	return s.store.AddCustomField(ctx, f)
}
