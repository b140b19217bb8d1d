package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"supportdesk/internal/domain"
)

// ErrContactNotFound is returned when no address-book entry matches.
var ErrContactNotFound = errors.New("contact not found")

// ContactStore persists the address book: contacts, labels, and custom
// fields. It is independent of the support request tables.
type ContactStore struct {
	db *gorm.DB
}

// NewContactStore creates a contact store over the given connection.
func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

// CreateContact inserts a new address-book entry.
func (s *ContactStore) CreateContact(ctx context.Context, c *domain.Contact) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact loads one contact by ID.
func (s *ContactStore) GetContact(ctx context.Context, id uint) (*domain.Contact, error) {
	var c domain.Contact
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	return &c, nil
}

// UpdateContact rewrites an existing contact.
func (s *ContactStore) UpdateContact(ctx context.Context, c *domain.Contact) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

// DeleteContact removes a contact and its dependent rows.
func (s *ContactStore) DeleteContact(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&domain.CustomField{}).Error; err != nil {
			return fmt.Errorf("failed to delete custom fields: %w", err)
		}
		if err := tx.Where("contact_id = ?", id).Delete(&domain.ContactLabel{}).Error; err != nil {
			return fmt.Errorf("failed to delete label links: %w", err)
		}
		if err := tx.Delete(&domain.Contact{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}
		return nil
	})
}

// SearchByName finds contacts whose first or last name contains name,
// case-insensitively, ordered by last then first name.
func (s *ContactStore) SearchByName(ctx context.Context, name string) ([]domain.Contact, error) {
	like := "%" + name + "%"
	var contacts []domain.Contact
	err := s.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?)", like, like).
		Order("last_name, first_name").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return contacts, nil
}

// ListByName returns all contacts ordered by last then first name.
func (s *ContactStore) ListByName(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	if err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// WithEmail returns contacts that have an email address.
func (s *ContactStore) WithEmail(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := s.db.WithContext(ctx).
		Where("email IS NOT NULL AND email <> ''").
		Order("last_name, first_name").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts with email: %w", err)
	}
	return contacts, nil
}

// WithPhoneNumber returns contacts that have a phone number.
func (s *ContactStore) WithPhoneNumber(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := s.db.WithContext(ctx).
		Where("phone_number IS NOT NULL AND phone_number <> ''").
		Order("last_name, first_name").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts with phone: %w", err)
	}
	return contacts, nil
}

// CreateLabel inserts a new label.
func (s *ContactStore) CreateLabel(ctx context.Context, l *domain.Label) error {
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create label: %w", err)
	}
	return nil
}

// SearchLabelsByName finds labels whose name contains name, ordered by name.
func (s *ContactStore) SearchLabelsByName(ctx context.Context, name string) ([]domain.Label, error) {
	var labels []domain.Label
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%").
		Order("name").
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search labels: %w", err)
	}
	return labels, nil
}

// AssignLabel links a contact to a label.
func (s *ContactStore) AssignLabel(ctx context.Context, contactID, labelID uint) error {
	link := domain.ContactLabel{ContactID: contactID, LabelID: labelID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("failed to assign label: %w", err)
	}
	return nil
}

// ContactsByLabel lists the contacts carrying the given label.
func (s *ContactStore) ContactsByLabel(ctx context.Context, labelID uint) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := s.db.WithContext(ctx).
		Joins("JOIN contact_label_links ON contact_label_links.contact_id = contacts.id").
		Where("contact_label_links.label_id = ?", labelID).
		Order("last_name, first_name").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts by label: %w", err)
	}
	return contacts, nil
}

// AddCustomField attaches a user-defined field to a contact.
func (s *ContactStore) AddCustomField(ctx context.Context, f *domain.CustomField) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to add custom field: %w", err)
	}
	return nil
}

// SearchCustomFields finds custom fields whose name contains fieldName,
// ordered by field name.
func (s *ContactStore) SearchCustomFields(ctx context.Context, fieldName string) ([]domain.CustomField, error) {
	var fields []domain.CustomField
	err := s.db.WithContext(ctx).
		Where("LOWER(field_name) LIKE LOWER(?)", "%"+fieldName+"%").
		Order("field_name").
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search custom fields: %w", err)
	}
	return fields, nil
}
