package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/domain"
)

func strPtr(s string) *string { return &s }

func seedContacts(t *testing.T, s *ContactStore) (ada, grace, alan domain.Contact) {
	t.Helper()
	ctx := context.Background()

	ada = domain.Contact{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       strPtr("ada@example.com"),
		PhoneNumber: strPtr("+442079460958"),
	}
	require.NoError(t, s.CreateContact(ctx, &ada))

	grace = domain.Contact{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     strPtr("grace@example.com"),
	}
	require.NoError(t, s.CreateContact(ctx, &grace))

	alan = domain.Contact{
		FirstName:   "Alan",
		LastName:    "Turing",
		PhoneNumber: strPtr("+442079460959"),
	}
	require.NoError(t, s.CreateContact(ctx, &alan))
	return ada, grace, alan
}

func TestContactCRUD(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	ada, _, _ := seedContacts(t, s)

	got, err := s.GetContact(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)

	got.Company = strPtr("Analytical Engines Ltd")
	require.NoError(t, s.UpdateContact(ctx, got))

	got, err = s.GetContact(ctx, ada.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Analytical Engines Ltd", *got.Company)

	require.NoError(t, s.DeleteContact(ctx, ada.ID))
	_, err = s.GetContact(ctx, ada.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestSearchByNameCaseInsensitive(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	seedContacts(t, s)

	contacts, err := s.SearchByName(ctx, "lovelace")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ada", contacts[0].FirstName)

	// Matches first names too.
	contacts, err = s.SearchByName(ctx, "GRACE")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Hopper", contacts[0].LastName)
}

func TestListByNameOrder(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	seedContacts(t, s)

	contacts, err := s.ListByName(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, "Hopper", contacts[0].LastName)
	assert.Equal(t, "Lovelace", contacts[1].LastName)
	assert.Equal(t, "Turing", contacts[2].LastName)
}

func TestContactPresenceFilters(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	seedContacts(t, s)

	withEmail, err := s.WithEmail(ctx)
	require.NoError(t, err)
	require.Len(t, withEmail, 2)
	assert.Equal(t, "Hopper", withEmail[0].LastName)

	withPhone, err := s.WithPhoneNumber(ctx)
	require.NoError(t, err)
	require.Len(t, withPhone, 2)
	assert.Equal(t, "Lovelace", withPhone[0].LastName)
}

func TestLabels(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	ada, grace, _ := seedContacts(t, s)

	vip := domain.Label{Name: "VIP"}
	require.NoError(t, s.CreateLabel(ctx, &vip))
	require.NoError(t, s.AssignLabel(ctx, ada.ID, vip.ID))
	require.NoError(t, s.AssignLabel(ctx, grace.ID, vip.ID))

	// Re-assigning the same pair violates the unique link.
	assert.Error(t, s.AssignLabel(ctx, ada.ID, vip.ID))

	labels, err := s.SearchLabelsByName(ctx, "vi")
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "VIP", labels[0].Name)

	contacts, err := s.ContactsByLabel(ctx, vip.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Hopper", contacts[0].LastName)
	assert.Equal(t, "Lovelace", contacts[1].LastName)
}

func TestCustomFields(t *testing.T) {
	s := NewContactStore(testDB(t))
	ctx := context.Background()

	ada, _, _ := seedContacts(t, s)

	field := domain.CustomField{ContactID: ada.ID, FieldName: "Favorite Language", FieldValue: "Ada"}
	require.NoError(t, s.AddCustomField(ctx, &field))

	fields, err := s.SearchCustomFields(ctx, "favorite")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Ada", fields[0].FieldValue)

	// Deleting the contact removes its custom fields as well.
	require.NoError(t, s.DeleteContact(ctx, ada.ID))
	fields, err = s.SearchCustomFields(ctx, "favorite")
	require.NoError(t, err)
	assert.Empty(t, fields)
}
