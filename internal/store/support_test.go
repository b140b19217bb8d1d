package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"supportdesk/internal/database"
	"supportdesk/internal/domain"
	"supportdesk/internal/validation"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        ":memory:",
		Conn:       sqlDB,
	}, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func basicRequest(email string) *domain.Request {
	return &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierBasic,
			Subject:  "Login problem",
			FullName: "John Doe",
			Email:    email,
			Message:  "I cannot log in.",
		},
	}
}

func fullRequest(email string) *domain.Request {
	req := basicRequest(email)
	req.Tier = domain.TierFull
	req.Phone = &domain.PhoneExtension{PhoneNumber: "+12025550109"}
	req.Location = &domain.LocationExtension{Country: "US", IPAddress: "203.0.113.7"}
	req.Full = &domain.FullExtension{
		ContactReason:          domain.ReasonSupport,
		PreferredContactMethod: domain.MethodEmail,
	}
	return req
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	req := basicRequest("jane@example.com")
	req.FullName = "Jane Do3"

	err := s.Create(ctx, req)
	require.Error(t, err)
	var fieldErrs validation.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "full_name")

	// Nothing was persisted.
	reqs, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestPolymorphicReadBack(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	basic := basicRequest("basic@example.com")
	require.NoError(t, s.Create(ctx, basic))

	phone := basicRequest("phone@example.com")
	phone.Tier = domain.TierPhone
	phone.Phone = &domain.PhoneExtension{PhoneNumber: "+442079460958"}
	require.NoError(t, s.Create(ctx, phone))

	location := basicRequest("location@example.com")
	location.Tier = domain.TierLocation
	location.Phone = &domain.PhoneExtension{PhoneNumber: "+12025550109"}
	location.Location = &domain.LocationExtension{Country: "GB", IPAddress: "2001:db8::1"}
	require.NoError(t, s.Create(ctx, location))

	full := fullRequest("full@example.com")
	require.NoError(t, s.Create(ctx, full))

	// The unified listing returns each record as its concrete tier.
	reqs, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, reqs, 4)

	byEmail := map[string]domain.Request{}
	for _, r := range reqs {
		byEmail[r.Email] = r
	}

	b := byEmail["basic@example.com"]
	assert.Equal(t, domain.TierBasic, b.Tier)
	assert.Nil(t, b.Phone)
	assert.Nil(t, b.Location)
	assert.Nil(t, b.Full)

	p := byEmail["phone@example.com"]
	assert.Equal(t, domain.TierPhone, p.Tier)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+442079460958", p.Phone.PhoneNumber)
	assert.Nil(t, p.Location)

	l := byEmail["location@example.com"]
	assert.Equal(t, domain.TierLocation, l.Tier)
	require.NotNil(t, l.Phone)
	require.NotNil(t, l.Location)
	assert.Equal(t, "GB", l.Location.Country)
	assert.Nil(t, l.Full)

	f := byEmail["full@example.com"]
	assert.Equal(t, domain.TierFull, f.Tier)
	require.NotNil(t, f.Phone)
	require.NotNil(t, f.Location)
	require.NotNil(t, f.Full)
	assert.Equal(t, domain.ReasonSupport, f.Full.ContactReason)
}

func TestGetAssemblesConcreteTier(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	full := fullRequest("full@example.com")
	require.NoError(t, s.Create(ctx, full))

	got, err := s.Get(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFull, got.Tier)
	require.NotNil(t, got.Full)
	assert.Equal(t, domain.MethodEmail, got.Full.PreferredContactMethod)

	_, err = s.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSearchAndFilter(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, basicRequest("alice@example.com")))
	bob := basicRequest("bob@example.com")
	bob.Subject = "Refund request"
	require.NoError(t, s.Create(ctx, bob))
	require.NoError(t, s.Create(ctx, fullRequest("carol@example.com")))

	// Free-text search hits subject, full name, and email.
	reqs, err := s.List(ctx, ListFilter{Search: "Refund"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "bob@example.com", reqs[0].Email)

	reqs, err = s.List(ctx, ListFilter{Search: "alice"})
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	// Tier filter.
	reqs, err = s.ListTier(ctx, domain.TierFull, ListFilter{})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "carol@example.com", reqs[0].Email)

	// Timestamp filter excludes everything created so far.
	future := time.Now().UTC().Add(time.Hour)
	reqs, err = s.List(ctx, ListFilter{CreatedAfter: &future})
	require.NoError(t, err)
	assert.Empty(t, reqs)

	// Pagination.
	reqs, err = s.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestEmailContactedBefore(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	// No prior records at all.
	before, err := s.EmailContactedBefore(ctx, "repeat@example.com")
	require.NoError(t, err)
	assert.False(t, before)

	require.NoError(t, s.Create(ctx, fullRequest("repeat@example.com")))

	before, err = s.EmailContactedBefore(ctx, "repeat@example.com")
	require.NoError(t, err)
	assert.True(t, before)

	// Only full-tier records count as prior contact.
	require.NoError(t, s.Create(ctx, basicRequest("basic-only@example.com")))
	before, err = s.EmailContactedBefore(ctx, "basic-only@example.com")
	require.NoError(t, err)
	assert.False(t, before)
}

func TestTimestampMaintenance(t *testing.T) {
	s := NewSupportStore(testDB(t))
	ctx := context.Background()

	req := fullRequest("stamp@example.com")
	require.NoError(t, s.Create(ctx, req))

	first, err := s.Get(ctx, req.ID)
	require.NoError(t, err)
	second, err := s.Get(ctx, req.ID)
	require.NoError(t, err)

	// Re-reading without mutation changes nothing.
	assert.Equal(t, first.SupportRequest, second.SupportRequest)
	assert.Equal(t, first.ModifiedAt, second.ModifiedAt)

	// Updating refreshes ModifiedAt and leaves CreatedAt alone.
	time.Sleep(20 * time.Millisecond)
	first.Subject = "Amended subject"
	require.NoError(t, s.Update(ctx, first))

	updated, err := s.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amended subject", updated.Subject)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.ModifiedAt.After(second.ModifiedAt))
}
