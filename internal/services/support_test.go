package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/domain"
	"supportdesk/internal/store"
	"supportdesk/internal/validation"
)

// fakeStore keeps assembled records in memory and applies the same
// validation gate the real store does.
type fakeStore struct {
	records []*domain.Request
	nextID  uint
}

func (f *fakeStore) Create(_ context.Context, req *domain.Request) error {
	if errs := validation.Check(validationFields(req)); errs != nil {
		return errs
	}
	f.nextID++
	req.ID = f.nextID
	clone := *req
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeStore) Update(_ context.Context, req *domain.Request) error {
	for i, r := range f.records {
		if r.ID == req.ID {
			clone := *req
			f.records[i] = &clone
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) Get(_ context.Context, id uint) (*domain.Request, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) List(_ context.Context, _ store.ListFilter) ([]domain.Request, error) {
	out := make([]domain.Request, len(f.records))
	for i, r := range f.records {
		out[i] = *r
	}
	return out, nil
}

func (f *fakeStore) EmailContactedBefore(_ context.Context, email string) (bool, error) {
	for _, r := range f.records {
		if r.Tier == domain.TierFull && r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// recordingMailer captures every dispatch request.
type recordingMailer struct {
	calls []*domain.Request
	sent  bool
	err   error
}

func (m *recordingMailer) SendConfirmation(req *domain.Request) (bool, error) {
	m.calls = append(m.calls, req)
	return m.sent, m.err
}

// stubResolver resolves every IP to a fixed country code.
type stubResolver struct {
	code string
	err  error
}

func (r stubResolver) CountryCode(string) (string, error) {
	return r.code, r.err
}

func validFullSubmission(email string) FullSubmission {
	return FullSubmission{
		LocationSubmission: LocationSubmission{
			PhoneSubmission: PhoneSubmission{
				BasicSubmission: BasicSubmission{
					Subject:  "Billing question",
					FullName: "John Doe",
					Email:    email,
					Message:  "I have a question about my invoice.",
				},
				PhoneNumber: "+12025550109",
			},
			IPAddress: "203.0.113.7",
		},
		ContactReason:          "support",
		PreferredContactMethod: "email",
	}
}

func TestSubmitBasicNormalizes(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, nil)

	req, err := svc.SubmitBasic(context.Background(), BasicSubmission{
		Subject:  "  Billing question ",
		FullName: " John Doe ",
		Email:    " John@Example.COM ",
		Message:  " Help me. ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierBasic, req.Tier)
	assert.Equal(t, "Billing question", req.Subject)
	assert.Equal(t, "john@example.com", req.Email)
	assert.NotZero(t, req.ID)
}

func TestSubmitFullPipeline(t *testing.T) {
	st := &fakeStore{}
	mailer := &recordingMailer{sent: true}
	svc := NewSupportService(st, mailer, stubResolver{code: "DE"})

	req, err := svc.SubmitFull(context.Background(), validFullSubmission("first@example.com"))
	require.NoError(t, err)
	require.NotNil(t, req.Full)

	// First contact from this email: dedup flag stays off.
	assert.False(t, req.Full.ContactedBefore)
	// Country was resolved from the IP.
	assert.Equal(t, "DE", req.Location.Country)
	// Anonymous submission: no user attached.
	assert.Nil(t, req.Full.UserID)
	// Exactly one confirmation for the persisted record.
	require.Len(t, mailer.calls, 1)
	assert.Equal(t, req.ID, mailer.calls[0].ID)

	// Second submission from the same email observes the first.
	again, err := svc.SubmitFull(context.Background(), validFullSubmission("first@example.com"))
	require.NoError(t, err)
	assert.True(t, again.Full.ContactedBefore)
	assert.Len(t, mailer.calls, 2)
}

func TestSubmitFullDedupIgnoresOtherEmails(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, nil)

	_, err := svc.SubmitFull(context.Background(), validFullSubmission("a@example.com"))
	require.NoError(t, err)

	req, err := svc.SubmitFull(context.Background(), validFullSubmission("b@example.com"))
	require.NoError(t, err)
	assert.False(t, req.Full.ContactedBefore)
}

func TestSubmitFullAttachesCaller(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, nil)

	user := &domain.User{Username: "staff"}
	user.ID = 42
	ctx := WithCaller(context.Background(), user)

	req, err := svc.SubmitFull(ctx, validFullSubmission("staff@example.com"))
	require.NoError(t, err)
	require.NotNil(t, req.Full.UserID)
	assert.Equal(t, uint(42), *req.Full.UserID)
}

func TestSubmitFullValidationStopsPipeline(t *testing.T) {
	st := &fakeStore{}
	mailer := &recordingMailer{}
	svc := NewSupportService(st, mailer, nil)

	sub := validFullSubmission("bad@example.com")
	sub.FullName = "John--Doe"

	_, err := svc.SubmitFull(context.Background(), sub)
	require.Error(t, err)
	var fieldErrs validation.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "full_name")

	// The store was never touched and no mail was requested.
	assert.Empty(t, st.records)
	assert.Empty(t, mailer.calls)
}

func TestSubmitFullMailerFailureKeepsRecord(t *testing.T) {
	st := &fakeStore{}
	mailer := &recordingMailer{err: errors.New("smtp unreachable")}
	svc := NewSupportService(st, mailer, nil)

	req, err := svc.SubmitFull(context.Background(), validFullSubmission("kept@example.com"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "confirmation email failed")

	// The record survives the failed send and is returned to the caller.
	require.NotNil(t, req)
	got, getErr := svc.Get(context.Background(), req.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "kept@example.com", got.Email)
}

func TestUpdateNeverSendsConfirmation(t *testing.T) {
	st := &fakeStore{}
	mailer := &recordingMailer{sent: true}
	svc := NewSupportService(st, mailer, nil)

	req, err := svc.SubmitFull(context.Background(), validFullSubmission("upd@example.com"))
	require.NoError(t, err)
	require.Len(t, mailer.calls, 1)

	req.Subject = "Amended subject"
	require.NoError(t, svc.Update(context.Background(), req))
	assert.Len(t, mailer.calls, 1)
}

func TestEnrichCountryRespectsExplicitValue(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, stubResolver{code: "DE"})

	sub := validFullSubmission("explicit@example.com")
	sub.Country = "fr"

	req, err := svc.SubmitFull(context.Background(), sub)
	require.NoError(t, err)
	// Caller-supplied country wins; normalize uppercases it.
	assert.Equal(t, "FR", req.Location.Country)
}

func TestEnrichCountryFailureIsNonFatal(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, stubResolver{err: errors.New("database closed")})

	req, err := svc.SubmitFull(context.Background(), validFullSubmission("geo@example.com"))
	require.NoError(t, err)
	assert.Empty(t, req.Location.Country)
}

func TestSubmitLocationEnriches(t *testing.T) {
	st := &fakeStore{}
	svc := NewSupportService(st, &recordingMailer{}, stubResolver{code: "GB"})

	req, err := svc.SubmitLocation(context.Background(), LocationSubmission{
		PhoneSubmission: PhoneSubmission{
			BasicSubmission: BasicSubmission{
				Subject:  "Shipping",
				FullName: "Jane Doe",
				Email:    "jane@example.com",
				Message:  "Where is my parcel?",
			},
			PhoneNumber: "+442079460958",
		},
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierLocation, req.Tier)
	assert.Equal(t, "GB", req.Location.Country)
	assert.Nil(t, req.Full)
}
