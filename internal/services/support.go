package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"supportdesk/internal/domain"
	"supportdesk/internal/geo"
	"supportdesk/internal/metrics"
	"supportdesk/internal/store"
	"supportdesk/internal/validation"
)

// SupportStore is the persistence surface the support service needs.
// *store.SupportStore satisfies it; tests substitute an in-memory version.
type SupportStore interface {
	Create(ctx context.Context, req *domain.Request) error
	Update(ctx context.Context, req *domain.Request) error
	Get(ctx context.Context, id uint) (*domain.Request, error)
	List(ctx context.Context, f store.ListFilter) ([]domain.Request, error)
	EmailContactedBefore(ctx context.Context, email string) (bool, error)
}

// ConfirmationMailer dispatches the post-save confirmation. The returned
// bool reports whether a message was actually dispatched (configuration
// gates cause silent skips).
type ConfirmationMailer interface {
	SendConfirmation(req *domain.Request) (bool, error)
}

// SupportService implements the submission operations for all four request
// tiers. The full tier's side effects run as one explicit pipeline inside
// SubmitFull instead of hiding behind persistence hooks, so ordering and
// applicability are visible in one place.
type SupportService struct {
	store    SupportStore
	mailer   ConfirmationMailer
	resolver geo.Resolver
}

// NewSupportService creates a new support service
func NewSupportService(st SupportStore, mailer ConfirmationMailer, resolver geo.Resolver) *SupportService {
	if resolver == nil {
		resolver = geo.Nop{}
	}
	return &SupportService{store: st, mailer: mailer, resolver: resolver}
}

// BasicSubmission carries the editable fields of a basic request.
type BasicSubmission struct {
	Subject  string `json:"subject"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

// PhoneSubmission adds the phone number.
type PhoneSubmission struct {
	BasicSubmission
	PhoneNumber string `json:"phone_number"`
}

// LocationSubmission adds the optional country and IP address. IPAddress is
// normally supplied by the transport from the connection's remote address.
type LocationSubmission struct {
	PhoneSubmission
	Country   string `json:"country"`
	IPAddress string `json:"ip_address"`
}

// FullSubmission adds the categorization enums.
type FullSubmission struct {
	LocationSubmission
	ContactReason          string `json:"contact_reason"`
	PreferredContactMethod string `json:"preferred_contact_method"`
}

// SubmitBasic validates and persists a basic request.
func (s *SupportService) SubmitBasic(ctx context.Context, sub BasicSubmission) (*domain.Request, error) {
	sub.normalize()
	log.Printf("[SUPPORT] Basic submission: name=%s, email=%s", sub.FullName, sub.Email)

	req := &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierBasic,
			Subject:  sub.Subject,
			FullName: sub.FullName,
			Email:    sub.Email,
			Message:  sub.Message,
		},
	}
	if err := s.create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitPhone validates and persists a phone-tier request.
func (s *SupportService) SubmitPhone(ctx context.Context, sub PhoneSubmission) (*domain.Request, error) {
	sub.normalize()
	log.Printf("[SUPPORT] Phone submission: name=%s, email=%s", sub.FullName, sub.Email)

	req := &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierPhone,
			Subject:  sub.Subject,
			FullName: sub.FullName,
			Email:    sub.Email,
			Message:  sub.Message,
		},
		Phone: &domain.PhoneExtension{PhoneNumber: sub.PhoneNumber},
	}
	if err := s.create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitLocation validates, geo-enriches, and persists a location-tier
// request.
func (s *SupportService) SubmitLocation(ctx context.Context, sub LocationSubmission) (*domain.Request, error) {
	sub.normalize()
	log.Printf("[SUPPORT] Location submission: name=%s, email=%s", sub.FullName, sub.Email)

	req := &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierLocation,
			Subject:  sub.Subject,
			FullName: sub.FullName,
			Email:    sub.Email,
			Message:  sub.Message,
		},
		Phone:    &domain.PhoneExtension{PhoneNumber: sub.PhoneNumber},
		Location: &domain.LocationExtension{Country: sub.Country, IPAddress: sub.IPAddress},
	}
	s.enrichCountry(req)
	if err := s.create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitFull runs the full-tier pipeline: validate, geo-enrich, compute the
// dedup flag against previously stored full-tier records, attach the
// authenticated caller if one is on the context, persist, and finally send
// the confirmation email. A failed confirmation send is returned to the
// caller but does not roll back the persisted record.
func (s *SupportService) SubmitFull(ctx context.Context, sub FullSubmission) (*domain.Request, error) {
	sub.normalize()
	log.Printf("[SUPPORT] Full submission: name=%s, email=%s", sub.FullName, sub.Email)

	req := &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierFull,
			Subject:  sub.Subject,
			FullName: sub.FullName,
			Email:    sub.Email,
			Message:  sub.Message,
		},
		Phone:    &domain.PhoneExtension{PhoneNumber: sub.PhoneNumber},
		Location: &domain.LocationExtension{Country: sub.Country, IPAddress: sub.IPAddress},
		Full: &domain.FullExtension{
			ContactReason:          domain.ContactReason(sub.ContactReason),
			PreferredContactMethod: domain.ContactMethod(sub.PreferredContactMethod),
		},
	}

	// Reject before touching storage so the dedup read never runs for an
	// invalid submission.
	if errs := validation.Check(validationFields(req)); errs != nil {
		log.Printf("[SUPPORT] Full submission rejected: %v", errs)
		return nil, errs
	}

	s.enrichCountry(req)

	// Dedup flag: reads the set of already-persisted full-tier records.
	// The read and the write below are not one transaction; two
	// simultaneous first contacts from the same email can both observe
	// false. Accepted behavior, not to be strengthened here.
	contactedBefore, err := s.store.EmailContactedBefore(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	req.Full.ContactedBefore = contactedBefore

	if caller, ok := CallerFromContext(ctx); ok {
		req.Full.UserID = &caller.ID
		log.Printf("[SUPPORT] Attached user id=%d to submission", caller.ID)
	}

	if err := s.create(ctx, req); err != nil {
		return nil, err
	}

	// Fires only for the first write of a new record; updates go through
	// Update and never send.
	sent, err := s.mailer.SendConfirmation(req)
	switch {
	case err != nil:
		metrics.RecordConfirmationEmail("error")
		log.Printf("[SUPPORT] Confirmation email failed for request id=%d: %v", req.ID, err)
		return req, fmt.Errorf("request %d saved but confirmation email failed: %w", req.ID, err)
	case sent:
		metrics.RecordConfirmationEmail("sent")
		log.Printf("[SUPPORT] Confirmation email sent for request id=%d", req.ID)
	default:
		metrics.RecordConfirmationEmail("skipped")
	}

	return req, nil
}

// Update rewrites an existing record. Updates never trigger the
// confirmation email.
func (s *SupportService) Update(ctx context.Context, req *domain.Request) error {
	log.Printf("[SUPPORT] Update request id=%d", req.ID)
	return s.store.Update(ctx, req)
}

// Get returns one record assembled to its concrete tier.
func (s *SupportService) Get(ctx context.Context, id uint) (*domain.Request, error) {
	return s.store.Get(ctx, id)
}

// List queries the unified collection for the administrative surface.
func (s *SupportService) List(ctx context.Context, f store.ListFilter) ([]domain.Request, error) {
	return s.store.List(ctx, f)
}

func (s *SupportService) create(ctx context.Context, req *domain.Request) error {
	if err := s.store.Create(ctx, req); err != nil {
		if _, ok := err.(validation.Errors); ok {
			log.Printf("[SUPPORT] Submission rejected: %v", err)
			return err
		}
		log.Printf("[SUPPORT] Submission failed: %v", err)
		return err
	}
	metrics.RecordSupportSubmission(string(req.Tier))
	log.Printf("[SUPPORT] Submission saved: id=%d, tier=%s", req.ID, req.Tier)
	return nil
}

// enrichCountry fills in the country from the submitter's IP when the
// caller did not supply one. Failures are logged and ignored; the country
// is an annotation, never a requirement.
func (s *SupportService) enrichCountry(req *domain.Request) {
	if req.Location == nil || req.Location.Country != "" || req.Location.IPAddress == "" {
		return
	}
	code, err := s.resolver.CountryCode(req.Location.IPAddress)
	if err != nil {
		metrics.RecordGeoLookup(false)
		log.Printf("[SUPPORT] Warning: failed to resolve country for request: %v", err)
		return
	}
	if code != "" {
		metrics.RecordGeoLookup(true)
		req.Location.Country = code
	}
}

func (b *BasicSubmission) normalize() {
	b.Subject = strings.TrimSpace(b.Subject)
	b.FullName = strings.TrimSpace(b.FullName)
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
	b.Message = strings.TrimSpace(b.Message)
}

func (p *PhoneSubmission) normalize() {
	p.BasicSubmission.normalize()
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
}

func (l *LocationSubmission) normalize() {
	l.PhoneSubmission.normalize()
	l.Country = strings.ToUpper(strings.TrimSpace(l.Country))
	l.IPAddress = strings.TrimSpace(l.IPAddress)
}

func (f *FullSubmission) normalize() {
	f.LocationSubmission.normalize()
	f.ContactReason = strings.TrimSpace(f.ContactReason)
	f.PreferredContactMethod = strings.TrimSpace(f.PreferredContactMethod)
}

// validationFields flattens an assembled record for the shared rule set.
func validationFields(req *domain.Request) validation.Fields {
	f := validation.Fields{
		Tier:     req.Tier,
		Subject:  req.Subject,
		FullName: req.FullName,
		Email:    req.Email,
		Message:  req.Message,
	}
	if req.Phone != nil {
		f.PhoneNumber = req.Phone.PhoneNumber
	}
	if req.Location != nil {
		f.Country = req.Location.Country
		f.IPAddress = req.Location.IPAddress
	}
	if req.Full != nil {
		f.ContactReason = string(req.Full.ContactReason)
		f.PreferredContactMethod = string(req.Full.PreferredContactMethod)
	}
	return f
}
