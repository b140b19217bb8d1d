package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"supportdesk/internal/domain"
	"supportdesk/internal/validation"
)

// ErrNotFound is returned when no record matches the requested ID.
var ErrNotFound = errors.New("support request not found")

// ListFilter narrows the administrative listing. Zero values mean
// "no constraint"; Search matches subject, full name, and email.
type ListFilter struct {
	Search         string
	Tier           domain.Tier
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
	Offset         int
	Limit          int
}

// SupportStore persists support requests as a base row plus per-tier
// extension rows sharing the base row's ID. The Tier column on the base
// row is the discriminator used to reassemble the concrete variant on read.
type SupportStore struct {
	db *gorm.DB
}

// NewSupportStore creates a support store over the given connection.
func NewSupportStore(db *gorm.DB) *SupportStore {
	return &SupportStore{db: db}
}

// Create writes the base row and the extension rows the record's tier
// carries, in one transaction. The shared field rules run here as well as
// at the submission boundary, so nothing syntactically invalid is ever
// persisted.
func (s *SupportStore) Create(ctx context.Context, req *domain.Request) error {
	if errs := validation.Check(fieldsOf(req)); errs != nil {
		return errs
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req.SupportRequest).Error; err != nil {
			return fmt.Errorf("failed to create support request: %w", err)
		}
		return createExtensions(tx, req)
	})
}

// Update rewrites the base row and extension rows of an existing record.
// The modification timestamp is refreshed by the model hook; CreatedAt is
// left untouched.
func (s *SupportStore) Update(ctx context.Context, req *domain.Request) error {
	if errs := validation.Check(fieldsOf(req)); errs != nil {
		return errs
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&req.SupportRequest).Error; err != nil {
			return fmt.Errorf("failed to update support request: %w", err)
		}
		if req.Phone != nil {
			if err := tx.Save(req.Phone).Error; err != nil {
				return fmt.Errorf("failed to update phone extension: %w", err)
			}
		}
		if req.Location != nil {
			if err := tx.Save(req.Location).Error; err != nil {
				return fmt.Errorf("failed to update location extension: %w", err)
			}
		}
		if req.Full != nil {
			if err := tx.Save(req.Full).Error; err != nil {
				return fmt.Errorf("failed to update full extension: %w", err)
			}
		}
		return nil
	})
}

// Get loads one record assembled to its concrete tier.
func (s *SupportStore) Get(ctx context.Context, id uint) (*domain.Request, error) {
	var base domain.SupportRequest
	if err := s.db.WithContext(ctx).First(&base, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch support request: %w", err)
	}
	reqs, err := s.assemble(ctx, []domain.SupportRequest{base})
	if err != nil {
		return nil, err
	}
	return &reqs[0], nil
}

// List queries the unified base collection: every record comes back typed
// as its concrete tier regardless of the filter. Results are newest first.
func (s *SupportStore) List(ctx context.Context, f ListFilter) ([]domain.Request, error) {
	q := s.db.WithContext(ctx).Model(&domain.SupportRequest{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("subject LIKE ? OR full_name LIKE ? OR email LIKE ?", like, like, like)
	}
	if f.Tier != "" {
		q = q.Where("tier = ?", f.Tier)
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *f.CreatedBefore)
	}
	if f.ModifiedAfter != nil {
		q = q.Where("modified_at >= ?", *f.ModifiedAfter)
	}
	if f.ModifiedBefore != nil {
		q = q.Where("modified_at <= ?", *f.ModifiedBefore)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var bases []domain.SupportRequest
	if err := q.Order("created_at DESC, id DESC").Find(&bases).Error; err != nil {
		return nil, fmt.Errorf("failed to list support requests: %w", err)
	}
	return s.assemble(ctx, bases)
}

// ListTier lists records of a single tier, extensions included.
func (s *SupportStore) ListTier(ctx context.Context, tier domain.Tier, f ListFilter) ([]domain.Request, error) {
	f.Tier = tier
	return s.List(ctx, f)
}

// EmailContactedBefore reports whether any full-tier record with the given
// email already exists. The caller invokes this before persisting, so the
// result reflects state strictly prior to the current submission.
func (s *SupportStore) EmailContactedBefore(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.SupportRequest{}).
		Where("email = ? AND tier = ?", email, domain.TierFull).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check prior contacts: %w", err)
	}
	return count > 0, nil
}

func createExtensions(tx *gorm.DB, req *domain.Request) error {
	if req.Phone != nil {
		req.Phone.RequestID = req.ID
		if err := tx.Create(req.Phone).Error; err != nil {
			return fmt.Errorf("failed to create phone extension: %w", err)
		}
	}
	if req.Location != nil {
		req.Location.RequestID = req.ID
		if err := tx.Create(req.Location).Error; err != nil {
			return fmt.Errorf("failed to create location extension: %w", err)
		}
	}
	if req.Full != nil {
		req.Full.RequestID = req.ID
		if err := tx.Create(req.Full).Error; err != nil {
			return fmt.Errorf("failed to create full extension: %w", err)
		}
	}
	return nil
}

// assemble attaches extension rows to base rows according to each row's
// discriminator. Extensions are fetched in one query per table.
func (s *SupportStore) assemble(ctx context.Context, bases []domain.SupportRequest) ([]domain.Request, error) {
	reqs := make([]domain.Request, len(bases))

	var phoneIDs, locationIDs, fullIDs []uint
	for i, base := range bases {
		reqs[i] = domain.Request{SupportRequest: base}
		switch base.Tier {
		case domain.TierPhone:
			phoneIDs = append(phoneIDs, base.ID)
		case domain.TierLocation:
			phoneIDs = append(phoneIDs, base.ID)
			locationIDs = append(locationIDs, base.ID)
		case domain.TierFull:
			phoneIDs = append(phoneIDs, base.ID)
			locationIDs = append(locationIDs, base.ID)
			fullIDs = append(fullIDs, base.ID)
		}
	}

	phones := map[uint]*domain.PhoneExtension{}
	if len(phoneIDs) > 0 {
		var rows []domain.PhoneExtension
		if err := s.db.WithContext(ctx).Where("request_id IN ?", phoneIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch phone extensions: %w", err)
		}
		for i := range rows {
			phones[rows[i].RequestID] = &rows[i]
		}
	}

	locations := map[uint]*domain.LocationExtension{}
	if len(locationIDs) > 0 {
		var rows []domain.LocationExtension
		if err := s.db.WithContext(ctx).Where("request_id IN ?", locationIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch location extensions: %w", err)
		}
		for i := range rows {
			locations[rows[i].RequestID] = &rows[i]
		}
	}

	fulls := map[uint]*domain.FullExtension{}
	if len(fullIDs) > 0 {
		var rows []domain.FullExtension
		if err := s.db.WithContext(ctx).Where("request_id IN ?", fullIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch full extensions: %w", err)
		}
		for i := range rows {
			fulls[rows[i].RequestID] = &rows[i]
		}
	}

	for i := range reqs {
		id := reqs[i].ID
		reqs[i].Phone = phones[id]
		reqs[i].Location = locations[id]
		reqs[i].Full = fulls[id]
	}
	return reqs, nil
}

// fieldsOf flattens a record into the shared validation field set.
func fieldsOf(req *domain.Request) validation.Fields {
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
