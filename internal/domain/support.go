package domain

import (
	"time"

	"gorm.io/gorm"
)

// Tier identifies the concrete shape of a support request. Every row in
// support_requests carries its tier so reads can reassemble the right variant.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierPhone    Tier = "phone"
	TierLocation Tier = "location"
	TierFull     Tier = "full"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierPhone, TierLocation, TierFull:
		return true
	}
	return false
}

// ContactReason categorizes why the submitter reached out.
type ContactReason string

const (
	ReasonSupport  ContactReason = "support"
	ReasonSales    ContactReason = "sales"
	ReasonFeedback ContactReason = "feedback"
)

// Display returns the human-readable label for the reason.
func (r ContactReason) Display() string {
	switch r {
	case ReasonSupport:
		return "Support"
	case ReasonSales:
		return "Sales Inquiry"
	case ReasonFeedback:
		return "Feedback"
	}
	return string(r)
}

// ContactMethod is how the submitter prefers to be reached.
type ContactMethod string

const (
	MethodEmail ContactMethod = "email"
	MethodPhone ContactMethod = "phone"
	MethodText  ContactMethod = "text"
)

// Display returns the human-readable label for the method.
func (m ContactMethod) Display() string {
	switch m {
	case MethodEmail:
		return "Email"
	case MethodPhone:
		return "Phone"
	case MethodText:
		return "Text Message"
	}
	return string(m)
}

// SupportRequest is the base row shared by all four tiers. Tier-specific
// columns live in extension tables keyed by this row's ID.
type SupportRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Tier       Tier      `gorm:"size:16;not null;index" json:"tier"`
	Subject    string    `gorm:"size:100;not null" json:"subject"`
	FullName   string    `gorm:"size:100;not null" json:"full_name"`
	Email      string    `gorm:"size:254;not null;index" json:"email"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TableName specifies the table name for SupportRequest
func (SupportRequest) TableName() string {
	return "support_requests"
}

// BeforeCreate hook
func (r *SupportRequest) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.ModifiedAt = now
	if r.Tier == "" {
		r.Tier = TierBasic
	}
	return nil
}

// BeforeUpdate hook. CreatedAt is immutable; only the modification
// timestamp moves.
func (r *SupportRequest) BeforeUpdate(tx *gorm.DB) error {
	r.ModifiedAt = time.Now().UTC()
	return nil
}

// PhoneExtension holds the columns added by the phone tier and above.
type PhoneExtension struct {
	RequestID   uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	PhoneNumber string `gorm:"size:20;not null" json:"phone_number"`
}

// TableName specifies the table name for PhoneExtension
func (PhoneExtension) TableName() string {
	return "support_phone_ext"
}

// LocationExtension holds the columns added by the location tier and above.
// Country and IPAddress are both optional; empty string means unset.
type LocationExtension struct {
	RequestID uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Country   string `gorm:"size:2" json:"country"`
	IPAddress string `gorm:"size:45" json:"ip_address"`
}

// TableName specifies the table name for LocationExtension
func (LocationExtension) TableName() string {
	return "support_location_ext"
}

// FullExtension holds the columns added by the full tier. UserID references
// the submitting account when the submission was authenticated; deleting
// that account nulls the reference rather than cascading.
type FullExtension struct {
	RequestID              uint          `gorm:"primaryKey;autoIncrement:false" json:"-"`
	UserID                 *uint         `gorm:"index" json:"user_id"`
	User                   *User         `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	ContactedBefore        bool          `gorm:"not null" json:"contacted_before"`
	ContactReason          ContactReason `gorm:"size:20;not null" json:"contact_reason"`
	PreferredContactMethod ContactMethod `gorm:"size:20;not null" json:"preferred_contact_method"`
}

// TableName specifies the table name for FullExtension
func (FullExtension) TableName() string {
	return "support_full_ext"
}

// Request is a support request assembled to its concrete tier: the base row
// plus whichever extensions the tier carries. The store populates extension
// pointers according to the discriminator, so a basic request has all three
// nil and a full request has all three set.
type Request struct {
	SupportRequest
	Phone    *PhoneExtension    `json:"phone,omitempty"`
	Location *LocationExtension `json:"location,omitempty"`
	Full     *FullExtension     `json:"full,omitempty"`
}
