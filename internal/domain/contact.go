package domain

import "time"

// Prefix is an honorific attached to an address-book contact.
type Prefix string

const (
	PrefixMr  Prefix = "Mr"
	PrefixMrs Prefix = "Mrs"
	PrefixMs  Prefix = "Ms"
	PrefixDr  Prefix = "Dr"
)

// Label groups address-book contacts.
type Label struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for Label
func (Label) TableName() string {
	return "contact_labels"
}

// Contact is an address-book entry. It is independent of the support
// request hierarchy; the two share no relationships.
type Contact struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	FirstName       string     `gorm:"size:255;not null" json:"first_name"`
	LastName        string     `gorm:"size:255;not null" json:"last_name"`
	MiddleName      *string    `gorm:"size:255" json:"middle_name"`
	Nickname        *string    `gorm:"size:255" json:"nickname"`
	Prefix          *Prefix    `gorm:"size:3" json:"prefix"`
	Suffix          *string    `gorm:"size:50" json:"suffix"`
	Email           *string    `gorm:"size:254" json:"email"`
	PhoneNumber     *string    `gorm:"size:20" json:"phone_number"`
	PhysicalAddress *string    `gorm:"type:text" json:"physical_address"`
	IMHandle        *string    `gorm:"size:255" json:"im_handle"`
	Website         *string    `gorm:"size:255" json:"website"`
	Company         *string    `gorm:"size:255" json:"company"`
	JobTitle        *string    `gorm:"size:255" json:"job_title"`
	Department      *string    `gorm:"size:255" json:"department"`
	Birthday        *time.Time `json:"birthday"`
	Anniversary     *time.Time `json:"anniversary"`
	Notes           *string    `gorm:"type:text" json:"notes"`
	Photo           *string    `gorm:"size:255" json:"photo"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// CustomField stores a user-defined key/value pair on a contact.
type CustomField struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ContactID  uint    `gorm:"not null;index" json:"contact_id"`
	Contact    Contact `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FieldName  string  `gorm:"size:255;not null" json:"field_name"`
	FieldValue string  `gorm:"size:255;not null" json:"field_value"`
}

// TableName specifies the table name for CustomField
func (CustomField) TableName() string {
	return "contact_custom_fields"
}

// ContactLabel links contacts and labels many-to-many.
type ContactLabel struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ContactID uint    `gorm:"not null;uniqueIndex:idx_contact_label" json:"contact_id"`
	Contact   Contact `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	LabelID   uint    `gorm:"not null;uniqueIndex:idx_contact_label" json:"label_id"`
	Label     Label   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ContactLabel
func (ContactLabel) TableName() string {
	return "contact_label_links"
}
