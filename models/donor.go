package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HelpType represents the kind of support a donor provides
type HelpType string

const (
	HelpTypeFinancial HelpType = "financial"
	HelpTypePhysical  HelpType = "physical"
	HelpTypeBoth      HelpType = "both"
)

// String returns the string representation of the help type
func (h HelpType) String() string {
	return string(h)
}

// Valid checks if the help type is valid
func (h HelpType) Valid() bool {
	switch h {
	case HelpTypeFinancial, HelpTypePhysical, HelpTypeBoth:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for HelpType
func (h *HelpType) Scan(value any) error {
	if value == nil {
		*h = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*h = HelpType(v)
	case []byte:
		*h = HelpType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into HelpType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for HelpType
func (h HelpType) Value() (driver.Value, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid HelpType: %s", h)
	}
	return string(h), nil
}

// DonorAddress is the postal address stored as a JSON document
type DonorAddress struct {
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Zip     *string `json:"zip,omitempty"`
	Country *string `json:"country,omitempty"`
}

// Value implements the driver.Valuer interface for DonorAddress
func (a DonorAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for DonorAddress
func (a *DonorAddress) Scan(value any) error {
	if value == nil {
		*a = DonorAddress{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DonorAddress", value)
	}

	return json.Unmarshal(bytes, a)
}

// Donor represents a person or entity tracked for fundraising relationship management
type Donor struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_donors_uuid" json:"uuid"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Email       string        `gorm:"size:255;not null;uniqueIndex:uk_donors_email" json:"email"`
	Phone       *string       `gorm:"size:50" json:"phone,omitempty"`
	HelpType    HelpType      `gorm:"type:help_type;not null;default:'financial';index:idx_donors_help_type" json:"help_type"`
	LastContact *time.Time    `gorm:"index:idx_donors_last_contact" json:"last_contact,omitempty"`
	Address     *DonorAddress `gorm:"type:jsonb" json:"address,omitempty"`
	CreatedAt   time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`

	// Relations
	Donations []Donation      `gorm:"foreignKey:DonorID;references:ID" json:"donations,omitempty"`
	Campaigns []EmailCampaign `gorm:"many2many:campaign_recipients;joinForeignKey:DonorID;joinReferences:CampaignID" json:"campaigns,omitempty"`
}

// TableName returns the table name for the model
func (Donor) TableName() string {
	return "donors"
}

// BeforeCreate is called before creating a new record
func (d *Donor) BeforeCreate() error {
	if d.UUID == uuid.Nil {
		d.UUID = uuid.New()
	}
	if d.HelpType == "" {
		d.HelpType = HelpTypeFinancial
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (d *Donor) BeforeUpdate() error {
	now := time.Now().UTC()
	d.UpdatedAt = &now
	return nil
}

// DonorFilter represents filter criteria for donor queries.
// LastContactAfter and LastContactBefore are inclusive bounds; a nil
// criterion applies no predicate.
type DonorFilter struct {
	ID                *uint      `json:"id,omitempty"`
	UUID              *uuid.UUID `json:"uuid,omitempty"`
	Name              *string    `json:"name,omitempty"`
	Email             *string    `json:"email,omitempty"`
	HelpType          *HelpType  `json:"help_type,omitempty"`
	LastContactAfter  *time.Time `json:"last_contact_after,omitempty"`
	LastContactBefore *time.Time `json:"last_contact_before,omitempty"`
	CreatedAfter      *time.Time `json:"created_after,omitempty"`
	CreatedBefore     *time.Time `json:"created_before,omitempty"`
}
