package models

import (
	"time"

	"github.com/google/uuid"
)

// Donation represents a single contribution made by a donor
type Donation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_donations_uuid" json:"uuid"`
	DonorID       uint       `gorm:"not null;index:idx_donations_donor_id" json:"donor_id"`
	Amount        float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string     `gorm:"type:char(3);not null;default:'USD'" json:"currency"`
	Date          time.Time  `gorm:"not null;index:idx_donations_date" json:"date"`
	PaymentMethod *string    `gorm:"size:100" json:"payment_method,omitempty"`
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`

	// Relations
	Donor *Donor `gorm:"foreignKey:DonorID;references:ID" json:"donor,omitempty"`
}

// TableName returns the table name for the model
func (Donation) TableName() string {
	return "donations"
}

// BeforeCreate is called before creating a new record
func (d *Donation) BeforeCreate() error {
	if d.UUID == uuid.Nil {
		d.UUID = uuid.New()
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (d *Donation) BeforeUpdate() error {
	now := time.Now().UTC()
	d.UpdatedAt = &now
	return nil
}

// DonationFilter represents filter criteria for donation queries
type DonationFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	DonorID       *uint      `json:"donor_id,omitempty"`
	Currency      *string    `json:"currency,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	MinAmount     *float64   `json:"min_amount,omitempty"`
	MaxAmount     *float64   `json:"max_amount,omitempty"`
	DateAfter     *time.Time `json:"date_after,omitempty"`
	DateBefore    *time.Time `json:"date_before,omitempty"`
}
