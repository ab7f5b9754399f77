package models

import (
	"time"
)

// CampaignRecipient is the join row recording which donors received which
// campaign. Rows are written once, inside the send transaction.
type CampaignRecipient struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_campaign_recipients_pair;index:idx_campaign_recipients_campaign_id" json:"campaign_id"`
	DonorID    uint      `gorm:"not null;uniqueIndex:uk_campaign_recipients_pair;index:idx_campaign_recipients_donor_id" json:"donor_id"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Campaign *EmailCampaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Donor    *Donor         `gorm:"foreignKey:DonorID;references:ID" json:"donor,omitempty"`
}

// TableName returns the table name for the model
func (CampaignRecipient) TableName() string {
	return "campaign_recipients"
}

// CampaignRecipientFilter represents filter criteria for recipient link queries
type CampaignRecipientFilter struct {
	ID         *uint `json:"id,omitempty"`
	CampaignID *uint `json:"campaign_id,omitempty"`
	DonorID    *uint `json:"donor_id,omitempty"`
}
