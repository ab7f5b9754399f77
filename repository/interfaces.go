// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/helpinghand/donor-admin/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// DonorRepository defines operations for donors. ByFilter is the audience
// filter: nil criteria match all donors, date bounds are inclusive.
type DonorRepository interface {
	Repository[models.Donor, models.DonorFilter]
	ByEmail(ctx context.Context, email string) (*models.Donor, error)
	ByUUID(ctx context.Context, uuid string) (*models.Donor, error)
	Update(ctx context.Context, donor models.Donor) error
	Delete(ctx context.Context, id uint) error
}

// DonationRepository defines operations for donations
type DonationRepository interface {
	Repository[models.Donation, models.DonationFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Donation, error)
	ListByDonor(ctx context.Context, donorID uint, limit, offset int) ([]*models.Donation, error)
	Update(ctx context.Context, donation models.Donation) error
	Delete(ctx context.Context, id uint) error
	SumAmountByCurrency(ctx context.Context, filter models.DonationFilter) (map[string]float64, error)
}

// CampaignRepository defines operations for email campaigns
type CampaignRepository interface {
	Repository[models.EmailCampaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.EmailCampaign, error)
	// ByUUIDForUpdate loads a campaign under a row-level lock. Must run
	// inside a transaction carried by the context.
	ByUUIDForUpdate(ctx context.Context, uuid string) (*models.EmailCampaign, error)
	Update(ctx context.Context, campaign models.EmailCampaign) error
	Delete(ctx context.Context, id uint) error
	// MarkSent transitions the campaign to sent, recording the send
	// timestamp and the denormalized recipient count.
	MarkSent(ctx context.Context, id uint, sentAt time.Time, recipientCount int) error
}

// CampaignRecipientRepository defines operations for campaign recipient links
type CampaignRecipientRepository interface {
	Repository[models.CampaignRecipient, models.CampaignRecipientFilter]
	ListDonorsByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.Donor, error)
}

// UserRepository defines operations for back-office users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
