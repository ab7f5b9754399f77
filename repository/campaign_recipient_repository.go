package repository

import (
	"context"
	"fmt"

	"github.com/helpinghand/donor-admin/models"
	"gorm.io/gorm"
)

// CampaignRecipientRepositoryImpl implements the CampaignRecipientRepository interface
type CampaignRecipientRepositoryImpl struct {
	*BaseRepository[models.CampaignRecipient, models.CampaignRecipientFilter]
}

// NewCampaignRecipientRepository creates a new campaign recipient repository
func NewCampaignRecipientRepository(db *gorm.DB) CampaignRecipientRepository {
	return &CampaignRecipientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignRecipient, models.CampaignRecipientFilter](db),
	}
}

// ListDonorsByCampaign retrieves the donors a campaign was sent to
func (r *CampaignRecipientRepositoryImpl) ListDonorsByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.Donor, error) {
	db := r.getDB(ctx)

	var donors []*models.Donor
	query := db.Model(&models.Donor{}).
		Joins("JOIN campaign_recipients ON campaign_recipients.donor_id = donors.id").
		Where("campaign_recipients.campaign_id = ?", campaignID).
		Order("donors.name ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&donors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donors for campaign %d: %w", campaignID, err)
	}

	return donors, nil
}

// ByFilter retrieves recipient links based on filter criteria
func (r *CampaignRecipientRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignRecipientFilter, orderBy string, limit, offset int) ([]*models.CampaignRecipient, error) {
	db := r.getDB(ctx)

	var recipients []*models.CampaignRecipient
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&recipients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient links by filter: %w", err)
	}

	return recipients, nil
}

// Count returns the number of recipient links matching the filter
func (r *CampaignRecipientRepositoryImpl) Count(ctx context.Context, filter models.CampaignRecipientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var recipient models.CampaignRecipient
	query := r.applyFilter(db.Model(&recipient), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recipient links: %w", err)
	}

	return count, nil
}

// Exists checks if any recipient link matching the filter exists
func (r *CampaignRecipientRepositoryImpl) Exists(ctx context.Context, filter models.CampaignRecipientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRecipientRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignRecipientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.DonorID != nil {
		db = db.Where("donor_id = ?", *filter.DonorID)
	}

	return db
}
