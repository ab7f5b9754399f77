package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/utils"
	"gorm.io/gorm"
)

// DonationRepositoryImpl implements the DonationRepository interface
type DonationRepositoryImpl struct {
	*BaseRepository[models.Donation, models.DonationFilter]
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &DonationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Donation, models.DonationFilter](db),
	}
}

// ByUUID retrieves a donation by UUID
func (r *DonationRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Donation, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.DonationFilter{UUID: &parsedUUID}
	donations, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find donation by UUID: %w", err)
	}

	if len(donations) == 0 {
		return nil, nil
	}

	return donations[0], nil
}

// ListByDonor retrieves donations made by the given donor with pagination
func (r *DonationRepositoryImpl) ListByDonor(ctx context.Context, donorID uint, limit, offset int) ([]*models.Donation, error) {
	filter := models.DonationFilter{DonorID: &donorID}
	return r.ByFilter(ctx, filter, "date DESC", limit, offset)
}

// Update updates a donation
func (r *DonationRepositoryImpl) Update(ctx context.Context, donation models.Donation) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := time.Now().UTC()
	donation.UpdatedAt = &now

	err = db.Save(&donation).Error
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}

	return nil
}

// Delete removes a donation by ID
func (r *DonationRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.Donation{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete donation: %w", err)
	}

	return nil
}

// SumAmountByCurrency totals donation amounts grouped by currency
func (r *DonationRepositoryImpl) SumAmountByCurrency(ctx context.Context, filter models.DonationFilter) (map[string]float64, error) {
	db := r.getDB(ctx)

	var rows []struct {
		Currency string
		Total    float64
	}

	query := r.applyFilter(db.Model(&models.Donation{}), filter)
	err := query.Select("currency, COALESCE(SUM(amount), 0) AS total").
		Group("currency").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum donations by currency: %w", err)
	}

	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.Currency] = row.Total
	}

	return totals, nil
}

// ByFilter retrieves donations based on filter criteria
func (r *DonationRepositoryImpl) ByFilter(ctx context.Context, filter models.DonationFilter, orderBy string, limit, offset int) ([]*models.Donation, error) {
	db := r.getDB(ctx)

	var donations []*models.Donation
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	// Preload relationships
	query = query.Preload("Donor")

	err := query.Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find donations by filter: %w", err)
	}

	return donations, nil
}

// Count returns the number of donations matching the filter
func (r *DonationRepositoryImpl) Count(ctx context.Context, filter models.DonationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var donation models.Donation
	query := r.applyFilter(db.Model(&donation), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count donations: %w", err)
	}

	return count, nil
}

// Exists checks if any donation matching the filter exists
func (r *DonationRepositoryImpl) Exists(ctx context.Context, filter models.DonationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *DonationRepositoryImpl) applyFilter(db *gorm.DB, filter models.DonationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.DonorID != nil {
		db = db.Where("donor_id = ?", *filter.DonorID)
	}
	if filter.Currency != nil {
		db = db.Where("currency = ?", *filter.Currency)
	}
	if filter.PaymentMethod != nil {
		db = db.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.MinAmount != nil {
		db = db.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		db = db.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.DateAfter != nil {
		db = db.Where("date >= ?", *filter.DateAfter)
	}
	if filter.DateBefore != nil {
		db = db.Where("date <= ?", *filter.DateBefore)
	}

	return db
}
