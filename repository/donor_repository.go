package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/utils"
	"gorm.io/gorm"
)

// DonorRepositoryImpl implements the DonorRepository interface
type DonorRepositoryImpl struct {
	*BaseRepository[models.Donor, models.DonorFilter]
}

// NewDonorRepository creates a new donor repository
func NewDonorRepository(db *gorm.DB) DonorRepository {
	return &DonorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Donor, models.DonorFilter](db),
	}
}

// ByEmail retrieves a donor by email address
func (r *DonorRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Donor, error) {
	filter := models.DonorFilter{Email: &email}
	donors, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find donor by email: %w", err)
	}

	if len(donors) == 0 {
		return nil, nil
	}

	return donors[0], nil
}

// ByUUID retrieves a donor by UUID
func (r *DonorRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Donor, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.DonorFilter{UUID: &parsedUUID}
	donors, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find donor by UUID: %w", err)
	}

	if len(donors) == 0 {
		return nil, nil
	}

	return donors[0], nil
}

// Update updates a donor
func (r *DonorRepositoryImpl) Update(ctx context.Context, donor models.Donor) error {
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
	donor.UpdatedAt = &now

	err = db.Save(&donor).Error
	if err != nil {
		return fmt.Errorf("failed to update donor: %w", err)
	}

	return nil
}

// Delete removes a donor by ID
func (r *DonorRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Donor{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete donor: %w", err)
	}

	return nil
}

// ByFilter retrieves donors based on filter criteria. This is the audience
// filter used by campaign dispatch: absent criteria apply no predicate and
// the last-contact bounds are inclusive.
func (r *DonorRepositoryImpl) ByFilter(ctx context.Context, filter models.DonorFilter, orderBy string, limit, offset int) ([]*models.Donor, error) {
	db := r.getDB(ctx)

	var donors []*models.Donor
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

	err := query.Find(&donors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find donors by filter: %w", err)
	}

	return donors, nil
}

// Count returns the number of donors matching the filter
func (r *DonorRepositoryImpl) Count(ctx context.Context, filter models.DonorFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var donor models.Donor
	query := r.applyFilter(db.Model(&donor), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count donors: %w", err)
	}

	return count, nil
}

// Exists checks if any donor matching the filter exists
func (r *DonorRepositoryImpl) Exists(ctx context.Context, filter models.DonorFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ByID retrieves a donor by ID
func (r *DonorRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Donor, error) {
	db := r.getDB(ctx)

	var donor models.Donor
	err := db.Last(&donor, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find donor by ID %d: %w", id, err)
	}

	return &donor, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *DonorRepositoryImpl) applyFilter(db *gorm.DB, filter models.DonorFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}
	if filter.HelpType != nil {
		db = db.Where("help_type = ?", *filter.HelpType)
	}
	if filter.LastContactAfter != nil {
		db = db.Where("last_contact >= ?", *filter.LastContactAfter)
	}
	if filter.LastContactBefore != nil {
		db = db.Where("last_contact <= ?", *filter.LastContactBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
