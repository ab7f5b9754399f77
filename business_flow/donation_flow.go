package businessflow

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// DonationFlow handles donation recording and reporting
type DonationFlow interface {
	RecordDonation(ctx context.Context, request *dto.CreateDonationRequest, metadata *ClientMetadata) (*dto.DonationResponse, error)
	GetDonation(ctx context.Context, donationUUID string) (*dto.DonationResponse, error)
	ListDonations(ctx context.Context, request *dto.ListDonationsRequest) (*dto.ListDonationsResponse, error)
	UpdateDonation(ctx context.Context, donationUUID string, request *dto.UpdateDonationRequest, metadata *ClientMetadata) (*dto.DonationResponse, error)
	DeleteDonation(ctx context.Context, donationUUID string, metadata *ClientMetadata) error
}

// DonationFlowImpl implements the donation business flow
type DonationFlowImpl struct {
	donationRepo repository.DonationRepository
	donorRepo    repository.DonorRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewDonationFlow creates a new donation flow instance
func NewDonationFlow(
	donationRepo repository.DonationRepository,
	donorRepo repository.DonorRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) DonationFlow {
	return &DonationFlowImpl{
		donationRepo: donationRepo,
		donorRepo:    donorRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// RecordDonation stores a new contribution and advances the donor's
// last-contact date when the donation is more recent.
func (df *DonationFlowImpl) RecordDonation(ctx context.Context, request *dto.CreateDonationRequest, metadata *ClientMetadata) (*dto.DonationResponse, error) {
	var donation *models.Donation

	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		if request.Amount <= 0 {
			return ErrAmountNotPositive
		}

		donor, err := df.donorRepo.ByUUID(ctx, request.DonorUUID)
		if err != nil {
			return err
		}
		if donor == nil {
			return ErrDonorNotFound
		}

		currency := strings.ToUpper(strings.TrimSpace(request.Currency))
		if currency == "" {
			currency = utils.DefaultCurrency
		}

		date := utils.UTCNow()
		if request.Date != nil {
			date = request.Date.UTC()
		}

		donation = &models.Donation{
			DonorID:       donor.ID,
			Amount:        request.Amount,
			Currency:      currency,
			Date:          date,
			PaymentMethod: request.PaymentMethod,
			Notes:         request.Notes,
		}
		if err := donation.BeforeCreate(); err != nil {
			return err
		}
		if err := df.donationRepo.Save(ctx, donation); err != nil {
			return err
		}
		donation.Donor = donor

		if donor.LastContact == nil || donor.LastContact.Before(date) {
			donor.LastContact = &date
			if err := donor.BeforeUpdate(); err != nil {
				return err
			}
			if err := df.donorRepo.Update(ctx, *donor); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Donation recording failed: %s", err.Error())
		_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonationRecorded, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("DONATION_RECORDING_FAILED", "Donation recording failed", err)
	}

	msg := fmt.Sprintf("Donation recorded: %s (%.2f %s)", donation.UUID, donation.Amount, donation.Currency)
	_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonationRecorded, msg, true, nil, metadata)

	resp := ToDonationResponse(*donation)
	return &resp, nil
}

// GetDonation fetches a single donation by UUID
func (df *DonationFlowImpl) GetDonation(ctx context.Context, donationUUID string) (*dto.DonationResponse, error) {
	donation, err := df.donationRepo.ByUUID(ctx, donationUUID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, NewBusinessError("DONATION_NOT_FOUND", "Donation not found", ErrDonationNotFound)
	}

	resp := ToDonationResponse(*donation)
	return &resp, nil
}

// ListDonations returns a paginated donation listing with per-currency totals
// computed over the full filter match, not just the current page.
func (df *DonationFlowImpl) ListDonations(ctx context.Context, request *dto.ListDonationsRequest) (*dto.ListDonationsResponse, error) {
	page, pageSize, err := normalizePage(request.Page, request.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_DONATIONS_FAILED", "Invalid pagination", err)
	}

	filter := models.DonationFilter{
		Currency:   normalizedCurrency(request.Currency),
		DateAfter:  request.DateAfter,
		DateBefore: request.DateBefore,
	}
	if request.DonorUUID != nil {
		donor, err := df.donorRepo.ByUUID(ctx, *request.DonorUUID)
		if err != nil {
			return nil, err
		}
		if donor == nil {
			return nil, NewBusinessError("DONOR_NOT_FOUND", "Donor not found", ErrDonorNotFound)
		}
		filter.DonorID = &donor.ID
	}

	total, err := df.donationRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	totals, err := df.donationRepo.SumAmountByCurrency(ctx, filter)
	if err != nil {
		return nil, err
	}

	donations, err := df.donationRepo.ByFilter(ctx, filter, "date DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DonationResponse, 0, len(donations))
	for _, donation := range donations {
		items = append(items, ToDonationResponse(*donation))
	}

	return &dto.ListDonationsResponse{
		Items:      items,
		Totals:     totals,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateDonation applies a partial update to a donation record
func (df *DonationFlowImpl) UpdateDonation(ctx context.Context, donationUUID string, request *dto.UpdateDonationRequest, metadata *ClientMetadata) (*dto.DonationResponse, error) {
	var donation *models.Donation

	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		var err error
		donation, err = df.donationRepo.ByUUID(ctx, donationUUID)
		if err != nil {
			return err
		}
		if donation == nil {
			return ErrDonationNotFound
		}

		if request.Amount != nil {
			if *request.Amount <= 0 {
				return ErrAmountNotPositive
			}
			donation.Amount = *request.Amount
		}
		if request.Currency != nil {
			donation.Currency = strings.ToUpper(strings.TrimSpace(*request.Currency))
		}
		if request.Date != nil {
			donation.Date = request.Date.UTC()
		}
		if request.PaymentMethod != nil {
			donation.PaymentMethod = request.PaymentMethod
		}
		if request.Notes != nil {
			donation.Notes = request.Notes
		}
		if err := donation.BeforeUpdate(); err != nil {
			return err
		}

		return df.donationRepo.Update(ctx, *donation)
	})

	if err != nil {
		return nil, NewBusinessError("DONATION_UPDATE_FAILED", "Donation update failed", err)
	}

	resp := ToDonationResponse(*donation)
	return &resp, nil
}

// DeleteDonation removes a donation record
func (df *DonationFlowImpl) DeleteDonation(ctx context.Context, donationUUID string, metadata *ClientMetadata) error {
	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		donation, err := df.donationRepo.ByUUID(ctx, donationUUID)
		if err != nil {
			return err
		}
		if donation == nil {
			return ErrDonationNotFound
		}

		return df.donationRepo.Delete(ctx, donation.ID)
	})

	if err != nil {
		return NewBusinessError("DONATION_DELETION_FAILED", "Donation deletion failed", err)
	}

	return nil
}

func normalizedCurrency(currency *string) *string {
	if currency == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*currency))
	return &normalized
}
