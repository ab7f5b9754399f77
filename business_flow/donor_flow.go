package businessflow

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
)

// DonorFlow handles donor record management
type DonorFlow interface {
	CreateDonor(ctx context.Context, request *dto.CreateDonorRequest, metadata *ClientMetadata) (*dto.DonorResponse, error)
	GetDonor(ctx context.Context, donorUUID string) (*dto.DonorResponse, error)
	ListDonors(ctx context.Context, request *dto.ListDonorsRequest) (*dto.ListDonorsResponse, error)
	UpdateDonor(ctx context.Context, donorUUID string, request *dto.UpdateDonorRequest, metadata *ClientMetadata) (*dto.DonorResponse, error)
	DeleteDonor(ctx context.Context, donorUUID string, metadata *ClientMetadata) error
}

// DonorFlowImpl implements the donor business flow
type DonorFlowImpl struct {
	donorRepo repository.DonorRepository
	auditRepo repository.AuditLogRepository
	db        *gorm.DB
}

// NewDonorFlow creates a new donor flow instance
func NewDonorFlow(
	donorRepo repository.DonorRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) DonorFlow {
	return &DonorFlowImpl{
		donorRepo: donorRepo,
		auditRepo: auditRepo,
		db:        db,
	}
}

// CreateDonor registers a new donor. Email uniqueness is enforced here and by
// the database constraint.
func (df *DonorFlowImpl) CreateDonor(ctx context.Context, request *dto.CreateDonorRequest, metadata *ClientMetadata) (*dto.DonorResponse, error) {
	var donor *models.Donor

	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		email := strings.ToLower(strings.TrimSpace(request.Email))

		existing, err := df.donorRepo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDonorEmailAlreadyExists
		}

		donor = &models.Donor{
			Name:        strings.TrimSpace(request.Name),
			Email:       email,
			Phone:       request.Phone,
			HelpType:    models.HelpType(request.HelpType),
			LastContact: request.LastContact,
			Address:     addressFromDTO(request.Address),
		}
		if err := donor.BeforeCreate(); err != nil {
			return err
		}

		return df.donorRepo.Save(ctx, donor)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Donor creation failed: %s", err.Error())
		_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("DONOR_CREATION_FAILED", "Donor creation failed", err)
	}

	msg := fmt.Sprintf("Donor created: %s", donor.UUID)
	_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorCreated, msg, true, nil, metadata)

	resp := ToDonorResponse(*donor)
	return &resp, nil
}

// GetDonor fetches a single donor by UUID
func (df *DonorFlowImpl) GetDonor(ctx context.Context, donorUUID string) (*dto.DonorResponse, error) {
	donor, err := df.donorRepo.ByUUID(ctx, donorUUID)
	if err != nil {
		return nil, err
	}
	if donor == nil {
		return nil, NewBusinessError("DONOR_NOT_FOUND", "Donor not found", ErrDonorNotFound)
	}

	resp := ToDonorResponse(*donor)
	return &resp, nil
}

// ListDonors returns a paginated donor listing with optional filters
func (df *DonorFlowImpl) ListDonors(ctx context.Context, request *dto.ListDonorsRequest) (*dto.ListDonorsResponse, error) {
	page, pageSize, err := normalizePage(request.Page, request.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_DONORS_FAILED", "Invalid pagination", err)
	}

	filter := models.DonorFilter{
		Name:              request.Name,
		LastContactAfter:  request.LastContactAfter,
		LastContactBefore: request.LastContactBefore,
	}
	if request.HelpType != nil {
		ht := models.HelpType(*request.HelpType)
		filter.HelpType = &ht
	}
	if filter.LastContactAfter != nil && filter.LastContactBefore != nil &&
		filter.LastContactBefore.Before(*filter.LastContactAfter) {
		return nil, NewBusinessError("LIST_DONORS_FAILED", "Invalid date bounds", ErrInvalidContactBounds)
	}

	total, err := df.donorRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	donors, err := df.donorRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DonorResponse, 0, len(donors))
	for _, donor := range donors {
		items = append(items, ToDonorResponse(*donor))
	}

	return &dto.ListDonorsResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateDonor applies a partial update to a donor record
func (df *DonorFlowImpl) UpdateDonor(ctx context.Context, donorUUID string, request *dto.UpdateDonorRequest, metadata *ClientMetadata) (*dto.DonorResponse, error) {
	var donor *models.Donor

	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		var err error
		donor, err = df.donorRepo.ByUUID(ctx, donorUUID)
		if err != nil {
			return err
		}
		if donor == nil {
			return ErrDonorNotFound
		}

		if request.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*request.Email))
			if email != donor.Email {
				existing, err := df.donorRepo.ByEmail(ctx, email)
				if err != nil {
					return err
				}
				if existing != nil && existing.ID != donor.ID {
					return ErrDonorEmailAlreadyExists
				}
				donor.Email = email
			}
		}
		if request.Name != nil {
			donor.Name = strings.TrimSpace(*request.Name)
		}
		if request.Phone != nil {
			donor.Phone = request.Phone
		}
		if request.HelpType != nil {
			donor.HelpType = models.HelpType(*request.HelpType)
		}
		if request.LastContact != nil {
			donor.LastContact = request.LastContact
		}
		if request.Address != nil {
			donor.Address = addressFromDTO(request.Address)
		}
		if err := donor.BeforeUpdate(); err != nil {
			return err
		}

		return df.donorRepo.Update(ctx, *donor)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Donor update failed: %s", err.Error())
		_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorUpdated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("DONOR_UPDATE_FAILED", "Donor update failed", err)
	}

	msg := fmt.Sprintf("Donor updated: %s", donor.UUID)
	_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorUpdated, msg, true, nil, metadata)

	resp := ToDonorResponse(*donor)
	return &resp, nil
}

// DeleteDonor removes a donor record along with its donations (cascade)
func (df *DonorFlowImpl) DeleteDonor(ctx context.Context, donorUUID string, metadata *ClientMetadata) error {
	var donor *models.Donor

	err := repository.WithTransaction(ctx, df.db, func(ctx context.Context) error {
		var err error
		donor, err = df.donorRepo.ByUUID(ctx, donorUUID)
		if err != nil {
			return err
		}
		if donor == nil {
			return ErrDonorNotFound
		}

		return df.donorRepo.Delete(ctx, donor.ID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Donor deletion failed: %s", err.Error())
		_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorDeleted, errMsg, false, &errMsg, metadata)
		return NewBusinessError("DONOR_DELETION_FAILED", "Donor deletion failed", err)
	}

	msg := fmt.Sprintf("Donor deleted: %s", donor.UUID)
	_ = recordAudit(ctx, df.auditRepo, nil, models.AuditActionDonorDeleted, msg, true, nil, metadata)

	return nil
}

func addressFromDTO(address *dto.AddressDTO) *models.DonorAddress {
	if address == nil {
		return nil
	}
	return &models.DonorAddress{
		Street:  address.Street,
		City:    address.City,
		State:   address.State,
		Zip:     address.Zip,
		Country: address.Country,
	}
}
