// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// recordAudit persists an audit row for a business operation. Audit failures
// never fail the operation itself, so the error is returned only for logging.
func recordAudit(ctx context.Context, auditRepo repository.AuditLogRepository, userID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	if auditRepo == nil {
		return nil
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}

// normalizePage applies defaults and bounds to pagination parameters
func normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return 0, 0, ErrInvalidPageSize
	}
	return page, pageSize, nil
}

// ToDonorResponse converts a donor model to its API representation
func ToDonorResponse(donor models.Donor) dto.DonorResponse {
	resp := dto.DonorResponse{
		UUID:        donor.UUID.String(),
		Name:        donor.Name,
		Email:       donor.Email,
		Phone:       donor.Phone,
		HelpType:    donor.HelpType.String(),
		LastContact: donor.LastContact,
		CreatedAt:   donor.CreatedAt,
		UpdatedAt:   donor.UpdatedAt,
	}
	if donor.Address != nil {
		resp.Address = &dto.AddressDTO{
			Street:  donor.Address.Street,
			City:    donor.Address.City,
			State:   donor.Address.State,
			Zip:     donor.Address.Zip,
			Country: donor.Address.Country,
		}
	}
	return resp
}

// ToDonorPreview converts a donor model to the abbreviated preview shape
func ToDonorPreview(donor models.Donor) dto.DonorPreview {
	return dto.DonorPreview{
		Name:        donor.Name,
		Email:       donor.Email,
		HelpType:    donor.HelpType.String(),
		LastContact: donor.LastContact,
	}
}

// ToCampaignResponse converts a campaign model to its API representation
func ToCampaignResponse(campaign models.EmailCampaign) dto.CampaignResponse {
	return dto.CampaignResponse{
		UUID:           campaign.UUID.String(),
		Subject:        campaign.Subject,
		Body:           campaign.Body,
		Status:         campaign.Status.String(),
		SentAt:         campaign.SentAt,
		RecipientCount: campaign.RecipientCount,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
}

// ToDonationResponse converts a donation model to its API representation.
// The donor relation must be preloaded for DonorUUID and DonorName.
func ToDonationResponse(donation models.Donation) dto.DonationResponse {
	resp := dto.DonationResponse{
		UUID:          donation.UUID.String(),
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		Date:          donation.Date,
		PaymentMethod: donation.PaymentMethod,
		Notes:         donation.Notes,
		CreatedAt:     donation.CreatedAt,
		UpdatedAt:     donation.UpdatedAt,
	}
	if donation.Donor != nil {
		resp.DonorUUID = donation.Donor.UUID.String()
		resp.DonorName = donation.Donor.Name
	}
	return resp
}

// ToUserInfo converts a user model to the login response shape
func ToUserInfo(user models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:          user.ID,
		UUID:        user.UUID.String(),
		Name:        user.Name,
		Email:       user.Email,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

// SendFilterToDonorFilter maps the API audience criteria onto the repository filter
func SendFilterToDonorFilter(filter dto.SendFilter) models.DonorFilter {
	out := models.DonorFilter{
		LastContactAfter:  filter.LastContactAfter,
		LastContactBefore: filter.LastContactBefore,
	}
	if filter.HelpType != nil {
		ht := models.HelpType(*filter.HelpType)
		out.HelpType = &ht
	}
	return out
}
