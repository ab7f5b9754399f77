package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/dispatcher"
	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/app/services"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// CampaignFlow handles email campaign lifecycle: drafting, audience preview,
// and handing sends to the background dispatcher.
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, request *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	UpdateCampaign(ctx context.Context, campaignUUID string, request *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	DeleteCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) error
	ListRecipients(ctx context.Context, campaignUUID string, limit, offset int) ([]dto.DonorPreview, error)

	// Send validates and queues a campaign send, returning immediately with a
	// pollable task handle. The actual delivery happens in the dispatcher.
	Send(ctx context.Context, campaignUUID string, request *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error)
	PreviewRecipients(ctx context.Context, request *dto.PreviewRecipientsRequest) (*dto.PreviewRecipientsResponse, error)
	GetSendTaskStatus(ctx context.Context, taskID string) (*dto.SendTaskStatusResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo  repository.CampaignRepository
	donorRepo     repository.DonorRepository
	recipientRepo repository.CampaignRecipientRepository
	auditRepo     repository.AuditLogRepository
	emailService  services.EmailService
	dispatcher    *dispatcher.CampaignDispatcher
	db            *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	donorRepo repository.DonorRepository,
	recipientRepo repository.CampaignRecipientRepository,
	auditRepo repository.AuditLogRepository,
	emailService services.EmailService,
	d *dispatcher.CampaignDispatcher,
	db *gorm.DB,
) CampaignFlow {
	return &CampaignFlowImpl{
		campaignRepo:  campaignRepo,
		donorRepo:     donorRepo,
		recipientRepo: recipientRepo,
		auditRepo:     auditRepo,
		emailService:  emailService,
		dispatcher:    d,
		db:            db,
	}
}

// CreateCampaign drafts a new campaign
func (cf *CampaignFlowImpl) CreateCampaign(ctx context.Context, request *dto.CreateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	campaign := &models.EmailCampaign{
		Subject: strings.TrimSpace(request.Subject),
		Body:    request.Body,
		Status:  models.CampaignStatusDraft,
	}
	if err := campaign.BeforeCreate(); err != nil {
		return nil, err
	}

	if err := cf.campaignRepo.Save(ctx, campaign); err != nil {
		errMsg := fmt.Sprintf("Campaign creation failed: %s", err.Error())
		_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Campaign creation failed", err)
	}

	msg := fmt.Sprintf("Campaign created: %s", campaign.UUID)
	_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignCreated, msg, true, nil, metadata)

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// GetCampaign fetches a single campaign by UUID
func (cf *CampaignFlowImpl) GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error) {
	campaign, err := cf.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// ListCampaigns returns a paginated campaign listing
func (cf *CampaignFlowImpl) ListCampaigns(ctx context.Context, request *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	page, pageSize, err := normalizePage(request.Page, request.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_CAMPAIGNS_FAILED", "Invalid pagination", err)
	}

	filter := models.CampaignFilter{}
	if request.Status != nil {
		status := models.CampaignStatus(*request.Status)
		filter.Status = &status
	}

	total, err := cf.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	campaigns, err := cf.campaignRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		items = append(items, ToCampaignResponse(*campaign))
	}

	return &dto.ListCampaignsResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateCampaign edits the subject or body of a draft. Sent campaigns are immutable.
func (cf *CampaignFlowImpl) UpdateCampaign(ctx context.Context, campaignUUID string, request *dto.UpdateCampaignRequest, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	var campaign *models.EmailCampaign

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		var err error
		campaign, err = cf.campaignRepo.ByUUIDForUpdate(ctx, campaignUUID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if !campaign.IsEditable() {
			return ErrCampaignUpdateNotAllowed
		}

		if request.Subject != nil {
			campaign.Subject = strings.TrimSpace(*request.Subject)
		}
		if request.Body != nil {
			campaign.Body = *request.Body
		}
		if err := campaign.BeforeUpdate(); err != nil {
			return err
		}

		return cf.campaignRepo.Update(ctx, *campaign)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign update failed: %s", err.Error())
		_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignUpdated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("CAMPAIGN_UPDATE_FAILED", "Campaign update failed", err)
	}

	msg := fmt.Sprintf("Campaign updated: %s", campaign.UUID)
	_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignUpdated, msg, true, nil, metadata)

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// DeleteCampaign removes a draft campaign. Sent campaigns are kept for history.
func (cf *CampaignFlowImpl) DeleteCampaign(ctx context.Context, campaignUUID string, metadata *ClientMetadata) error {
	var campaign *models.EmailCampaign

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		var err error
		campaign, err = cf.campaignRepo.ByUUIDForUpdate(ctx, campaignUUID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if !campaign.IsDeletable() {
			return ErrCampaignDeleteNotAllowed
		}

		return cf.campaignRepo.Delete(ctx, campaign.ID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Campaign deletion failed: %s", err.Error())
		_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignDeleted, errMsg, false, &errMsg, metadata)
		return NewBusinessError("CAMPAIGN_DELETION_FAILED", "Campaign deletion failed", err)
	}

	msg := fmt.Sprintf("Campaign deleted: %s", campaign.UUID)
	_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignDeleted, msg, true, nil, metadata)

	return nil
}

// ListRecipients returns the donors linked to a sent campaign
func (cf *CampaignFlowImpl) ListRecipients(ctx context.Context, campaignUUID string, limit, offset int) ([]dto.DonorPreview, error) {
	campaign, err := cf.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	donors, err := cf.recipientRepo.ListDonorsByCampaign(ctx, campaign.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DonorPreview, 0, len(donors))
	for _, donor := range donors {
		out = append(out, ToDonorPreview(*donor))
	}
	return out, nil
}

// Send validates the request and queues the campaign for background delivery.
// It returns a task ID immediately; the caller polls GetSendTaskStatus for the
// outcome. The dispatcher re-checks the draft status under a row lock, so a
// campaign can never be delivered twice even under concurrent submissions.
func (cf *CampaignFlowImpl) Send(ctx context.Context, campaignUUID string, request *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error) {
	if !request.Filters.BoundsConsistent() {
		return nil, NewBusinessError("SEND_VALIDATION_FAILED", "Invalid audience filter", ErrInvalidContactBounds)
	}
	if !cf.emailService.IsConfigured() {
		return nil, NewBusinessError("CONFIGURATION_ERROR", "Email provider is not configured", ErrProviderNotReady)
	}

	campaign, err := cf.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, NewBusinessError("CAMPAIGN_ALREADY_SENT", "Campaign has already been sent", ErrCampaignAlreadySent)
	}

	filter := SendFilterToDonorFilter(request.Filters)
	taskID := uuid.New().String()

	if err := cf.dispatcher.Submit(ctx, campaign.UUID.String(), taskID, &filter); err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrSendLocked):
			return nil, NewBusinessError("SEND_IN_PROGRESS", "A send for this campaign is already in progress", ErrSendInProgress)
		case errors.Is(err, dispatcher.ErrStopped):
			return nil, NewBusinessError("SEND_QUEUE_FAILED", "Dispatcher is not running", ErrDispatcherShutdown)
		default:
			return nil, NewBusinessError("SEND_QUEUE_FAILED", "Failed to queue campaign send", err)
		}
	}

	msg := fmt.Sprintf("Campaign send queued: %s (task %s)", campaign.UUID, taskID)
	_ = recordAudit(ctx, cf.auditRepo, nil, models.AuditActionCampaignSendQueued, msg, true, nil, metadata)

	return &dto.SendCampaignResponse{
		Message:    "Campaign send started",
		CampaignID: campaign.UUID.String(),
		TaskID:     taskID,
	}, nil
}

// PreviewRecipients resolves the audience a filter would reach without
// touching any campaign: the total count and the first few donors.
func (cf *CampaignFlowImpl) PreviewRecipients(ctx context.Context, request *dto.PreviewRecipientsRequest) (*dto.PreviewRecipientsResponse, error) {
	if !request.Filters.BoundsConsistent() {
		return nil, NewBusinessError("PREVIEW_VALIDATION_FAILED", "Invalid audience filter", ErrInvalidContactBounds)
	}

	filter := SendFilterToDonorFilter(request.Filters)

	count, err := cf.donorRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	sample := make([]dto.DonorPreview, 0, utils.PreviewSampleSize)
	if count > 0 {
		donors, err := cf.donorRepo.ByFilter(ctx, filter, "id ASC", utils.PreviewSampleSize, 0)
		if err != nil {
			return nil, err
		}
		for _, donor := range donors {
			sample = append(sample, ToDonorPreview(*donor))
		}
	}

	return &dto.PreviewRecipientsResponse{
		Count:  count,
		Sample: sample,
	}, nil
}

// GetSendTaskStatus reports the current state of a background send task
func (cf *CampaignFlowImpl) GetSendTaskStatus(ctx context.Context, taskID string) (*dto.SendTaskStatusResponse, error) {
	task, ok := cf.dispatcher.Status(ctx, taskID)
	if !ok {
		return nil, NewBusinessError("SEND_TASK_NOT_FOUND", "Send task not found", ErrSendTaskNotFound)
	}

	return &dto.SendTaskStatusResponse{
		TaskID:         task.TaskID,
		CampaignID:     task.CampaignUUID,
		Status:         task.Status,
		RecipientCount: task.RecipientCount,
		BatchCount:     task.BatchCount,
		ErrorCode:      task.ErrorCode,
		ErrorMessage:   task.ErrorMessage,
		QueuedAt:       task.QueuedAt,
		FinishedAt:     task.FinishedAt,
	}, nil
}
