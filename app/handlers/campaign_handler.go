// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	UpdateCampaign(c fiber.Ctx) error
	DeleteCampaign(c fiber.Ctx) error
	ListRecipients(c fiber.Ctx) error
	SendCampaign(c fiber.Ctx) error
	PreviewRecipients(c fiber.Ctx) error
	GetSendTaskStatus(c fiber.Ctx) error
}

// CampaignHandler handles email campaign HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

// CreateCampaign creates a new draft campaign
// @Summary Create Campaign
// @Description Create a draft email campaign with subject and body
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body dto.CreateCampaignRequest true "Campaign data"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignResponse} "Campaign created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.CreateCampaign(requestContext(c, "/api/v1/campaigns"), &req, metadata)
	if err != nil {
		log.Println("Campaign creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// GetCampaign fetches a single campaign
// @Summary Get Campaign
// @Description Fetch a campaign by UUID
// @Tags Campaigns
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse} "Campaign found"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{uuid} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	result, err := h.campaignFlow.GetCampaign(requestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}

		log.Println("Campaign fetch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign fetch failed", "CAMPAIGN_FETCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign fetched successfully", result)
}

// ListCampaigns returns a paginated campaign listing
// @Summary List Campaigns
// @Description List campaigns with optional status filter
// @Tags Campaigns
// @Produce json
// @Param status query string false "Status filter" Enums(draft, sent)
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse} "Campaigns listed"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	var req dto.ListCampaignsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.campaignFlow.ListCampaigns(requestContext(c, "/api/v1/campaigns"), &req)
	if err != nil {
		log.Println("Campaign listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LISTING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaigns listed successfully", result)
}

// UpdateCampaign applies a partial update to a draft campaign
// @Summary Update Campaign
// @Description Update a draft campaign; sent campaigns are immutable
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.UpdateCampaignRequest true "Campaign update data"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse} "Campaign updated"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already sent"
// @Router /api/v1/campaigns/{uuid} [put]
func (h *CampaignHandler) UpdateCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	var req dto.UpdateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.UpdateCampaign(requestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID, &req, metadata)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}
		if businessflow.IsCampaignUpdateNotAllowed(err) {
			return errorResponse(c, fiber.StatusConflict, "Sent campaigns cannot be modified", dto.ErrorCampaignAlreadySent, nil)
		}

		log.Println("Campaign update failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign update failed", "CAMPAIGN_UPDATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign updated successfully", result)
}

// DeleteCampaign removes a draft campaign
// @Summary Delete Campaign
// @Description Delete a draft campaign; sent campaigns are kept for history
// @Tags Campaigns
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Success 200 {object} dto.APIResponse "Campaign deleted"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already sent"
// @Router /api/v1/campaigns/{uuid} [delete]
func (h *CampaignHandler) DeleteCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	if err := h.campaignFlow.DeleteCampaign(requestContext(c, "/api/v1/campaigns/"+campaignUUID), campaignUUID, metadata); err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}
		if businessflow.IsCampaignDeleteNotAllowed(err) {
			return errorResponse(c, fiber.StatusConflict, "Sent campaigns cannot be deleted", dto.ErrorCampaignAlreadySent, nil)
		}

		log.Println("Campaign deletion failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign deletion failed", "CAMPAIGN_DELETION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign deleted successfully", nil)
}

// ListRecipients returns the donors a sent campaign was delivered to
// @Summary List Campaign Recipients
// @Description List the donors linked to a sent campaign
// @Tags Campaigns
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param limit query int false "Maximum rows to return"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} dto.APIResponse{data=[]dto.DonorPreview} "Recipients listed"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{uuid}/recipients [get]
func (h *CampaignHandler) ListRecipients(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	result, err := h.campaignFlow.ListRecipients(requestContext(c, "/api/v1/campaigns/"+campaignUUID+"/recipients"), campaignUUID, limit, offset)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}

		log.Println("Recipient listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Recipient listing failed", "RECIPIENT_LISTING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Recipients listed successfully", result)
}

// SendCampaign queues a campaign for background delivery
// @Summary Send Campaign
// @Description Queue a draft campaign for delivery to the filtered audience; returns a pollable task handle
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param uuid path string true "Campaign UUID"
// @Param request body dto.SendCampaignRequest true "Audience filters"
// @Success 202 {object} dto.APIResponse{data=dto.SendCampaignResponse} "Send queued"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign already sent or send in progress"
// @Failure 503 {object} dto.APIResponse "Email provider not configured"
// @Router /api/v1/campaigns/{uuid}/send [post]
func (h *CampaignHandler) SendCampaign(c fiber.Ctx) error {
	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	var req dto.SendCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.Send(requestContext(c, "/api/v1/campaigns/"+campaignUUID+"/send"), campaignUUID, &req, metadata)
	if err != nil {
		if businessflow.IsInvalidContactBounds(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid last-contact bounds", "INVALID_CONTACT_BOUNDS", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", dto.ErrorCampaignNotFound, nil)
		}
		if businessflow.IsCampaignAlreadySent(err) {
			return errorResponse(c, fiber.StatusConflict, "Campaign has already been sent", dto.ErrorCampaignAlreadySent, nil)
		}
		if businessflow.IsSendInProgress(err) {
			return errorResponse(c, fiber.StatusConflict, "A send is already in progress for this campaign", dto.ErrorSendInProgress, nil)
		}
		if businessflow.IsProviderNotReady(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Email provider is not configured", "CONFIGURATION_ERROR", nil)
		}
		if businessflow.IsDispatcherShutdown(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Send queue is unavailable", "SEND_QUEUE_FAILED", nil)
		}

		log.Println("Campaign send failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign send failed", "CAMPAIGN_SEND_FAILED", nil)
	}

	return successResponse(c, fiber.StatusAccepted, "Campaign send started", result)
}

// PreviewRecipients reports the audience a filter would select
// @Summary Preview Recipients
// @Description Return the matching donor count and a small sample without sending anything
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body dto.PreviewRecipientsRequest true "Audience filters"
// @Success 200 {object} dto.APIResponse{data=dto.PreviewRecipientsResponse} "Preview computed"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/campaigns/preview-recipients [post]
func (h *CampaignHandler) PreviewRecipients(c fiber.Ctx) error {
	var req dto.PreviewRecipientsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.campaignFlow.PreviewRecipients(requestContext(c, "/api/v1/campaigns/preview-recipients"), &req)
	if err != nil {
		if businessflow.IsInvalidContactBounds(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid last-contact bounds", "INVALID_CONTACT_BOUNDS", nil)
		}

		log.Println("Recipient preview failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Recipient preview failed", "RECIPIENT_PREVIEW_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Recipient preview computed", result)
}

// GetSendTaskStatus reports the state of a queued or finished send task
// @Summary Get Send Task Status
// @Description Poll the state of a background campaign send
// @Tags Campaigns
// @Produce json
// @Param task_id path string true "Send task ID"
// @Success 200 {object} dto.APIResponse{data=dto.SendTaskStatusResponse} "Task status"
// @Failure 404 {object} dto.APIResponse "Task not found"
// @Router /api/v1/campaigns/send-status/{task_id} [get]
func (h *CampaignHandler) GetSendTaskStatus(c fiber.Ctx) error {
	taskID := c.Params("task_id")
	if taskID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Task ID is required", "MISSING_TASK_ID", nil)
	}

	result, err := h.campaignFlow.GetSendTaskStatus(requestContext(c, "/api/v1/campaigns/send-status/"+taskID), taskID)
	if err != nil {
		if businessflow.IsSendTaskNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Send task not found", dto.ErrorSendTaskNotFound, nil)
		}

		log.Println("Send task status fetch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Send task status fetch failed", "SEND_STATUS_FETCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Send task status fetched", result)
}
