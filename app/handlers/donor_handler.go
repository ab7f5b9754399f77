// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

// DonorHandlerInterface defines the contract for donor handlers
type DonorHandlerInterface interface {
	CreateDonor(c fiber.Ctx) error
	GetDonor(c fiber.Ctx) error
	ListDonors(c fiber.Ctx) error
	UpdateDonor(c fiber.Ctx) error
	DeleteDonor(c fiber.Ctx) error
}

// DonorHandler handles donor-related HTTP requests
type DonorHandler struct {
	donorFlow businessflow.DonorFlow
	validator *validator.Validate
}

// NewDonorHandler creates a new donor handler
func NewDonorHandler(donorFlow businessflow.DonorFlow) *DonorHandler {
	return &DonorHandler{
		donorFlow: donorFlow,
		validator: validator.New(),
	}
}

// CreateDonor registers a new donor
// @Summary Create Donor
// @Description Register a new donor with contact details and help category
// @Tags Donors
// @Accept json
// @Produce json
// @Param request body dto.CreateDonorRequest true "Donor data"
// @Success 201 {object} dto.APIResponse{data=dto.DonorResponse} "Donor created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already registered"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/donors [post]
func (h *DonorHandler) CreateDonor(c fiber.Ctx) error {
	var req dto.CreateDonorRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.donorFlow.CreateDonor(requestContext(c, "/api/v1/donors"), &req, metadata)
	if err != nil {
		if businessflow.IsDonorEmailAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "A donor with this email already exists", dto.ErrorDonorEmailAlreadyExists, nil)
		}

		log.Println("Donor creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor creation failed", "DONOR_CREATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Donor created successfully", result)
}

// GetDonor fetches a single donor
// @Summary Get Donor
// @Description Fetch a donor by UUID
// @Tags Donors
// @Produce json
// @Param uuid path string true "Donor UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DonorResponse} "Donor found"
// @Failure 404 {object} dto.APIResponse "Donor not found"
// @Router /api/v1/donors/{uuid} [get]
func (h *DonorHandler) GetDonor(c fiber.Ctx) error {
	donorUUID := c.Params("uuid")
	if donorUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donor UUID is required", "MISSING_DONOR_UUID", nil)
	}

	result, err := h.donorFlow.GetDonor(requestContext(c, "/api/v1/donors/"+donorUUID), donorUUID)
	if err != nil {
		if businessflow.IsDonorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donor not found", dto.ErrorDonorNotFound, nil)
		}

		log.Println("Donor fetch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor fetch failed", "DONOR_FETCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donor fetched successfully", result)
}

// ListDonors returns a paginated donor listing
// @Summary List Donors
// @Description List donors with optional name, help-type, and last-contact filters
// @Tags Donors
// @Produce json
// @Param name query string false "Name substring filter"
// @Param help_type query string false "Help type filter" Enums(financial, physical, both)
// @Param last_contact_after query string false "Inclusive lower last-contact bound (RFC3339)"
// @Param last_contact_before query string false "Inclusive upper last-contact bound (RFC3339)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListDonorsResponse} "Donors listed"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/donors [get]
func (h *DonorHandler) ListDonors(c fiber.Ctx) error {
	var req dto.ListDonorsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.donorFlow.ListDonors(requestContext(c, "/api/v1/donors"), &req)
	if err != nil {
		if businessflow.IsInvalidContactBounds(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid last-contact bounds", "INVALID_CONTACT_BOUNDS", nil)
		}

		log.Println("Donor listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor listing failed", "DONOR_LISTING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donors listed successfully", result)
}

// UpdateDonor applies a partial update to a donor
// @Summary Update Donor
// @Description Update donor fields; omitted fields are unchanged
// @Tags Donors
// @Accept json
// @Produce json
// @Param uuid path string true "Donor UUID"
// @Param request body dto.UpdateDonorRequest true "Donor update data"
// @Success 200 {object} dto.APIResponse{data=dto.DonorResponse} "Donor updated"
// @Failure 404 {object} dto.APIResponse "Donor not found"
// @Failure 409 {object} dto.APIResponse "Email already registered"
// @Router /api/v1/donors/{uuid} [put]
func (h *DonorHandler) UpdateDonor(c fiber.Ctx) error {
	donorUUID := c.Params("uuid")
	if donorUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donor UUID is required", "MISSING_DONOR_UUID", nil)
	}

	var req dto.UpdateDonorRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.donorFlow.UpdateDonor(requestContext(c, "/api/v1/donors/"+donorUUID), donorUUID, &req, metadata)
	if err != nil {
		if businessflow.IsDonorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donor not found", dto.ErrorDonorNotFound, nil)
		}
		if businessflow.IsDonorEmailAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "A donor with this email already exists", dto.ErrorDonorEmailAlreadyExists, nil)
		}

		log.Println("Donor update failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor update failed", "DONOR_UPDATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donor updated successfully", result)
}

// DeleteDonor removes a donor record
// @Summary Delete Donor
// @Description Delete a donor and its donations
// @Tags Donors
// @Produce json
// @Param uuid path string true "Donor UUID"
// @Success 200 {object} dto.APIResponse "Donor deleted"
// @Failure 404 {object} dto.APIResponse "Donor not found"
// @Router /api/v1/donors/{uuid} [delete]
func (h *DonorHandler) DeleteDonor(c fiber.Ctx) error {
	donorUUID := c.Params("uuid")
	if donorUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donor UUID is required", "MISSING_DONOR_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	if err := h.donorFlow.DeleteDonor(requestContext(c, "/api/v1/donors/"+donorUUID), donorUUID, metadata); err != nil {
		if businessflow.IsDonorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donor not found", dto.ErrorDonorNotFound, nil)
		}

		log.Println("Donor deletion failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor deletion failed", "DONOR_DELETION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donor deleted successfully", nil)
}
