// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

// DonationHandlerInterface defines the contract for donation handlers
type DonationHandlerInterface interface {
	RecordDonation(c fiber.Ctx) error
	GetDonation(c fiber.Ctx) error
	ListDonations(c fiber.Ctx) error
	UpdateDonation(c fiber.Ctx) error
	DeleteDonation(c fiber.Ctx) error
}

// DonationHandler handles donation-related HTTP requests
type DonationHandler struct {
	donationFlow businessflow.DonationFlow
	validator    *validator.Validate
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(donationFlow businessflow.DonationFlow) *DonationHandler {
	return &DonationHandler{
		donationFlow: donationFlow,
		validator:    validator.New(),
	}
}

// RecordDonation stores a new donation against a donor
// @Summary Record Donation
// @Description Record a donation for an existing donor; advances the donor's last-contact date when newer
// @Tags Donations
// @Accept json
// @Produce json
// @Param request body dto.CreateDonationRequest true "Donation data"
// @Success 201 {object} dto.APIResponse{data=dto.DonationResponse} "Donation recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Donor not found"
// @Failure 422 {object} dto.APIResponse "Amount not positive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/donations [post]
func (h *DonationHandler) RecordDonation(c fiber.Ctx) error {
	var req dto.CreateDonationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.donationFlow.RecordDonation(requestContext(c, "/api/v1/donations"), &req, metadata)
	if err != nil {
		if businessflow.IsDonorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donor not found", dto.ErrorDonorNotFound, nil)
		}
		if businessflow.IsAmountNotPositive(err) {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Donation amount must be positive", dto.ErrorAmountNotPositive, nil)
		}

		log.Println("Donation recording failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation recording failed", "DONATION_RECORDING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Donation recorded successfully", result)
}

// GetDonation fetches a single donation
// @Summary Get Donation
// @Description Fetch a donation by UUID
// @Tags Donations
// @Produce json
// @Param uuid path string true "Donation UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DonationResponse} "Donation found"
// @Failure 404 {object} dto.APIResponse "Donation not found"
// @Router /api/v1/donations/{uuid} [get]
func (h *DonationHandler) GetDonation(c fiber.Ctx) error {
	donationUUID := c.Params("uuid")
	if donationUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donation UUID is required", "MISSING_DONATION_UUID", nil)
	}

	result, err := h.donationFlow.GetDonation(requestContext(c, "/api/v1/donations/"+donationUUID), donationUUID)
	if err != nil {
		if businessflow.IsDonationNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donation not found", dto.ErrorDonationNotFound, nil)
		}

		log.Println("Donation fetch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation fetch failed", "DONATION_FETCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donation fetched successfully", result)
}

// ListDonations returns a paginated donation listing with per-currency totals
// @Summary List Donations
// @Description List donations filtered by donor, currency, and date range
// @Tags Donations
// @Produce json
// @Param donor_uuid query string false "Donor UUID filter"
// @Param currency query string false "Currency filter (ISO 4217)"
// @Param date_after query string false "Inclusive lower date bound (RFC3339)"
// @Param date_before query string false "Inclusive upper date bound (RFC3339)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListDonationsResponse} "Donations listed"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/donations [get]
func (h *DonationHandler) ListDonations(c fiber.Ctx) error {
	var req dto.ListDonationsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.donationFlow.ListDonations(requestContext(c, "/api/v1/donations"), &req)
	if err != nil {
		if businessflow.IsDonorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donor not found", dto.ErrorDonorNotFound, nil)
		}

		log.Println("Donation listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation listing failed", "DONATION_LISTING_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donations listed successfully", result)
}

// UpdateDonation applies a partial update to a donation
// @Summary Update Donation
// @Description Update donation fields; omitted fields are unchanged
// @Tags Donations
// @Accept json
// @Produce json
// @Param uuid path string true "Donation UUID"
// @Param request body dto.UpdateDonationRequest true "Donation update data"
// @Success 200 {object} dto.APIResponse{data=dto.DonationResponse} "Donation updated"
// @Failure 404 {object} dto.APIResponse "Donation not found"
// @Failure 422 {object} dto.APIResponse "Amount not positive"
// @Router /api/v1/donations/{uuid} [put]
func (h *DonationHandler) UpdateDonation(c fiber.Ctx) error {
	donationUUID := c.Params("uuid")
	if donationUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donation UUID is required", "MISSING_DONATION_UUID", nil)
	}

	var req dto.UpdateDonationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.donationFlow.UpdateDonation(requestContext(c, "/api/v1/donations/"+donationUUID), donationUUID, &req, metadata)
	if err != nil {
		if businessflow.IsDonationNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donation not found", dto.ErrorDonationNotFound, nil)
		}
		if businessflow.IsAmountNotPositive(err) {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Donation amount must be positive", dto.ErrorAmountNotPositive, nil)
		}

		log.Println("Donation update failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation update failed", "DONATION_UPDATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donation updated successfully", result)
}

// DeleteDonation removes a donation record
// @Summary Delete Donation
// @Description Delete a donation by UUID
// @Tags Donations
// @Produce json
// @Param uuid path string true "Donation UUID"
// @Success 200 {object} dto.APIResponse "Donation deleted"
// @Failure 404 {object} dto.APIResponse "Donation not found"
// @Router /api/v1/donations/{uuid} [delete]
func (h *DonationHandler) DeleteDonation(c fiber.Ctx) error {
	donationUUID := c.Params("uuid")
	if donationUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Donation UUID is required", "MISSING_DONATION_UUID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	if err := h.donationFlow.DeleteDonation(requestContext(c, "/api/v1/donations/"+donationUUID), donationUUID, metadata); err != nil {
		if businessflow.IsDonationNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Donation not found", dto.ErrorDonationNotFound, nil)
		}

		log.Println("Donation deletion failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation deletion failed", "DONATION_DELETION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Donation deleted successfully", nil)
}
