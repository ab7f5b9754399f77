// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandlerInterface defines the contract for report handlers
type ReportHandlerInterface interface {
	ExportDonors(c fiber.Ctx) error
	ExportDonations(c fiber.Ctx) error
}

// ReportHandler handles Excel export HTTP requests
type ReportHandler struct {
	reportFlow businessflow.ReportFlow
	validator  *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportFlow businessflow.ReportFlow) *ReportHandler {
	return &ReportHandler{
		reportFlow: reportFlow,
		validator:  validator.New(),
	}
}

// ExportDonors streams a donor listing as an Excel workbook
// @Summary Export Donors
// @Description Download the filtered donor list as an .xlsx file
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param help_type query string false "Help type filter" Enums(financial, physical, both)
// @Param last_contact_after query string false "Inclusive lower last-contact bound (RFC3339)"
// @Param last_contact_before query string false "Inclusive upper last-contact bound (RFC3339)"
// @Success 200 {file} binary "Excel workbook"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/reports/donors [get]
func (h *ReportHandler) ExportDonors(c fiber.Ctx) error {
	var req dto.DonorReportRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	filename, data, err := h.reportFlow.ExportDonors(requestContext(c, "/api/v1/reports/donors"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidContactBounds(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid last-contact bounds", "INVALID_CONTACT_BOUNDS", nil)
		}

		log.Println("Donor export failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donor export failed", "DONOR_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(data)
}

// ExportDonations streams a donation listing as an Excel workbook
// @Summary Export Donations
// @Description Download the filtered donation list, with per-currency totals, as an .xlsx file
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param currency query string false "Currency filter (ISO 4217)"
// @Param date_after query string false "Inclusive lower date bound (RFC3339)"
// @Param date_before query string false "Inclusive upper date bound (RFC3339)"
// @Success 200 {file} binary "Excel workbook"
// @Failure 400 {object} dto.APIResponse "Invalid filters"
// @Router /api/v1/reports/donations [get]
func (h *ReportHandler) ExportDonations(c fiber.Ctx) error {
	var req dto.DonationReportRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	filename, data, err := h.reportFlow.ExportDonations(requestContext(c, "/api/v1/reports/donations"), &req, metadata)
	if err != nil {
		log.Println("Donation export failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Donation export failed", "DONATION_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(data)
}
