// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

// MediaHandlerInterface defines the contract for media handlers
type MediaHandlerInterface interface {
	UploadCampaignImage(c fiber.Ctx) error
	ServeCampaignImage(c fiber.Ctx) error
}

// MediaHandler handles campaign image uploads and serving
type MediaHandler struct {
	mediaFlow businessflow.MediaFlow
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaFlow businessflow.MediaFlow) *MediaHandler {
	return &MediaHandler{mediaFlow: mediaFlow}
}

// UploadCampaignImage accepts a multipart image for embedding in campaign bodies
// @Summary Upload Campaign Image
// @Description Upload an image; it is downscaled, re-encoded, and stored for use in campaign HTML
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file (jpg, jpeg, png, gif, webp)"
// @Success 201 {object} dto.APIResponse{data=dto.UploadCampaignImageResponse} "Image stored"
// @Failure 400 {object} dto.APIResponse "Missing or unsupported file"
// @Failure 413 {object} dto.APIResponse "File too large"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/media/campaign-images [post]
func (h *MediaHandler) UploadCampaignImage(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Image file is required", "MISSING_FILE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Println("Image upload open failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Image upload failed", "IMAGE_UPLOAD_FAILED", nil)
	}
	defer file.Close()

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.mediaFlow.UploadCampaignImage(requestContext(c, "/api/v1/media/campaign-images"), file, fileHeader.Filename, metadata)
	if err != nil {
		var bizErr *businessflow.BusinessError
		if errors.As(err, &bizErr) {
			switch bizErr.Code {
			case dto.ErrorImageTooLarge:
				return errorResponse(c, fiber.StatusRequestEntityTooLarge, bizErr.Message, bizErr.Code, nil)
			case dto.ErrorUnsupportedImage:
				return errorResponse(c, fiber.StatusBadRequest, bizErr.Message, bizErr.Code, nil)
			}
		}

		log.Println("Image upload failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Image upload failed", "IMAGE_UPLOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Image uploaded successfully", result)
}

// ServeCampaignImage serves a previously uploaded campaign image
// @Summary Serve Campaign Image
// @Description Serve a stored campaign image by file name
// @Tags Media
// @Produce image/jpeg
// @Produce image/png
// @Param file_name path string true "Stored image file name"
// @Success 200 {file} binary "Image bytes"
// @Failure 404 {object} dto.APIResponse "Image not found"
// @Router /api/v1/media/campaign-images/{file_name} [get]
func (h *MediaHandler) ServeCampaignImage(c fiber.Ctx) error {
	fileName := c.Params("file_name")
	if fileName == "" {
		return errorResponse(c, fiber.StatusBadRequest, "File name is required", "MISSING_FILE_NAME", nil)
	}

	contentType, data, err := h.mediaFlow.ReadCampaignImage(requestContext(c, "/api/v1/media/campaign-images/"+fileName), fileName)
	if err != nil {
		var bizErr *businessflow.BusinessError
		if errors.As(err, &bizErr) {
			switch bizErr.Code {
			case "IMAGE_NOT_FOUND":
				return errorResponse(c, fiber.StatusNotFound, "Image not found", bizErr.Code, nil)
			case "INVALID_PATH":
				return errorResponse(c, fiber.StatusBadRequest, "Invalid file name", bizErr.Code, nil)
			}
		}

		log.Println("Image serving failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Image serving failed", "IMAGE_SERVING_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(data)
}
