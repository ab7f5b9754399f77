// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/helpinghand/donor-admin/app/dto"
	businessflow "github.com/helpinghand/donor-admin/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	GetCaptcha(c fiber.Ctx) error
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	loginFlow businessflow.LoginFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(loginFlow businessflow.LoginFlow) *AuthHandler {
	return &AuthHandler{
		loginFlow: loginFlow,
		validator: validator.New(),
	}
}

// Login handles operator authentication
// @Summary Login
// @Description Authenticate an operator with email, password, and captcha
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.loginFlow.Login(requestContext(c, "/api/v1/auth/login"), &req, metadata)
	if err != nil {
		if businessflow.IsCaptchaInvalid(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Captcha challenge failed", dto.ErrorCaptchaInvalid, nil)
		}
		if businessflow.IsUserNotFound(err) || businessflow.IsIncorrectPassword(err) {
			// Same response for both to avoid account enumeration
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", dto.ErrorIncorrectPassword, nil)
		}
		if businessflow.IsAccountInactive(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Account is inactive", dto.ErrorAccountInactive, nil)
		}

		log.Println("Login failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// RefreshToken exchanges a refresh token for a fresh pair
// @Summary Refresh Token
// @Description Exchange a valid refresh token for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.LoginResponse "Token refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.loginFlow.RefreshToken(requestContext(c, "/api/v1/auth/refresh"), req.RefreshToken)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Token refresh failed", "TOKEN_REFRESH_FAILED", nil)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// GetCaptcha returns a rotate captcha challenge for the login form
// @Summary Get Captcha
// @Description Generate a rotate captcha challenge
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GenerateCaptchaResponse} "Captcha generated"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/captcha [get]
func (h *AuthHandler) GetCaptcha(c fiber.Ctx) error {
	result, err := h.loginFlow.GenerateCaptcha(requestContext(c, "/api/v1/auth/captcha"))
	if err != nil {
		log.Println("Captcha generation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Captcha generation failed", "CAPTCHA_GENERATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Captcha generated", result)
}
