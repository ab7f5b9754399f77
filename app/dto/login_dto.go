package dto

import (
	"time"
)

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email        string `json:"email" validate:"required,email,max=255" example:"admin@example.org"`
	Password     string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	CaptchaID    string `json:"captcha_id" validate:"required" example:"b3a1f8d2"`
	CaptchaAngle int    `json:"captcha_angle" validate:"required" example:"153"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Login successful"`
	Data    struct {
		AccessToken  string    `json:"access_token"`
		RefreshToken string    `json:"refresh_token"`
		TokenType    string    `json:"token_type" example:"Bearer"`
		ExpiresIn    int       `json:"expires_in" example:"86400"`
		User         UserInfo  `json:"user"`
		ExpiresAt    time.Time `json:"expires_at"`
	} `json:"data"`
}

// UserInfo represents user information returned in login response
type UserInfo struct {
	ID          uint       `json:"id" example:"1"`
	UUID        string     `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string     `json:"name" example:"Ada Operator"`
	Email       string     `json:"email" example:"admin@example.org"`
	IsActive    *bool      `json:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   string     `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// GenerateCaptchaResponse carries a rotate-captcha challenge
type GenerateCaptchaResponse struct {
	CaptchaID   string `json:"captcha_id"`
	MasterImage string `json:"master_image"`
	ThumbImage  string `json:"thumb_image"`
	ExpiresIn   int    `json:"expires_in" example:"120"`
}

// Common error codes for login operations
const (
	ErrorUserNotFound      = "USER_NOT_FOUND"
	ErrorIncorrectPassword = "INCORRECT_PASSWORD"
	ErrorAccountInactive   = "ACCOUNT_INACTIVE"
	ErrorCaptchaInvalid    = "CAPTCHA_INVALID"
)

func (dto *LoginResponse) SetUserInfo(user UserInfo) {
	dto.Data.User = user
}
