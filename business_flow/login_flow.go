// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/app/services"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// LoginFlow handles operator authentication
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	GenerateCaptcha(ctx context.Context) (*dto.GenerateCaptchaResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo       repository.UserRepository
	auditRepo      repository.AuditLogRepository
	tokenService   services.TokenService
	captchaService services.CaptchaService
	captchaEnabled bool
	db             *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaService services.CaptchaService,
	captchaEnabled bool,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		tokenService:   tokenService,
		captchaService: captchaService,
		captchaEnabled: captchaEnabled,
		db:             db,
	}
}

// Login authenticates an operator with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	var user *models.User

	resp, err := lf.withLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		if lf.captchaEnabled && lf.captchaService != nil {
			if !lf.captchaService.Verify(ctx, request.CaptchaID, request.CaptchaAngle) {
				return nil, ErrCaptchaInvalid
			}
		}

		email := strings.ToLower(strings.TrimSpace(request.Email))
		var err error
		user, err = lf.userRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		if !user.CanLogin() {
			return nil, ErrAccountInactive
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		now := utils.UTCNow()
		if err := lf.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return nil, err
		}
		user.LastLoginAt = &now

		return lf.buildLoginResponse(*user)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		var userID *uint
		if user != nil {
			userID = &user.ID
		}
		_ = recordAudit(ctx, lf.auditRepo, userID, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", user.ID)
	_ = recordAudit(ctx, lf.auditRepo, &user.ID, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return resp, nil
}

// RefreshToken exchanges a refresh token for a fresh token pair
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := lf.tokenService.ValidateToken(refreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}

	user, err := lf.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrUserNotFound)
	}
	if !user.CanLogin() {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", ErrAccountInactive)
	}

	accessToken, newRefreshToken, err := lf.tokenService.RefreshToken(refreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}

	resp := &dto.LoginResponse{
		Success: true,
		Message: "Token refreshed",
	}
	resp.Data.AccessToken = accessToken
	resp.Data.RefreshToken = newRefreshToken
	resp.Data.TokenType = "Bearer"
	resp.Data.ExpiresIn = utils.AccessTokenTTLSeconds
	resp.Data.ExpiresAt = utils.UTCNowAdd(utils.AccessTokenTTL)
	resp.SetUserInfo(ToUserInfo(*user))

	return resp, nil
}

// GenerateCaptcha creates a rotate captcha challenge for the login form
func (lf *LoginFlowImpl) GenerateCaptcha(ctx context.Context) (*dto.GenerateCaptchaResponse, error) {
	if lf.captchaService == nil {
		return nil, NewBusinessError("CAPTCHA_UNAVAILABLE", "Captcha service is not configured", nil)
	}

	challenge, err := lf.captchaService.Generate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_GENERATION_FAILED", "Failed to generate captcha", err)
	}

	return &dto.GenerateCaptchaResponse{
		CaptchaID:   challenge.ID,
		MasterImage: challenge.MasterImageBase64,
		ThumbImage:  challenge.ThumbImageBase64,
		ExpiresIn:   int(lf.captchaService.TTL().Seconds()),
	}, nil
}

func (lf *LoginFlowImpl) buildLoginResponse(user models.User) (*dto.LoginResponse, error) {
	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.LoginResponse{
		Success: true,
		Message: "Login successful",
	}
	resp.Data.AccessToken = accessToken
	resp.Data.RefreshToken = refreshToken
	resp.Data.TokenType = "Bearer"
	resp.Data.ExpiresIn = utils.AccessTokenTTLSeconds
	resp.Data.ExpiresAt = utils.UTCNowAdd(utils.AccessTokenTTL)
	resp.SetUserInfo(ToUserInfo(user))

	return resp, nil
}

func (lf *LoginFlowImpl) withLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
