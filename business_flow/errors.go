// Package businessflow contains the core business logic and use cases for donor administration workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User/auth errors
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrCaptchaInvalid    = errors.New("captcha challenge failed")

	// Donor errors
	ErrDonorNotFound           = errors.New("donor not found")
	ErrDonorEmailAlreadyExists = errors.New("donor email already exists")

	// Donation errors
	ErrDonationNotFound  = errors.New("donation not found")
	ErrAmountNotPositive = errors.New("donation amount must be positive")

	// Campaign errors
	ErrCampaignNotFound         = errors.New("campaign not found")
	ErrCampaignAlreadySent      = errors.New("campaign already sent")
	ErrCampaignUpdateNotAllowed = errors.New("campaign update not allowed")
	ErrCampaignDeleteNotAllowed = errors.New("campaign delete not allowed")
	ErrEmptyAudience            = errors.New("no donors match the given filters")
	ErrSendInProgress           = errors.New("a send for this campaign is already in progress")

	// Dispatch errors
	ErrProviderFailure     = errors.New("email provider call failed")
	ErrProviderNotReady    = errors.New("email provider is not configured")
	ErrSendTaskNotFound    = errors.New("send task not found")
	ErrDispatcherShutdown  = errors.New("dispatcher is shutting down")
	ErrCacheNotAvailable   = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrInvalidContactBounds  = errors.New("last-contact upper bound cannot precede the lower bound")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsCaptchaInvalid(err error) bool {
	return errors.Is(err, ErrCaptchaInvalid)
}

func IsDonorNotFound(err error) bool {
	return errors.Is(err, ErrDonorNotFound)
}

func IsDonorEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrDonorEmailAlreadyExists)
}

func IsDonationNotFound(err error) bool {
	return errors.Is(err, ErrDonationNotFound)
}

func IsAmountNotPositive(err error) bool {
	return errors.Is(err, ErrAmountNotPositive)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignAlreadySent(err error) bool {
	return errors.Is(err, ErrCampaignAlreadySent)
}

func IsCampaignUpdateNotAllowed(err error) bool {
	return errors.Is(err, ErrCampaignUpdateNotAllowed)
}

func IsCampaignDeleteNotAllowed(err error) bool {
	return errors.Is(err, ErrCampaignDeleteNotAllowed)
}

func IsEmptyAudience(err error) bool {
	return errors.Is(err, ErrEmptyAudience)
}

func IsSendInProgress(err error) bool {
	return errors.Is(err, ErrSendInProgress)
}

func IsProviderFailure(err error) bool {
	return errors.Is(err, ErrProviderFailure)
}

func IsProviderNotReady(err error) bool {
	return errors.Is(err, ErrProviderNotReady)
}

func IsSendTaskNotFound(err error) bool {
	return errors.Is(err, ErrSendTaskNotFound)
}

func IsDispatcherShutdown(err error) bool {
	return errors.Is(err, ErrDispatcherShutdown)
}

func IsInvalidContactBounds(err error) bool {
	return errors.Is(err, ErrInvalidContactBounds)
}
