package services

import "errors"

// Errors returned by the services. Controllers map them to response codes.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")

	ErrOwnerNotFound           = errors.New("owner not found")
	ErrOwnerAlreadyExists      = errors.New("an owner with this email already exists")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrAlreadyRegistered       = errors.New("account is already registered")
	ErrInvalidRegistrationCode = errors.New("invalid registration code")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenExpired            = errors.New("token is outside the refresh window")

	ErrAccountNotFound  = errors.New("account not found")
	ErrRateNotFound     = errors.New("rate not found")
	ErrYearlyRateExists = errors.New("a yearly assessment rate already exists for this year")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrCardNotFound     = errors.New("credit card not found")
	ErrPaymentNotFound  = errors.New("payment not found")

	ErrMessageNotFound      = errors.New("message not found")
	ErrInvalidReply         = errors.New("cannot reply to this message")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrFileTooLarge         = errors.New("file is too large")
	ErrUnsupportedFileType  = errors.New("file type is not allowed")

	ErrSurveyNotFound   = errors.New("survey not found")
	ErrSurveyClosed     = errors.New("survey is closed")
	ErrAlreadyResponded = errors.New("owner already responded to this survey")
	ErrInvalidAnswer    = errors.New("invalid survey answer")

	ErrRoleNotFound     = errors.New("board member role not found")
	ErrActiveRoleExists = errors.New("owner already holds an active board member role")
	ErrNoActiveRole     = errors.New("owner has no active board member role")
	ErrCannotEndRole    = errors.New("this board member role cannot be ended")

	ErrLockNotAcquired = errors.New("lock is held by another instance")
)

// ErrRecordNotFound is returned for rows that have no dedicated error
var ErrRecordNotFound = errors.New("record not found")
