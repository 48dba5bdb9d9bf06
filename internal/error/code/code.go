package code

// HTTP status codes.
const (
	// StatusOK - 200
	StatusOK = 200
	// StatusCreated - 201
	StatusCreated = 201
	// StatusBadRequest - 400
	StatusBadRequest = 400
	// StatusUnauthorized - 401
	StatusUnauthorized = 401
	// StatusForbidden - 403
	StatusForbidden = 403
	// StatusNotFound - 404
	StatusNotFound = 404
	// StatusConflict - 409
	StatusConflict = 409
	// StatusRequestEntityTooLarge - 413
	StatusRequestEntityTooLarge = 413
	// StatusUnsupportedMediaType - 415
	StatusUnsupportedMediaType = 415
	// StatusTooManyRequests - 429
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500
	StatusInternalServerError = 500
)

// Common codes (100xxx).
const (
	// ErrSuccess - 200
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500
	ErrUnknown
	// ErrBind - 400: request body could not be bound.
	ErrBind
	// ErrValidation - 400: request failed validation.
	ErrValidation
	// ErrTokenInvalid - 401
	ErrTokenInvalid
	// ErrTooManyRequests - 429
	ErrTooManyRequests
	// ErrPermissionDenied - 403
	ErrPermissionDenied
)

// Owner and auth codes (101xxx).
const (
	// ErrOwnerNotFound - 404
	ErrOwnerNotFound int = iota + 101000
	// ErrOwnerAlreadyExist - 409
	ErrOwnerAlreadyExist
	// ErrInvalidCredentials - 401
	ErrInvalidCredentials
	// ErrTemporaryPassword - 403: the session must change its password first.
	ErrTemporaryPassword
	// ErrAlreadyRegistered - 409
	ErrAlreadyRegistered
	// ErrTokenExpired - 401: outside the refresh window.
	ErrTokenExpired
	// ErrInvalidRegistrationCode - 403
	ErrInvalidRegistrationCode
)

// Billing codes (102xxx).
const (
	// ErrAccountNotFound - 404
	ErrAccountNotFound int = iota + 102000
	// ErrRateNotFound - 404
	ErrRateNotFound
	// ErrYearlyRateExists - 409
	ErrYearlyRateExists
	// ErrInvalidAmount - 400
	ErrInvalidAmount
	// ErrCardNotFound - 404
	ErrCardNotFound
	// ErrPaymentNotFound - 404
	ErrPaymentNotFound
)

// Content codes (103xxx).
const (
	// ErrMessageNotFound - 404
	ErrMessageNotFound int = iota + 103000
	// ErrAnnouncementNotFound - 404
	ErrAnnouncementNotFound
	// ErrDocumentNotFound - 404
	ErrDocumentNotFound
	// ErrFileTooLarge - 413
	ErrFileTooLarge
	// ErrUnsupportedFileType - 415
	ErrUnsupportedFileType
	// ErrInvalidReply - 400
	ErrInvalidReply
)

// Survey codes (104xxx).
const (
	// ErrSurveyNotFound - 404
	ErrSurveyNotFound int = iota + 104000
	// ErrSurveyClosed - 400
	ErrSurveyClosed
	// ErrAlreadyResponded - 409
	ErrAlreadyResponded
	// ErrInvalidAnswer - 400
	ErrInvalidAnswer
)

// Database codes (105xxx).
const (
	// ErrDatabase - 500
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404
	ErrRecordNotFound
)

// Board codes (106xxx).
const (
	// ErrRoleNotFound - 404
	ErrRoleNotFound int = iota + 106000
	// ErrActiveRoleExists - 409
	ErrActiveRoleExists
	// ErrNoActiveRole - 404
	ErrNoActiveRole
	// ErrCannotEndRole - 403: system owner or the actor's own role.
	ErrCannotEndRole
	// ErrJobNotFound - 404
	ErrJobNotFound
	// ErrJobRunning - 409: another instance holds the job lock.
	ErrJobRunning
)
