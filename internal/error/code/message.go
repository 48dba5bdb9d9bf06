package code

var codeMessageMap = map[int]string{
	ErrSuccess:          "success",
	ErrUnknown:          "internal server error",
	ErrBind:             "invalid request parameters",
	ErrValidation:       "request validation failed",
	ErrTokenInvalid:     "invalid authentication token",
	ErrTooManyRequests:  "too many requests, please try again later",
	ErrPermissionDenied: "permission denied",

	ErrOwnerNotFound:           "owner not found",
	ErrOwnerAlreadyExist:       "an owner with this email already exists",
	ErrInvalidCredentials:      "invalid email or password",
	ErrTemporaryPassword:       "temporary password must be changed",
	ErrAlreadyRegistered:       "account is already registered",
	ErrTokenExpired:            "token can no longer be refreshed",
	ErrInvalidRegistrationCode: "invalid registration code",

	ErrAccountNotFound:  "account not found",
	ErrRateNotFound:     "rate not found",
	ErrYearlyRateExists: "a yearly assessment rate already exists for this year",
	ErrInvalidAmount:    "amount must be greater than zero",
	ErrCardNotFound:     "credit card not found",
	ErrPaymentNotFound:  "payment not found",

	ErrMessageNotFound:      "message not found",
	ErrAnnouncementNotFound: "announcement not found",
	ErrDocumentNotFound:     "document not found",
	ErrFileTooLarge:         "file is too large",
	ErrUnsupportedFileType:  "file type is not allowed",
	ErrInvalidReply:         "cannot reply to this message",

	ErrSurveyNotFound:   "survey not found",
	ErrSurveyClosed:     "survey is closed",
	ErrAlreadyResponded: "you have already responded to this survey",
	ErrInvalidAnswer:    "invalid survey answer",

	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",

	ErrRoleNotFound:     "board member role not found",
	ErrActiveRoleExists: "owner already holds an active board member role",
	ErrNoActiveRole:     "owner has no active board member role",
	ErrCannotEndRole:    "this board member role cannot be ended",
	ErrJobNotFound:      "job not found",
	ErrJobRunning:       "job is already running",
}

var codeStatusMap = map[int]int{
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrTooManyRequests:  StatusTooManyRequests,
	ErrPermissionDenied: StatusForbidden,

	ErrOwnerNotFound:           StatusNotFound,
	ErrOwnerAlreadyExist:       StatusConflict,
	ErrInvalidCredentials:      StatusUnauthorized,
	ErrTemporaryPassword:       StatusForbidden,
	ErrAlreadyRegistered:       StatusConflict,
	ErrTokenExpired:            StatusUnauthorized,
	ErrInvalidRegistrationCode: StatusForbidden,

	ErrAccountNotFound:  StatusNotFound,
	ErrRateNotFound:     StatusNotFound,
	ErrYearlyRateExists: StatusConflict,
	ErrInvalidAmount:    StatusBadRequest,
	ErrCardNotFound:     StatusNotFound,
	ErrPaymentNotFound:  StatusNotFound,

	ErrMessageNotFound:      StatusNotFound,
	ErrAnnouncementNotFound: StatusNotFound,
	ErrDocumentNotFound:     StatusNotFound,
	ErrFileTooLarge:         StatusRequestEntityTooLarge,
	ErrUnsupportedFileType:  StatusUnsupportedMediaType,
	ErrInvalidReply:         StatusBadRequest,

	ErrSurveyNotFound:   StatusNotFound,
	ErrSurveyClosed:     StatusBadRequest,
	ErrAlreadyResponded: StatusConflict,
	ErrInvalidAnswer:    StatusBadRequest,

	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	ErrRoleNotFound:     StatusNotFound,
	ErrActiveRoleExists: StatusConflict,
	ErrNoActiveRole:     StatusNotFound,
	ErrCannotEndRole:    StatusForbidden,
	ErrJobNotFound:      StatusNotFound,
	ErrJobRunning:       StatusConflict,
}

// GetMessage returns the default message of a code
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "internal server error"
}

// GetStatus returns the HTTP status of a code
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
