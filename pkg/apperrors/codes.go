package apperrors

// ErrorCode - машинно-читаемый код ошибки, уходит клиенту в поле "code"
type ErrorCode string

// Сквозные коды
const (
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"
	CodeInvalidFileType  ErrorCode = "INVALID_FILE_TYPE"

	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
)

// Коды идентификации
const (
	CodeDuplicateEmail     ErrorCode = "DUPLICATE_EMAIL"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeRoleMismatch       ErrorCode = "ROLE_MISMATCH"
	CodeEmailNotVerified   ErrorCode = "EMAIL_NOT_VERIFIED"
	CodeInvalidOTP         ErrorCode = "INVALID_OTP"
	CodeExpiredOTP         ErrorCode = "EXPIRED_OTP"
)

// Коды профиля и маркетплейса
const (
	CodeIncompleteProfile    ErrorCode = "INCOMPLETE_PROFILE"
	CodeUnverifiedCompany    ErrorCode = "UNVERIFIED_COMPANY"
	CodeUnverifiedStudent    ErrorCode = "UNVERIFIED_STUDENT"
	CodeNotPending           ErrorCode = "NOT_PENDING"
	CodeAlreadyAssigned      ErrorCode = "ALREADY_ASSIGNED"
	CodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	CodeProjectNotOpen       ErrorCode = "PROJECT_NOT_OPEN"
)
