package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки бизнес-логики. Сервисы возвращают их как есть
или через WithMessage/WithDetails, хэндлеры превращают их в конверт
{success:false, message}.
*/

// --- Auth & Identity ---

// ErrDuplicateEmail - email уже зарегистрирован.
var ErrDuplicateEmail = New(
	CodeDuplicateEmail,
	"auth",
	"Email already registered",
	http.StatusConflict,
)

// ErrInvalidCredentials - неверный email или пароль.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrRoleMismatch - заявленная при логине роль не совпадает с ролью аккаунта.
var ErrRoleMismatch = New(
	CodeRoleMismatch,
	"auth",
	"Role does not match this account",
	http.StatusForbidden,
)

// ErrEmailNotVerified - email не подтвержден через OTP.
var ErrEmailNotVerified = New(
	CodeEmailNotVerified,
	"auth",
	"Email not verified. Please verify your email with the OTP sent to you",
	http.StatusForbidden,
)

// ErrInvalidOTP - код не совпал или активного кода нет.
var ErrInvalidOTP = New(
	CodeInvalidOTP,
	"otp",
	"Invalid OTP",
	http.StatusBadRequest,
)

// ErrExpiredOTP - срок действия кода истек.
var ErrExpiredOTP = New(
	CodeExpiredOTP,
	"otp",
	"OTP has expired. Please request a new one",
	http.StatusBadRequest,
)

// ErrOTPTooSoon - повторная отправка раньше допустимого интервала.
var ErrOTPTooSoon = New(
	CodeRateLimited,
	"otp",
	"OTP was sent recently. Please wait before requesting a new one",
	http.StatusTooManyRequests,
)

// ErrUnauthenticated - токен отсутствует, истек или отозван.
var ErrUnauthenticated = New(
	CodeUnauthenticated,
	"auth",
	"Authentication required",
	http.StatusUnauthorized,
)

// ErrUnauthorized - роль или владение ресурсом не подходят.
var ErrUnauthorized = New(
	CodeUnauthorized,
	"auth",
	"You are not allowed to perform this action",
	http.StatusForbidden,
)

// ErrRateLimited - превышен лимит запросов.
var ErrRateLimited = New(
	CodeRateLimited,
	"request",
	"Too many requests",
	http.StatusTooManyRequests,
)

// --- Profile ---

// ErrIncompleteProfile - профиль заполнен не на 100%.
var ErrIncompleteProfile = New(
	CodeIncompleteProfile,
	"profile",
	"Profile is not 100% complete",
	http.StatusBadRequest,
)

// ErrUnverifiedCompany - профиль компании не одобрен администратором.
var ErrUnverifiedCompany = New(
	CodeUnverifiedCompany,
	"profile",
	"Company profile is not verified",
	http.StatusForbidden,
)

// ErrUnverifiedStudent - профиль студента не одобрен администратором.
var ErrUnverifiedStudent = New(
	CodeUnverifiedStudent,
	"profile",
	"Student profile is not verified",
	http.StatusForbidden,
)

// ErrProfileNotFound - у аккаунта нет профиля.
var ErrProfileNotFound = New(
	CodeNotFound,
	"profile",
	"Profile not found",
	http.StatusNotFound,
)

// --- Projects & Applications ---

// ErrProjectNotFound - проект не найден.
var ErrProjectNotFound = New(
	CodeNotFound,
	"project",
	"Project not found",
	http.StatusNotFound,
)

// ErrProjectNotOpen - проект не принимает заявки.
var ErrProjectNotOpen = New(
	CodeProjectNotOpen,
	"project",
	"Project is not open for applications",
	http.StatusConflict,
)

// ErrApplicationNotFound - заявка не найдена.
var ErrApplicationNotFound = New(
	CodeNotFound,
	"application",
	"Application not found",
	http.StatusNotFound,
)

// ErrNotPending - заявка уже не в ожидающем статусе.
var ErrNotPending = New(
	CodeNotPending,
	"application",
	"Application is not pending",
	http.StatusConflict,
)

// ErrAlreadyAssigned - проект уже назначен другому студенту.
var ErrAlreadyAssigned = New(
	CodeAlreadyAssigned,
	"application",
	"Project is already assigned",
	http.StatusConflict,
)

// ErrDuplicateApplication - студент уже подал заявку на этот проект.
var ErrDuplicateApplication = New(
	CodeDuplicateApplication,
	"application",
	"You have already applied to this project",
	http.StatusConflict,
)

// --- Uploads ---

// ErrFileTooLarge - файл превышает допустимый размер.
var ErrFileTooLarge = New(
	CodeFileTooLarge,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType - MIME-тип файла не разрешен.
var ErrInvalidFileType = New(
	CodeInvalidFileType,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// --- Notifications ---

// ErrNotificationNotFound - уведомление не найдено или чужое.
var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)
