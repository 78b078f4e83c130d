package models

type UserRole string
type ApprovalStatus string
type VerificationStatus string
type ProjectStatus string
type ApplicationStatus string
type OTPPurpose string

const (
	UserRoleStudent UserRole = "student"
	UserRoleCompany UserRole = "company"
	UserRoleAdmin   UserRole = "admin"

	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"

	VerificationStatusIncomplete VerificationStatus = "incomplete"
	VerificationStatusSubmitted  VerificationStatus = "submitted"
	VerificationStatusApproved   VerificationStatus = "approved"
	VerificationStatusRejected   VerificationStatus = "rejected"

	ProjectStatusOpen     ProjectStatus = "open"
	ProjectStatusAssigned ProjectStatus = "assigned"
	ProjectStatusClosed   ProjectStatus = "closed"

	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusAccepted    ApplicationStatus = "accepted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn   ApplicationStatus = "withdrawn"

	OTPPurposeSignup OTPPurpose = "signup"
	OTPPurposeVerify OTPPurpose = "verify"
	OTPPurposeReset  OTPPurpose = "reset"
)

// IsSignupRole - роли, доступные при самостоятельной регистрации
func (r UserRole) IsSignupRole() bool {
	return r == UserRoleStudent || r == UserRoleCompany
}

func (r UserRole) IsValid() bool {
	return r.IsSignupRole() || r == UserRoleAdmin
}

// IsTerminal: accepted, rejected и withdrawn больше не меняются
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	default:
		return false
	}
}

var AllProjectStatuses = []ProjectStatus{ProjectStatusOpen, ProjectStatusAssigned, ProjectStatusClosed}

var AllApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusShortlisted,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// OutstandingApplicationStatuses - заявки, которые ждут решения компании
var OutstandingApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusShortlisted,
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusAssigned, ProjectStatusClosed:
		return true
	default:
		return false
	}
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusShortlisted, ApplicationStatusAccepted,
		ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	default:
		return false
	}
}

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusIncomplete, VerificationStatusSubmitted,
		VerificationStatusApproved, VerificationStatusRejected:
		return true
	default:
		return false
	}
}

// CanSubmit: отправить на проверку можно из incomplete или после отказа
func (s VerificationStatus) CanSubmit() bool {
	return s == VerificationStatusIncomplete || s == VerificationStatusRejected
}
