package services

import (
	"context"
	"fmt"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"
)

const recentNotificationsLimit = 10

type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID string) (*dto.StudentDashboard, error)
	CompanyDashboard(ctx context.Context, companyID string) (*dto.CompanyDashboard, error)
	// ApplicationStats - заявки студента по статусам
	ApplicationStats(ctx context.Context, studentID string) (*dto.ApplicationStats, error)
}

type DashboardServiceImpl struct {
	store repositories.Store
	opts  Options
}

func NewDashboardService(store repositories.Store, opts Options) *DashboardServiceImpl {
	return &DashboardServiceImpl{store: store, opts: opts}
}

func (s *DashboardServiceImpl) StudentDashboard(ctx context.Context, studentID string) (*dto.StudentDashboard, error) {
	profile, err := s.profile(ctx, studentID, models.UserRoleStudent)
	if err != nil {
		return nil, err
	}
	completion := algorithms.CalculateCompletion(profile, s.opts.WeightsFor(profile.Role))

	counts, err := s.store.Applications().CountByStatus(ctx, repositories.ApplicationScope{StudentID: studentID})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	// total из ListOpen, сами проекты не нужны
	_, openProjects, err := s.store.Projects().ListOpen(ctx, repositories.ProjectFilter{
		Pagination: repositories.Pagination{Page: 1, Limit: 1},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	dashboard := &dto.StudentDashboard{
		Verification:      verificationSummary(profile),
		ProfileCompletion: dto.CompletionSummary{Percentage: completion.Percentage, MissingSections: completion.MissingSections},
		Documents:         profile.DocumentMap(),
		Applications:      dto.NewApplicationStats(counts),
		OpenProjects:      openProjects,
		Alerts:            profileAlerts(profile, completion.Percentage),
	}
	if profile.VerificationStatus == models.VerificationStatusApproved && dashboard.Applications.Total == 0 {
		dashboard.Alerts = append(dashboard.Alerts, dto.Alert{Level: "info",
			Message: "Browse open projects and send your first application"})
	}

	dashboard.RecentNotifications, dashboard.UnreadNotifications, err = s.notifications(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (s *DashboardServiceImpl) CompanyDashboard(ctx context.Context, companyID string) (*dto.CompanyDashboard, error) {
	profile, err := s.profile(ctx, companyID, models.UserRoleCompany)
	if err != nil {
		return nil, err
	}
	completion := algorithms.CalculateCompletion(profile, s.opts.WeightsFor(profile.Role))

	projectCounts, err := s.store.Projects().CountByStatus(ctx, companyID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	appCounts, err := s.store.Applications().CountByStatus(ctx, repositories.ApplicationScope{CompanyID: companyID})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	dashboard := &dto.CompanyDashboard{
		CompanyName:       profile.CompanyInfo.Data().CompanyName,
		Verification:      verificationSummary(profile),
		ProfileCompletion: dto.CompletionSummary{Percentage: completion.Percentage, MissingSections: completion.MissingSections},
		Documents:         profile.DocumentMap(),
		Projects:          dto.NewProjectStats(projectCounts),
		Applications:      dto.NewApplicationStats(appCounts),
		Alerts:            profileAlerts(profile, completion.Percentage),
	}
	if profile.VerificationStatus == models.VerificationStatusApproved && dashboard.Projects.Total == 0 {
		dashboard.Alerts = append(dashboard.Alerts, dto.Alert{Level: "info", Message: "Post your first project"})
	}
	waiting := appCounts[models.ApplicationStatusPending] + appCounts[models.ApplicationStatusShortlisted]
	if waiting > 0 {
		dashboard.Alerts = append(dashboard.Alerts, dto.Alert{Level: "info",
			Message: fmt.Sprintf("%d application(s) are waiting for your decision", waiting)})
	}

	dashboard.RecentNotifications, dashboard.UnreadNotifications, err = s.notifications(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (s *DashboardServiceImpl) ApplicationStats(ctx context.Context, studentID string) (*dto.ApplicationStats, error) {
	counts, err := s.store.Applications().CountByStatus(ctx, repositories.ApplicationScope{StudentID: studentID})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	stats := dto.NewApplicationStats(counts)
	return &stats, nil
}

func (s *DashboardServiceImpl) profile(ctx context.Context, userID string, role models.UserRole) (*models.Profile, error) {
	profile, err := profileOrError(s.store.Profiles().FindByUserID(ctx, userID))
	if err != nil {
		return nil, err
	}
	if profile.Role != role {
		return nil, apperrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *DashboardServiceImpl) notifications(ctx context.Context, userID string) ([]*dto.NotificationResponse, int64, error) {
	list, _, err := s.store.Notifications().FindByUser(ctx, userID, false,
		repositories.Pagination{Page: 1, Limit: recentNotificationsLimit})
	if err != nil {
		return nil, 0, apperrors.DatabaseError(err)
	}
	unread, err := s.store.Notifications().CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.DatabaseError(err)
	}

	out := make([]*dto.NotificationResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewNotificationResponse(&list[i]))
	}
	return out, unread, nil
}

var verificationMessages = map[models.VerificationStatus]string{
	models.VerificationStatusIncomplete: "Complete your profile and submit it for verification",
	models.VerificationStatusSubmitted:  "Your profile is under review",
	models.VerificationStatusApproved:   "Your profile is verified",
	models.VerificationStatusRejected:   "Verification was rejected. Update your profile and submit it again",
}

func verificationSummary(profile *models.Profile) dto.VerificationSummary {
	return dto.VerificationSummary{
		Status:          profile.VerificationStatus,
		StatusMessage:   verificationMessages[profile.VerificationStatus],
		SubmittedAt:     profile.SubmittedAt,
		VerifiedAt:      profile.VerifiedAt,
		RejectionReason: profile.RejectionReason,
	}
}

// profileAlerts - следующий шаг по верификации
func profileAlerts(profile *models.Profile, completion int) []dto.Alert {
	alerts := []dto.Alert{}
	switch profile.VerificationStatus {
	case models.VerificationStatusIncomplete:
		if completion < 100 {
			alerts = append(alerts, dto.Alert{Level: "warning",
				Message: fmt.Sprintf("Your profile is %d%% complete. Finish it to submit for verification", completion)})
		} else {
			alerts = append(alerts, dto.Alert{Level: "info", Message: "Your profile is complete. Submit it for verification"})
		}
	case models.VerificationStatusSubmitted:
		alerts = append(alerts, dto.Alert{Level: "info", Message: "Your profile is awaiting admin review"})
	case models.VerificationStatusRejected:
		alerts = append(alerts, dto.Alert{Level: "warning", Message: "Verification rejected: " + profile.RejectionReason})
	}
	return alerts
}
