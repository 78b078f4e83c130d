package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/email"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"
)

const (
	siblingRejectReason       = "Another applicant was selected for this project"
	defaultApplicationRejects = "The company decided not to proceed with your application"
)

type ApplicationService interface {
	Apply(ctx context.Context, studentID, projectID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error)
	Shortlist(ctx context.Context, companyID, applicationID string) (*dto.ApplicationResponse, error)
	// Accept - единственный писатель на проект: замок проекта, FOR UPDATE и CAS по version
	Accept(ctx context.Context, companyID, applicationID string) (*dto.AcceptResult, error)
	Reject(ctx context.Context, companyID, applicationID, reason string) (*dto.ApplicationResponse, error)
	Withdraw(ctx context.Context, studentID, applicationID string) (*dto.ApplicationResponse, error)
	ListForProject(ctx context.Context, companyID, projectID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error)
	ListMine(ctx context.Context, studentID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error)
}

type ApplicationServiceImpl struct {
	store         repositories.Store
	locks         *ProjectLocks
	emailProvider email.Provider
	notifications NotificationService
	opts          Options
	now           func() time.Time
}

func NewApplicationService(
	store repositories.Store,
	locks *ProjectLocks,
	emailProvider email.Provider,
	notifications NotificationService,
	opts Options,
) *ApplicationServiceImpl {
	return &ApplicationServiceImpl{
		store:         store,
		locks:         locks,
		emailProvider: emailProvider,
		notifications: notifications,
		opts:          opts,
		now:           time.Now,
	}
}

// Apply проверяет предусловия строго по порядку: одобрение, 100%, проект, дубликат
func (s *ApplicationServiceImpl) Apply(ctx context.Context, studentID, projectID string, req *dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	profile, err := s.store.Profiles().FindByUserID(ctx, studentID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	if profile == nil || profile.Role != models.UserRoleStudent ||
		profile.VerificationStatus != models.VerificationStatusApproved {
		return nil, apperrors.ErrUnverifiedStudent
	}
	if completion := algorithms.CalculateCompletion(profile, s.opts.WeightsFor(profile.Role)); completion.Percentage < 100 {
		return nil, apperrors.ErrIncompleteProfile.WithDetails(map[string]interface{}{
			"profileCompletion": completion.Percentage,
			"missingSections":   completion.MissingSections,
		})
	}

	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	// Просроченный, но еще не закрытый воркером проект заявки уже не принимает
	if !project.IsOpen() || !project.Deadline.After(s.now()) {
		return nil, apperrors.ErrProjectNotOpen
	}

	exists, err := s.store.Applications().ExistsActive(ctx, projectID, studentID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateApplication
	}

	app := &models.Application{
		ProjectID:     projectID,
		StudentID:     studentID,
		CompanyID:     project.CompanyID,
		Proposal:      req.Proposal,
		ProposedPrice: req.ProposedPrice,
		EstimatedTime: req.EstimatedTime,
		Status:        models.ApplicationStatusPending,
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperrors.ErrDuplicateApplication
			}
			return err
		}
		// Счетчик растет только у open проекта; иначе откатываем заявку
		if err := tx.Projects().IncrementApplications(ctx, projectID); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return apperrors.ErrProjectNotOpen
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Application submitted", "application_id", app.ID, "project_id", projectID, "student_id", studentID)

	s.notifications.Notify(ctx, project.CompanyID, models.NotificationTypeNewApplication,
		"New application",
		fmt.Sprintf("%s applied to your project \"%s\"", displayName(profile), project.Title),
		map[string]interface{}{"projectId": projectID, "applicationId": app.ID})

	resp := dto.NewApplicationResponse(app)
	resp.ProjectTitle = project.Title
	return resp, nil
}

func (s *ApplicationServiceImpl) Shortlist(ctx context.Context, companyID, applicationID string) (*dto.ApplicationResponse, error) {
	app, err := s.findOwnedByCompany(ctx, companyID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, apperrors.ErrNotPending
	}

	now := s.now()
	app.Status = models.ApplicationStatusShortlisted
	app.ShortlistedAt = &now
	if err := s.store.Applications().Transition(ctx, app, models.ApplicationStatusPending); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperrors.ErrNotPending
		}
		return nil, apperrors.DatabaseError(err)
	}

	title := s.projectTitle(ctx, app.ProjectID)
	s.notifications.Notify(ctx, app.StudentID, models.NotificationTypeApplicationShortlist,
		"Application shortlisted",
		fmt.Sprintf("Your application for \"%s\" was shortlisted", title),
		map[string]interface{}{"projectId": app.ProjectID, "applicationId": app.ID})

	resp := dto.NewApplicationResponse(app)
	resp.ProjectTitle = title
	return resp, nil
}

func (s *ApplicationServiceImpl) Accept(ctx context.Context, companyID, applicationID string) (*dto.AcceptResult, error) {
	// До замка - только существование и владение
	app, err := s.findOwnedByCompany(ctx, companyID, applicationID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(app.ProjectID)
	defer unlock()

	var (
		project  *models.Project
		rejected []models.Application
	)
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		project, err = tx.Projects().FindByIDForUpdate(ctx, app.ProjectID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrProjectNotFound
			}
			return err
		}
		// Статус проекта проверяется первым: проигравший конкурентный accept
		// получает AlreadyAssigned, а не NotPending
		if !project.IsOpen() {
			return apperrors.ErrAlreadyAssigned
		}

		current, err := tx.Applications().FindByID(ctx, app.ID)
		if err != nil {
			return err
		}
		if !current.IsOutstanding() {
			return apperrors.ErrNotPending
		}
		app = current

		now := s.now()
		if err := tx.Projects().Assign(ctx, project.ID, app.StudentID, project.Version, now); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return apperrors.ErrAlreadyAssigned
			}
			return err
		}

		app.Status = models.ApplicationStatusAccepted
		app.DecidedAt = &now
		if err := tx.Applications().Transition(ctx, app, models.OutstandingApplicationStatuses...); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return apperrors.ErrNotPending
			}
			return err
		}

		rejected, err = tx.Applications().RejectOutstanding(ctx, project.ID, app.ID, siblingRejectReason, now)
		if err != nil {
			return err
		}

		studentID := app.StudentID
		project.Status = models.ProjectStatusAssigned
		project.AssignedStudentID = &studentID
		project.AssignedAt = &now
		project.Version++
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Application accepted",
		"application_id", app.ID, "project_id", project.ID, "rejected_siblings", len(rejected))

	s.notifyAccepted(ctx, project, app, rejected)

	result := &dto.AcceptResult{
		Application: dto.NewApplicationResponse(app),
		Project:     dto.NewProjectResponse(project),
		RejectedIDs: make([]string, 0, len(rejected)),
	}
	result.Application.ProjectTitle = project.Title
	for i := range rejected {
		result.RejectedIDs = append(result.RejectedIDs, rejected[i].ID)
	}
	return result, nil
}

func (s *ApplicationServiceImpl) Reject(ctx context.Context, companyID, applicationID, reason string) (*dto.ApplicationResponse, error) {
	app, err := s.findOwnedByCompany(ctx, companyID, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsOutstanding() {
		return nil, apperrors.ErrNotPending
	}
	if reason == "" {
		reason = defaultApplicationRejects
	}

	now := s.now()
	app.Status = models.ApplicationStatusRejected
	app.RejectionReason = reason
	app.DecidedAt = &now
	if err := s.store.Applications().Transition(ctx, app, models.OutstandingApplicationStatuses...); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperrors.ErrNotPending
		}
		return nil, apperrors.DatabaseError(err)
	}

	title := s.projectTitle(ctx, app.ProjectID)
	s.notifications.Notify(ctx, app.StudentID, models.NotificationTypeApplicationRejected,
		"Application rejected",
		fmt.Sprintf("Your application for \"%s\" was rejected. Reason: %s", title, reason),
		map[string]interface{}{"projectId": app.ProjectID, "applicationId": app.ID})

	resp := dto.NewApplicationResponse(app)
	resp.ProjectTitle = title
	return resp, nil
}

func (s *ApplicationServiceImpl) Withdraw(ctx context.Context, studentID, applicationID string) (*dto.ApplicationResponse, error) {
	app, err := s.findApplication(ctx, s.store, applicationID)
	if err != nil {
		return nil, err
	}
	if app.StudentID != studentID {
		return nil, apperrors.ErrUnauthorized
	}

	from := []models.ApplicationStatus{models.ApplicationStatusPending}
	if s.opts.AllowWithdrawAfterShortlist {
		from = append(from, models.ApplicationStatusShortlisted)
	}
	switch {
	case app.Status.IsTerminal():
		return nil, apperrors.ErrNotPending
	case app.Status == models.ApplicationStatusShortlisted && !s.opts.AllowWithdrawAfterShortlist:
		return nil, apperrors.NewInvalidStatusError("application", "Shortlisted applications cannot be withdrawn")
	}

	now := s.now()
	app.Status = models.ApplicationStatusWithdrawn
	app.WithdrawnAt = &now

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Applications().Transition(ctx, app, from...); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return apperrors.ErrNotPending
			}
			return err
		}
		return tx.Projects().DecrementApplications(ctx, app.ProjectID)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Application withdrawn", "application_id", app.ID, "student_id", studentID)

	title := s.projectTitle(ctx, app.ProjectID)
	s.notifications.Notify(ctx, app.CompanyID, models.NotificationTypeApplicationWithdrawn,
		"Application withdrawn",
		fmt.Sprintf("An applicant withdrew from your project \"%s\"", title),
		map[string]interface{}{"projectId": app.ProjectID, "applicationId": app.ID})

	resp := dto.NewApplicationResponse(app)
	resp.ProjectTitle = title
	return resp, nil
}

func (s *ApplicationServiceImpl) ListForProject(ctx context.Context, companyID, projectID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error) {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	if project.CompanyID != companyID {
		return nil, apperrors.ErrUnauthorized
	}

	page, limit := s.opts.Page(query.Page, query.Limit)
	apps, total, err := s.store.Applications().ListByProject(ctx, projectID, query.Status,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	resp := &dto.ApplicationListResponse{
		Applications: make([]*dto.ApplicationResponse, 0, len(apps)),
		Pagination:   dto.NewPagination(page, limit, total),
	}
	for i := range apps {
		item := dto.NewApplicationResponse(&apps[i])
		item.ProjectTitle = project.Title
		if student, err := s.store.Profiles().FindByUserID(ctx, apps[i].StudentID); err == nil {
			item.StudentName = displayName(student)
			score, _ := algorithms.CalculateMatchScore(project, student)
			item.MatchScore = &score
		}
		resp.Applications = append(resp.Applications, item)
	}
	return resp, nil
}

func (s *ApplicationServiceImpl) ListMine(ctx context.Context, studentID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)
	apps, total, err := s.store.Applications().ListByStudent(ctx, studentID, query.Status,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	titles := map[string]string{}
	resp := &dto.ApplicationListResponse{
		Applications: make([]*dto.ApplicationResponse, 0, len(apps)),
		Pagination:   dto.NewPagination(page, limit, total),
	}
	for i := range apps {
		item := dto.NewApplicationResponse(&apps[i])
		title, ok := titles[apps[i].ProjectID]
		if !ok {
			title = s.projectTitle(ctx, apps[i].ProjectID)
			titles[apps[i].ProjectID] = title
		}
		item.ProjectTitle = title
		resp.Applications = append(resp.Applications, item)
	}
	return resp, nil
}

func (s *ApplicationServiceImpl) notifyAccepted(ctx context.Context, project *models.Project, app *models.Application, rejected []models.Application) {
	s.notifications.Notify(ctx, app.StudentID, models.NotificationTypeApplicationAccepted,
		"Application accepted",
		fmt.Sprintf("Congratulations! You were selected for \"%s\"", project.Title),
		map[string]interface{}{"projectId": project.ID, "applicationId": app.ID})

	for i := range rejected {
		s.notifications.Notify(ctx, rejected[i].StudentID, models.NotificationTypeApplicationRejected,
			"Application rejected",
			fmt.Sprintf("Another applicant was selected for \"%s\"", project.Title),
			map[string]interface{}{"projectId": project.ID, "applicationId": rejected[i].ID})
	}

	s.notifications.Notify(ctx, project.CompanyID, models.NotificationTypeProjectAssigned,
		"Project assigned",
		fmt.Sprintf("\"%s\" is now assigned. %d other application(s) were closed.", project.Title, len(rejected)),
		map[string]interface{}{"projectId": project.ID, "studentId": app.StudentID})

	if student, err := s.store.Users().FindByID(ctx, app.StudentID); err == nil {
		err = s.emailProvider.SendTemplate(ctx, []string{student.Email}, "Your application was accepted",
			email.TemplateApplicationState, email.TemplateData{
				"Name":         student.FullName,
				"ProjectTitle": project.Title,
				"Status":       string(models.ApplicationStatusAccepted),
			})
		if err != nil {
			logger.CtxWithError(ctx, "Failed to send acceptance email", err, "application_id", app.ID)
		}
	}
}

func (s *ApplicationServiceImpl) findOwnedByCompany(ctx context.Context, companyID, applicationID string) (*models.Application, error) {
	app, err := s.findApplication(ctx, s.store, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != companyID {
		return nil, apperrors.ErrUnauthorized
	}
	return app, nil
}

func (s *ApplicationServiceImpl) findApplication(ctx context.Context, store repositories.Store, applicationID string) (*models.Application, error) {
	app, err := store.Applications().FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return app, nil
}

func (s *ApplicationServiceImpl) projectTitle(ctx context.Context, projectID string) string {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return ""
	}
	return project.Title
}
