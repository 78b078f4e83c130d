package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
)

type profileRepo struct{ s *Store }

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	defer r.s.lock()()
	if _, ok := r.s.st().profiles[profile.UserID]; ok {
		return repositories.ErrDuplicate
	}
	touch(&profile.BaseModel)
	r.s.st().profiles[profile.UserID] = profile.Clone()
	return nil
}

func (r *profileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	defer r.s.lock()()
	p, ok := r.s.st().profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *profileRepo) FindByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	defer r.s.lock()()
	if _, ok := r.s.st().profiles[profile.UserID]; !ok {
		return repositories.ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	r.s.st().profiles[profile.UserID] = profile.Clone()
	return nil
}

func (r *profileRepo) List(ctx context.Context, filter repositories.ProfileFilter) ([]models.Profile, int64, error) {
	defer r.s.lock()()
	var out []models.Profile
	for _, p := range r.s.st().profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Status != "" && p.VerificationStatus != filter.Status {
			continue
		}
		out = append(out, *p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].SubmittedAt, out[j].SubmittedAt
		switch {
		case si != nil && sj != nil && !si.Equal(*sj):
			return si.Before(*sj)
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	defer r.s.lock()()
	touch(&project.BaseModel)
	if project.Version == 0 {
		project.Version = 1
	}
	r.s.st().projects[project.ID] = project.Clone()
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	defer r.s.lock()()
	p, ok := r.s.st().projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p.Clone(), nil
}

// FindByIDForUpdate: транзакция и так держит мьютекс всего хранилища
func (r *projectRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Project, error) {
	return r.FindByID(ctx, id)
}

func (r *projectRepo) ListOpen(ctx context.Context, filter repositories.ProjectFilter) ([]models.Project, int64, error) {
	defer r.s.lock()()
	search := strings.ToLower(filter.Search)
	var out []models.Project
	for _, p := range r.s.st().projects {
		if p.Status != models.ProjectStatusOpen {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if filter.Skill != "" && !contains(p.Skills, filter.Skill) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinBudget != nil && p.Budget < *filter.MinBudget {
			continue
		}
		if filter.MaxBudget != nil && p.Budget > *filter.MaxBudget {
			continue
		}
		out = append(out, *p.Clone())
	}
	newestFirst(out, func(p models.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (r *projectRepo) ListByCompany(ctx context.Context, companyID string, status models.ProjectStatus, page repositories.Pagination) ([]models.Project, int64, error) {
	defer r.s.lock()()
	var out []models.Project
	for _, p := range r.s.st().projects {
		if p.CompanyID != companyID || (status != "" && p.Status != status) {
			continue
		}
		out = append(out, *p.Clone())
	}
	newestFirst(out, func(p models.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	return paginate(out, page), int64(len(out)), nil
}

func (r *projectRepo) List(ctx context.Context, filter repositories.ProjectListFilter) ([]models.Project, int64, error) {
	defer r.s.lock()()
	search := strings.ToLower(filter.Search)
	var out []models.Project
	for _, p := range r.s.st().projects {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.CompanyID != "" && p.CompanyID != filter.CompanyID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, *p.Clone())
	}
	newestFirst(out, func(p models.Project) (time.Time, string) { return p.CreatedAt, p.ID })
	return paginate(out, filter.Pagination), int64(len(out)), nil
}

func (r *projectRepo) CountByStatus(ctx context.Context, companyID string) (map[models.ProjectStatus]int64, error) {
	defer r.s.lock()()
	out := map[models.ProjectStatus]int64{}
	for _, p := range r.s.st().projects {
		if companyID == "" || p.CompanyID == companyID {
			out[p.Status]++
		}
	}
	return out, nil
}

func (r *projectRepo) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Project, error) {
	defer r.s.lock()()
	var out []models.Project
	for _, p := range r.s.st().projects {
		if p.Status == models.ProjectStatusOpen && p.Deadline.Before(now) {
			out = append(out, *p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *projectRepo) Assign(ctx context.Context, projectID, studentID string, expectedVersion int, at time.Time) error {
	defer r.s.lock()()
	p, ok := r.s.st().projects[projectID]
	if !ok || p.Status != models.ProjectStatusOpen || p.Version != expectedVersion {
		return repositories.ErrConflict
	}
	p.Status = models.ProjectStatusAssigned
	p.AssignedStudentID = &studentID
	p.AssignedAt = &at
	p.Version++
	p.UpdatedAt = at
	return nil
}

func (r *projectRepo) Close(ctx context.Context, projectID, reason string, at time.Time) (bool, error) {
	defer r.s.lock()()
	p, ok := r.s.st().projects[projectID]
	if !ok || p.Status == models.ProjectStatusClosed {
		return false, nil
	}
	p.Status = models.ProjectStatusClosed
	p.ClosedAt = &at
	p.ClosedReason = reason
	p.Version++
	p.UpdatedAt = at
	return true, nil
}

func (r *projectRepo) IncrementApplications(ctx context.Context, projectID string) error {
	defer r.s.lock()()
	p, ok := r.s.st().projects[projectID]
	if !ok || p.Status != models.ProjectStatusOpen {
		return repositories.ErrConflict
	}
	p.ApplicationCount++
	return nil
}

func (r *projectRepo) DecrementApplications(ctx context.Context, projectID string) error {
	defer r.s.lock()()
	if p, ok := r.s.st().projects[projectID]; ok && p.ApplicationCount > 0 {
		p.ApplicationCount--
	}
	return nil
}

type applicationRepo struct{ s *Store }

func (r *applicationRepo) Create(ctx context.Context, app *models.Application) error {
	defer r.s.lock()()
	// аналог частичного уникального индекса (project_id, student_id) WHERE status <> 'withdrawn'
	for _, a := range r.s.st().applications {
		if a.ProjectID == app.ProjectID && a.StudentID == app.StudentID && a.Status != models.ApplicationStatusWithdrawn {
			return repositories.ErrDuplicate
		}
	}
	touch(&app.BaseModel)
	cp := *app
	r.s.st().applications[app.ID] = &cp
	return nil
}

func (r *applicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	defer r.s.lock()()
	a, ok := r.s.st().applications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *applicationRepo) ExistsActive(ctx context.Context, projectID, studentID string) (bool, error) {
	defer r.s.lock()()
	for _, a := range r.s.st().applications {
		if a.ProjectID == projectID && a.StudentID == studentID && a.Status != models.ApplicationStatusWithdrawn {
			return true, nil
		}
	}
	return false, nil
}

func (r *applicationRepo) Transition(ctx context.Context, app *models.Application, from ...models.ApplicationStatus) error {
	defer r.s.lock()()
	cur, ok := r.s.st().applications[app.ID]
	if !ok || !statusIn(cur.Status, from) {
		return repositories.ErrConflict
	}
	cur.Status = app.Status
	cur.RejectionReason = app.RejectionReason
	cur.ShortlistedAt = app.ShortlistedAt
	cur.DecidedAt = app.DecidedAt
	cur.WithdrawnAt = app.WithdrawnAt
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *applicationRepo) RejectOutstanding(ctx context.Context, projectID, exceptID, reason string, at time.Time) ([]models.Application, error) {
	defer r.s.lock()()
	var out []models.Application
	for _, a := range r.s.st().applications {
		if a.ProjectID != projectID || a.ID == exceptID || !a.IsOutstanding() {
			continue
		}
		decided := at
		a.Status = models.ApplicationStatusRejected
		a.RejectionReason = reason
		a.DecidedAt = &decided
		a.UpdatedAt = at
		out = append(out, *a)
	}
	return out, nil
}

func (r *applicationRepo) ListByProject(ctx context.Context, projectID string, status models.ApplicationStatus, page repositories.Pagination) ([]models.Application, int64, error) {
	return r.list(func(a *models.Application) bool { return a.ProjectID == projectID }, status, page)
}

func (r *applicationRepo) ListByStudent(ctx context.Context, studentID string, status models.ApplicationStatus, page repositories.Pagination) ([]models.Application, int64, error) {
	return r.list(func(a *models.Application) bool { return a.StudentID == studentID }, status, page)
}

func (r *applicationRepo) ListAll(ctx context.Context, status models.ApplicationStatus, page repositories.Pagination) ([]models.Application, int64, error) {
	return r.list(func(*models.Application) bool { return true }, status, page)
}

func (r *applicationRepo) CountByStatus(ctx context.Context, scope repositories.ApplicationScope) (map[models.ApplicationStatus]int64, error) {
	defer r.s.lock()()
	out := map[models.ApplicationStatus]int64{}
	for _, a := range r.s.st().applications {
		if scope.StudentID != "" && a.StudentID != scope.StudentID {
			continue
		}
		if scope.CompanyID != "" && a.CompanyID != scope.CompanyID {
			continue
		}
		out[a.Status]++
	}
	return out, nil
}

func (r *applicationRepo) list(match func(*models.Application) bool, status models.ApplicationStatus, page repositories.Pagination) ([]models.Application, int64, error) {
	defer r.s.lock()()
	var out []models.Application
	for _, a := range r.s.st().applications {
		if !match(a) || (status != "" && a.Status != status) {
			continue
		}
		out = append(out, *a)
	}
	newestFirst(out, func(a models.Application) (time.Time, string) { return a.CreatedAt, a.ID })
	return paginate(out, page), int64(len(out)), nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	defer r.s.lock()()
	touch(&n.BaseModel)
	cp := *n
	r.s.st().notifications[n.ID] = &cp
	return nil
}

func (r *notificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	defer r.s.lock()()
	n, ok := r.s.st().notifications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *notificationRepo) FindByUser(ctx context.Context, userID string, unreadOnly bool, page repositories.Pagination) ([]models.Notification, int64, error) {
	defer r.s.lock()()
	var out []models.Notification
	for _, n := range r.s.st().notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	newestFirst(out, func(n models.Notification) (time.Time, string) { return n.CreatedAt, n.ID })
	return paginate(out, page), int64(len(out)), nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, item := range r.s.st().notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *notificationRepo) MarkAsRead(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock()()
	if n, ok := r.s.st().notifications[id]; ok && !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
	}
	return nil
}

func (r *notificationRepo) MarkAllAsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	defer r.s.lock()()
	var count int64
	for _, n := range r.s.st().notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			readAt := at
			n.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func statusIn(s models.ApplicationStatus, set []models.ApplicationStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
