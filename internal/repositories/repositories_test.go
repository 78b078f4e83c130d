package repositories

import (
	"context"
	"testing"
	"time"

	"seribro_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestProjectAssign_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`UPDATE "projects" SET .* WHERE id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Assign(context.Background(), "p1", "s1", 3, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectAssign_ConflictWhenNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`UPDATE "projects" SET .*version.* WHERE id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Assign(context.Background(), "p1", "s1", 3, time.Now())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectIncrementApplications_OnlyOpen(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`UPDATE "projects" SET "application_count"=application_count \+ 1 WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProjectStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementApplications(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDecrementApplications_NeverNegative(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`UPDATE "projects" SET "application_count"=GREATEST\(application_count - 1, 0\) WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementApplications(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectClose_AlreadyClosed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`UPDATE "projects" SET .* WHERE id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.Close(context.Background(), "p1", "done", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProjectFindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "company_id", "title", "status", "version"}).
		AddRow("p1", "c1", "Landing page", "open", 2)
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = \$1 .*FOR UPDATE`).WillReturnRows(rows)

	project, err := repo.FindByIDForUpdate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, project.Version)
	assert.True(t, project.IsOpen())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "  Nobody@Example.com ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetLastLogin_OnlyThatColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"=\$1 WHERE id = \$2`).
		WithArgs(at, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetLastLogin(context.Background(), "u1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetApprovalStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET "admin_approval_status"=\$1,.*"updated_at".* WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetApprovalStatus(context.Background(), "missing", models.ApprovalStatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByUserIDForUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "role", "verification_status"}).
		AddRow("pr1", "u1", "student", "submitted")
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE user_id = \$1 .*FOR UPDATE`).WillReturnRows(rows)

	profile, err := repo.FindByUserIDForUpdate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusSubmitted, profile.VerificationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPFindByEmailForUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "code_hash", "purpose", "attempts"}).
		AddRow("o1", "a@b.io", "hash", "signup", 2)
	mock.ExpectQuery(`SELECT \* FROM "otp_codes" WHERE email = \$1 .*FOR UPDATE`).WillReturnRows(rows)

	otp, err := repo.FindByEmailForUpdate(context.Background(), " A@B.io")
	require.NoError(t, err)
	assert.Equal(t, 2, otp.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPIncrementAttempts_StopsAtLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec(`UPDATE "otp_codes" SET "attempts"=attempts \+ 1 WHERE id = \$1 AND attempts < \$2`).
		WithArgs("o1", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	counted, err := repo.IncrementAttempts(context.Background(), "o1", 5)
	require.NoError(t, err)
	assert.False(t, counted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPConsume_OnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec(`DELETE FROM "otp_codes" WHERE id = \$1`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "otp_codes" WHERE id = \$1`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Consume(context.Background(), "o1")
	require.NoError(t, err)
	second, err := repo.Consume(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationCountByStatus_CompanyScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 3).
		AddRow("accepted", 1)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "applications" WHERE company_id = \$1 GROUP BY .?status.?`).
		WithArgs("c1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), ApplicationScope{CompanyID: "c1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[models.ApplicationStatusPending])
	assert.EqualValues(t, 1, counts[models.ApplicationStatusAccepted])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationTransition_ConflictOnStaleStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepository(db)

	mock.ExpectExec(`UPDATE "applications" SET .* WHERE id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	app := &models.Application{BaseModel: models.BaseModel{ID: "a1"}, Status: models.ApplicationStatusWithdrawn}
	err := repo.Transition(context.Background(), app, models.ApplicationStatusPending, models.ApplicationStatusShortlisted)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplicationRejectOutstanding(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "project_id", "student_id", "status"}).
		AddRow("a2", "p1", "s2", "pending").
		AddRow("a3", "p1", "s3", "shortlisted")
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE \(project_id = \$1 AND status IN \(\$2,\$3\)\) AND id <> \$4`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "applications" SET .* WHERE id IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	apps, err := repo.RejectOutstanding(context.Background(), "p1", "a1", "Another applicant was selected", time.Now())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	for _, a := range apps {
		assert.Equal(t, models.ApplicationStatusRejected, a.Status)
		assert.NotNil(t, a.DecidedAt)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenIsRevoked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevokedTokenRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "revoked_tokens" WHERE jti = \$1`).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, 0, Pagination{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Pagination{Page: 3, Limit: 10}.Offset())
}
