package service

import (
	"context"
	"testing"

	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"
	"classhub/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminEnv struct {
	svc        *AdminService
	userRepo   *fakeUserRepo
	courseRepo *fakeCourseRepo
	enrollRepo *fakeEnrollmentRepo
	subRepo    *fakeSubmissionRepo
	analytics  *AnalyticsService
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	_, rdb := testRedis(t)
	env := &adminEnv{
		userRepo:   newFakeUserRepo(),
		courseRepo: newFakeCourseRepo(),
		enrollRepo: newFakeEnrollmentRepo(),
		subRepo:    newFakeSubmissionRepo(),
	}
	env.analytics = NewAnalyticsService(newFakeMetricRepo(), rdb)
	env.svc = NewAdminService(env.userRepo, env.courseRepo, env.enrollRepo, env.subRepo, env.analytics)
	return env
}

func TestListUsersFilters(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	seedUser(t, env.userRepo, "a@example.com", "password12", model.RoleStudent, model.StatusActive, false)
	seedUser(t, env.userRepo, "b@example.com", "password12", model.RoleInstructor, model.StatusActive, false)
	seedUser(t, env.userRepo, "c@example.com", "password12", model.RoleStudent, model.StatusSuspended, false)

	users, total, err := env.svc.ListUsers(ctx, 1, 20, model.RoleStudent, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)

	_, total, err = env.svc.ListUsers(ctx, 1, 20, "", model.StatusSuspended, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, _, err = env.svc.ListUsers(ctx, 1, 20, "superuser", "", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = env.svc.ListUsers(ctx, 1, 20, "", "frozen", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateUserRole(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	admin := seedUser(t, env.userRepo, "root@example.com", "password12", model.RoleAdmin, model.StatusActive, false)
	user := seedUser(t, env.userRepo, "u@example.com", "password12", model.RoleStudent, model.StatusActive, false)

	require.NoError(t, env.svc.UpdateUserRole(ctx, admin.ID, user.ID, model.RoleInstructor))
	got, err := env.userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, got.Role)

	assert.ErrorIs(t, env.svc.UpdateUserRole(ctx, admin.ID, user.ID, "superuser"), common.ErrValidation)

	// An admin cannot demote themselves.
	assert.ErrorIs(t, env.svc.UpdateUserRole(ctx, admin.ID, admin.ID, model.RoleStudent), common.ErrBadRequest)

	assert.ErrorIs(t, env.svc.UpdateUserRole(ctx, admin.ID, "missing", model.RoleStudent), common.ErrNotFound)
}

func TestUpdateUserStatus(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	admin := seedUser(t, env.userRepo, "root@example.com", "password12", model.RoleAdmin, model.StatusActive, false)
	user := seedUser(t, env.userRepo, "u@example.com", "password12", model.RoleStudent, model.StatusActive, false)

	require.NoError(t, env.svc.UpdateUserStatus(ctx, admin.ID, user.ID, model.StatusSuspended))
	got, err := env.userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuspended, got.Status)

	assert.ErrorIs(t, env.svc.UpdateUserStatus(ctx, admin.ID, user.ID, "frozen"), common.ErrValidation)

	// An admin cannot suspend themselves.
	assert.ErrorIs(t, env.svc.UpdateUserStatus(ctx, admin.ID, admin.ID, model.StatusSuspended), common.ErrBadRequest)
}

func TestResetPassword(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	user := seedUser(t, env.userRepo, "forgot@example.com", "oldpassword", model.RoleStudent, model.StatusActive, false)

	resp, err := env.svc.ResetPassword(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, resp.TempPassword, config.AppConfig.TempPasswordLength)

	got, err := env.userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.FirstLogin, "reset must force a password change at next login")
	assert.True(t, security.CheckPasswordHash(resp.TempPassword, got.HashedPassword))
	assert.False(t, security.CheckPasswordHash("oldpassword", got.HashedPassword))

	_, err = env.svc.ResetPassword(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	admin := seedUser(t, env.userRepo, "root@example.com", "password12", model.RoleAdmin, model.StatusActive, false)
	user := seedUser(t, env.userRepo, "gone@example.com", "password12", model.RoleStudent, model.StatusActive, false)

	assert.ErrorIs(t, env.svc.DeleteUser(ctx, admin.ID, admin.ID), common.ErrBadRequest)

	require.NoError(t, env.svc.DeleteUser(ctx, admin.ID, user.ID))
	_, err := env.userRepo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	seedUser(t, env.userRepo, "root@example.com", "password12", model.RoleAdmin, model.StatusActive, false)
	seedUser(t, env.userRepo, "s@example.com", "password12", model.RoleStudent, model.StatusActive, false)
	seedUser(t, env.userRepo, "banned@example.com", "password12", model.RoleStudent, model.StatusSuspended, false)

	course := seedCourse(t, env.courseRepo, "Live", "live", false)
	seedCourse(t, env.courseRepo, "Archived", "archived", true)
	seedEnrollment(t, env.enrollRepo, "s-1", course.ID, model.RoleStudent)

	env.analytics.Increment(ctx, model.MetricLogins)

	stats, err := env.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UsersByRole[model.RoleAdmin])
	assert.Equal(t, 2, stats.UsersByRole[model.RoleStudent])
	assert.Equal(t, 1, stats.UsersByStatus[model.StatusSuspended])
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, 1, stats.ArchivedCourses)
	assert.Equal(t, 1, stats.TotalEnrollments)
	assert.Equal(t, 0, stats.TotalSubmissions)
	assert.Equal(t, int64(1), stats.Metrics[model.MetricLogins])
}
