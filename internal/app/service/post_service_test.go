package service

import (
	"context"
	"testing"

	"classhub/internal/common"
	"classhub/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postEnv struct {
	svc        *PostService
	postRepo   *fakePostRepo
	courseRepo *fakeCourseRepo
	enrollRepo *fakeEnrollmentRepo
	course     *model.Course
}

func newPostEnv(t *testing.T) *postEnv {
	t.Helper()
	env := &postEnv{
		postRepo:   newFakePostRepo(),
		courseRepo: newFakeCourseRepo(),
		enrollRepo: newFakeEnrollmentRepo(),
	}
	env.svc = NewPostService(env.postRepo, env.courseRepo, env.enrollRepo)
	env.course = seedCourse(t, env.courseRepo, "Databases", "databases", false)
	seedEnrollment(t, env.enrollRepo, "teacher-1", env.course.ID, model.RoleInstructor)
	seedEnrollment(t, env.enrollRepo, "student-1", env.course.ID, model.RoleStudent)
	return env
}

func TestCreatePost(t *testing.T) {
	env := newPostEnv(t)
	ctx := context.Background()

	post, err := env.svc.CreatePost(ctx, "databases", "teacher-1", model.RoleInstructor, CreatePostRequest{
		Title:    "Week 1",
		Body:     "Read chapter 1",
		IsPinned: true,
	})
	require.NoError(t, err)
	assert.Equal(t, env.course.ID, post.CourseID)
	assert.Equal(t, "teacher-1", post.AuthorID)
	assert.True(t, post.IsPinned)
}

func TestCreatePostPermissions(t *testing.T) {
	env := newPostEnv(t)
	ctx := context.Background()
	req := CreatePostRequest{Title: "T", Body: "B"}

	_, err := env.svc.CreatePost(ctx, "databases", "student-1", model.RoleStudent, req)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.svc.CreatePost(ctx, "databases", "stranger", model.RoleInstructor, req)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// Admins can post into any course.
	_, err = env.svc.CreatePost(ctx, "databases", "root", model.RoleAdmin, req)
	assert.NoError(t, err)

	_, err = env.svc.CreatePost(ctx, "no-such-course", "teacher-1", model.RoleInstructor, req)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.svc.CreatePost(ctx, "databases", "teacher-1", model.RoleInstructor, CreatePostRequest{Title: "", Body: "B"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestListPostsRequiresEnrollment(t *testing.T) {
	env := newPostEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreatePost(ctx, "databases", "teacher-1", model.RoleInstructor, CreatePostRequest{Title: "T", Body: "B"})
	require.NoError(t, err)

	posts, total, err := env.svc.ListPosts(ctx, "databases", "student-1", model.RoleStudent, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, posts, 1)

	_, _, err = env.svc.ListPosts(ctx, "databases", "stranger", model.RoleStudent, 1, 20)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// Admins see every course without an enrollment.
	_, total, err = env.svc.ListPosts(ctx, "databases", "root", model.RoleAdmin, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdatePost(t *testing.T) {
	env := newPostEnv(t)
	ctx := context.Background()

	post, err := env.svc.CreatePost(ctx, "databases", "teacher-1", model.RoleInstructor, CreatePostRequest{Title: "Draft", Body: "B"})
	require.NoError(t, err)

	newTitle := "Final"
	pinned := true
	updated, err := env.svc.UpdatePost(ctx, post.ID, "teacher-1", model.RoleInstructor, UpdatePostRequest{
		Title:    &newTitle,
		IsPinned: &pinned,
	})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.True(t, updated.IsPinned)

	// Students cannot edit someone else's post.
	_, err = env.svc.UpdatePost(ctx, post.ID, "student-1", model.RoleStudent, UpdatePostRequest{Title: &newTitle})
	assert.ErrorIs(t, err, common.ErrForbidden)

	empty := ""
	_, err = env.svc.UpdatePost(ctx, post.ID, "teacher-1", model.RoleInstructor, UpdatePostRequest{Title: &empty})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeletePost(t *testing.T) {
	env := newPostEnv(t)
	ctx := context.Background()

	post, err := env.svc.CreatePost(ctx, "databases", "teacher-1", model.RoleInstructor, CreatePostRequest{Title: "T", Body: "B"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeletePost(ctx, post.ID, "student-1", model.RoleStudent), common.ErrForbidden)

	require.NoError(t, env.svc.DeletePost(ctx, post.ID, "teacher-1", model.RoleInstructor))
	assert.ErrorIs(t, env.svc.DeletePost(ctx, post.ID, "teacher-1", model.RoleInstructor), common.ErrNotFound)
}
