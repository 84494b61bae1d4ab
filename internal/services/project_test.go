package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/policy"
	"github.com/huangang/tasktracker/internal/testutil"
	"github.com/huangang/tasktracker/pkg/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func callerOf(u *models.User) policy.Caller {
	return policy.Caller{ID: u.ID, Role: u.Role}
}

func strPtr(s string) *string { return &s }

func TestProjectService_CreateMakesCallerOwner(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	alice := testutil.CreateUser(t, db, "alice", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)

	project, err := svc.Create(context.Background(), callerOf(alice), &CreateProjectRequest{
		Name:        "Launch",
		Description: strPtr("Q3 launch"),
		MemberIDs:   []string{bob.ID, bob.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, alice.ID, project.OwnerID)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	require.NotNil(t, project.Owner)
	assert.Equal(t, "alice", project.Owner.Name)
	assert.Equal(t, []string{bob.ID}, project.MemberIDs(), "duplicate member ids are collapsed")
}

func TestProjectService_CreateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	alice := testutil.CreateUser(t, db, "alice", models.RoleMember)

	tests := []struct {
		name  string
		req   *CreateProjectRequest
		field string
	}{
		{"missing name", &CreateProjectRequest{}, "name"},
		{"blank name", &CreateProjectRequest{Name: "   "}, "name"},
		{"bad status", &CreateProjectRequest{Name: "x", Status: "ARCHIVED"}, "status"},
		{"unknown member", &CreateProjectRequest{Name: "x", MemberIDs: []string{"no-such-user"}}, "memberIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), callerOf(alice), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestProjectService_GetChecksExistenceBeforeVisibility(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	alice := testutil.CreateUser(t, db, "alice", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)
	p := testutil.CreateProject(t, db, "private", alice)

	_, err := svc.Get(context.Background(), callerOf(bob), "missing-id")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.Get(context.Background(), callerOf(bob), p.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.Get(context.Background(), callerOf(alice), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestProjectService_ListOnlyVisible(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	alice := testutil.CreateUser(t, db, "alice", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)
	root := testutil.CreateUser(t, db, "root", models.RoleAdmin)

	own := testutil.CreateProject(t, db, "own", alice)
	shared := testutil.CreateProject(t, db, "shared", bob, alice)
	testutil.CreateProject(t, db, "hidden", bob)
	testutil.CreateTask(t, db, "t1", shared, bob)
	testutil.CreateTask(t, db, "t2", shared, bob)

	items, err := svc.List(context.Background(), callerOf(alice), &ProjectListRequest{})
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, it := range items {
		counts[it.Project.ID] = it.TaskCount
	}
	assert.Equal(t, map[string]int64{own.ID: 0, shared.ID: 2}, counts)

	// Administrators get no wider view.
	items, err = svc.List(context.Background(), callerOf(root), &ProjectListRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProjectService_UpdatePermissions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	member := testutil.CreateUser(t, db, "member", models.RoleMember)
	root := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProject(t, db, "p", owner, member)

	rename := func(name string) *UpdateProjectRequest {
		return &UpdateProjectRequest{Name: nullable.Of(name)}
	}

	_, err := svc.Update(context.Background(), callerOf(member), p.ID, rename("by member"))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.Update(context.Background(), callerOf(root), p.ID, rename("by admin"))
	require.NoError(t, err)
	assert.Equal(t, "by admin", updated.Name)
	assert.Equal(t, []string{member.ID}, updated.MemberIDs(), "omitted memberIds leave members untouched")

	_, err = svc.Update(context.Background(), callerOf(owner), "missing", rename("x"))
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_UpdateTriState(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	ctx := context.Background()

	p, err := svc.Create(ctx, callerOf(owner), &CreateProjectRequest{Name: "p", Description: strPtr("keep me")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, callerOf(owner), p.ID, &UpdateProjectRequest{Status: nullable.Of(models.ProjectStatusOnHold)})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOnHold, updated.Status)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "keep me", *updated.Description)

	updated, err = svc.Update(ctx, callerOf(owner), p.ID, &UpdateProjectRequest{Description: nullable.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Equal(t, "p", updated.Name)
}

func TestProjectService_UpdateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	p := testutil.CreateProject(t, db, "p", owner)

	tests := []struct {
		name  string
		req   *UpdateProjectRequest
		field string
	}{
		{"empty name", &UpdateProjectRequest{Name: nullable.Of("")}, "name"},
		{"null name", &UpdateProjectRequest{Name: nullable.Null[string]()}, "name"},
		{"bad status", &UpdateProjectRequest{Status: nullable.Of("DONE")}, "status"},
		{"null members", &UpdateProjectRequest{MemberIDs: nullable.Null[[]string]()}, "memberIds"},
		{"unknown member", &UpdateProjectRequest{MemberIDs: nullable.Of([]string{"ghost"})}, "memberIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), callerOf(owner), p.ID, tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestProjectService_EmptyMemberIDsClearsMembership(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	m1 := testutil.CreateUser(t, db, "m1", models.RoleMember)
	m2 := testutil.CreateUser(t, db, "m2", models.RoleMember)
	p := testutil.CreateProject(t, db, "p", owner, m1, m2)

	updated, err := svc.Update(context.Background(), callerOf(owner), p.ID, &UpdateProjectRequest{
		MemberIDs: nullable.Of([]string{}),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Members)

	var count int64
	require.NoError(t, db.Model(&models.ProjectMember{}).Where("project_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Former members lose visibility.
	_, err = svc.Get(context.Background(), callerOf(m1), p.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestProjectService_ReplaceMembers(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	m1 := testutil.CreateUser(t, db, "m1", models.RoleMember)
	m2 := testutil.CreateUser(t, db, "m2", models.RoleMember)
	p := testutil.CreateProject(t, db, "p", owner, m1)

	updated, err := svc.Update(context.Background(), callerOf(owner), p.ID, &UpdateProjectRequest{
		Name:      nullable.Of("renamed"),
		MemberIDs: nullable.Of([]string{m2.ID}),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, []string{m2.ID}, updated.MemberIDs())
	require.NotNil(t, updated.Members[0].User)
	assert.Equal(t, "m2", updated.Members[0].User.Name)
}

func TestProjectService_FailedMemberReplaceKeepsOldState(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	m1 := testutil.CreateUser(t, db, "m1", models.RoleMember)
	p := testutil.CreateProject(t, db, "p", owner, m1)

	_, err := svc.Update(context.Background(), callerOf(owner), p.ID, &UpdateProjectRequest{
		Name:      nullable.Of("renamed"),
		MemberIDs: nullable.Of([]string{m1.ID, "ghost"}),
	})
	require.Error(t, err)

	got, err := svc.Get(context.Background(), callerOf(owner), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "p", got.Name)
	assert.Equal(t, []string{m1.ID}, got.MemberIDs())
}

func TestProjectService_MemberInsertFailureRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	m1 := testutil.CreateUser(t, db, "m1", models.RoleMember)
	m2 := testutil.CreateUser(t, db, "m2", models.RoleMember)
	p := testutil.CreateProject(t, db, "p", owner, m1)

	// Fail the member insert after the rename and the member delete have run.
	errInsert := errors.New("member insert failed")
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("test:fail_member_insert", func(tx *gorm.DB) {
			if tx.Statement.Table == "project_members" {
				_ = tx.AddError(errInsert)
			}
		}))

	_, err := svc.Update(context.Background(), callerOf(owner), p.ID, &UpdateProjectRequest{
		Name:      nullable.Of("renamed"),
		MemberIDs: nullable.Of([]string{m2.ID}),
	})
	require.ErrorIs(t, err, errInsert)

	got, err := svc.Get(context.Background(), callerOf(owner), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "p", got.Name)
	assert.Equal(t, []string{m1.ID}, got.MemberIDs())
}

func TestProjectService_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProjectService(db)
	owner := testutil.CreateUser(t, db, "owner", models.RoleMember)
	member := testutil.CreateUser(t, db, "member", models.RoleMember)
	root := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	p := testutil.CreateProject(t, db, "p", owner, member)
	other := testutil.CreateProject(t, db, "other", owner)
	testutil.CreateTask(t, db, "t1", p, owner)
	testutil.CreateTask(t, db, "t2", p, member)
	keep := testutil.CreateTask(t, db, "keep", other, owner)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, callerOf(member), p.ID), ErrPermissionDenied)
	assert.ErrorIs(t, svc.Delete(ctx, callerOf(owner), "missing"), ErrProjectNotFound)
	require.NoError(t, svc.Delete(ctx, callerOf(root), p.ID))

	var tasks, members, projects int64
	db.Model(&models.Task{}).Where("project_id = ?", p.ID).Count(&tasks)
	db.Model(&models.ProjectMember{}).Where("project_id = ?", p.ID).Count(&members)
	db.Model(&models.Project{}).Where("id = ?", p.ID).Count(&projects)
	assert.Zero(t, tasks)
	assert.Zero(t, members)
	assert.Zero(t, projects)

	var survivor models.Task
	require.NoError(t, db.First(&survivor, "id = ?", keep.ID).Error)
}
