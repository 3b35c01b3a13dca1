package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/user"
	appfs "github.com/gregoryekhator/debonairkent/fs"
	inmemdb "github.com/gregoryekhator/debonairkent/storage/database/inmem"
)

func openDB(t *testing.T) *inmemdb.DB {
	db, err := inmemdb.Open(1)
	require.NoError(t, err)
	require.NoError(t, db.LoadFixtures(appfs.Fixtures, "fixtures/host.yaml"))
	return db
}

func courseIDs(courses []course.Course) []int {
	ids := make([]int, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewUserRepository(openDB(t))

	usr, err := repo.GetUserByUsername(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, 5, usr.ID)
	assert.NoError(t, usr.CheckPassword("sam-pass"))

	_, err = repo.GetUserByID(ctx, 99)
	assert.True(t, core.IsNotFound(err))

	// returned users are copies
	usr.Roles[0] = user.RoleAdmin
	usr.LastCourseAccess[2] = time.Time{}
	again, err := repo.GetUserByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleStudent}, again.Roles)
	assert.False(t, again.LastCourseAccess[2].IsZero())

	created, err := repo.CreateUser(ctx, user.User{Username: "new"})
	require.NoError(t, err)
	assert.Equal(t, 8, created.ID)

	managers, err := repo.GetManagers(ctx, 5)
	require.NoError(t, err)
	if assert.Len(t, managers, 1) {
		assert.Equal(t, "maya", managers[0].Username)
	}

	staff, err := repo.GetStaff(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	assert.Equal(t, 5, staff[0].ID)
	assert.Equal(t, 6, staff[1].ID)

	require.NoError(t, repo.SetCurrentCourseAccess(6, 2, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	ada, err := repo.GetUserByID(ctx, 6)
	require.NoError(t, err)
	id, _, ok := ada.LastCourseAccessed()
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestCourseRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewCourseRepository(openDB(t))

	enrolled, err := repo.QueryEnrolledCourses(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, courseIDs(enrolled), "hidden courses are left out")

	available, err := repo.QueryAvailableCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, courseIDs(available), "the site course is left out")

	byID, err := repo.QueryCoursesByID(ctx, 3, 42, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, courseIDs(byID))

	contacts, err := repo.QueryContacts(ctx, 2)
	require.NoError(t, err)
	if assert.Len(t, contacts, 2) {
		assert.Equal(t, "Tom", contacts[0].User.FirstName)
		assert.Equal(t, "editingteacher", contacts[0].Role)
	}

	tracked, err := repo.IsTrackedUser(ctx, 2, 5)
	require.NoError(t, err)
	assert.True(t, tracked)
	tracked, err = repo.IsTrackedUser(ctx, 2, 7)
	require.NoError(t, err)
	assert.False(t, tracked)

	completions, err := repo.QueryCompletions(ctx, 2, 5)
	require.NoError(t, err)
	assert.Len(t, completions, 4)
	assert.Equal(t, course.CriteriaTypeActivity, completions[0].CriteriaType)

	at, err := repo.GetLastAccess(ctx, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), at.UTC())
	_, err = repo.GetLastAccess(ctx, 6, 2)
	assert.True(t, core.IsNotFound(err))

	_, err = repo.GetCategory(ctx, 9)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, repo.Enrol(3, user.User{ID: 6}, time.Now(), course.Completion{CriteriaType: course.CriteriaTypeActivity, ModuleInstance: 21}))
	enrolled, err = repo.QueryEnrolledCourses(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, courseIDs(enrolled))
	assert.True(t, core.IsNotFound(repo.Enrol(42, user.User{ID: 6}, time.Now())))
}

func TestBadgeRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewBadgeRepository(openDB(t))

	tests := []struct {
		name     string
		courseID int
		limit    int
		wantIDs  []int
	}{
		{"all badges, latest first", 0, 10, []int{2, 1}},
		{"course badges", 2, 10, []int{2}},
		{"limited", 0, 1, []int{2}},
		{"no badges", 3, 10, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			badges, err := repo.QueryUserBadges(ctx, 5, tc.courseID, tc.limit)
			require.NoError(t, err)
			var ids []int
			for _, b := range badges {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestProgramRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewProgramRepository(openDB(t))

	programs, err := repo.QueryUserPrograms(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, programs, 2)

	certs, err := repo.QueryUpcomingCertifications(ctx, 5)
	require.NoError(t, err)
	if assert.Len(t, certs, 1) {
		assert.Equal(t, "Lab safety", certs[0].FullName)
	}

	stats, err := repo.CountTeamStats(ctx, 3, []int{5, 6})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"overdue": 1, "completed": 3}, stats)
}

func TestConfigStore(t *testing.T) {
	ctx := context.Background()
	store := inmemdb.NewConfigStore(openDB(t))
	const plugin = "theme_university"

	v, err := store.GetConfig(ctx, plugin, "title_slides1")
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("Welcome to University"), v)

	require.NoError(t, store.SetConfig(ctx, plugin, "title_slides1", null.StringFrom("Hello")))
	v, _ = store.GetConfig(ctx, plugin, "title_slides1")
	assert.Equal(t, "Hello", v.String)

	require.NoError(t, store.SetConfig(ctx, plugin, "title_slides1", null.String{}))
	v, _ = store.GetConfig(ctx, plugin, "title_slides1")
	assert.False(t, v.Valid)

	require.NoError(t, store.DeleteConfig(ctx, plugin, "title_slides2"))
	all, err := store.AllConfig(ctx, plugin)
	require.NoError(t, err)
	assert.NotContains(t, all, "title_slides2")
	assert.Equal(t, "2", all["university_slidescount"])

	require.NoError(t, store.AddConfigLog(ctx, settings.ConfigLog{Plugin: plugin, Name: "a"}))
	require.NoError(t, store.AddConfigLog(ctx, settings.ConfigLog{Plugin: "other", Name: "b"}))
	require.NoError(t, store.AddConfigLog(ctx, settings.ConfigLog{Plugin: plugin, Name: "c"}))
	entries, err := store.QueryConfigLog(ctx, plugin)
	require.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "c", entries[0].Name)
		assert.Equal(t, "a", entries[1].Name)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := inmemdb.NewFileStore(openDB(t))

	f, err := store.PutFile(ctx, settings.File{Component: "theme_university", FileArea: "logo", FileName: "a.png", Content: []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, "/", f.FilePath)
	assert.Equal(t, settings.ContentHash([]byte("a")), f.ContentHash)

	_, err = store.PutFile(ctx, settings.File{Component: "theme_university", FileArea: "logo", FileName: "b.png", Content: []byte("b")})
	require.NoError(t, err)
	_, err = store.PutFile(ctx, settings.File{Component: "theme_university", FileArea: "image_slides1", FileName: "s.png"})
	require.NoError(t, err)

	files, err := store.GetAreaFiles(ctx, "theme_university", "logo")
	require.NoError(t, err)
	if assert.Len(t, files, 1, "putting a file replaces the area") {
		assert.Equal(t, "/b.png", files[0].Path())
		assert.Equal(t, []byte("b"), files[0].Content)
	}

	require.NoError(t, store.DeleteAreaFiles(ctx, "theme_university", "logo"))
	files, _ = store.GetAreaFiles(ctx, "theme_university", "logo")
	assert.Empty(t, files)
	files, _ = store.GetAreaFiles(ctx, "theme_university", "image_slides1")
	assert.Len(t, files, 1)
}
