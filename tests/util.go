// Package testutil wires the theme services over the in-memory host for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/adminsettings"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/features"
	"github.com/gregoryekhator/debonairkent/core/managerdata"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
	appfs "github.com/gregoryekhator/debonairkent/fs"
	inmemdb "github.com/gregoryekhator/debonairkent/storage/database/inmem"
)

// Fixed points in the host fixtures.
const (
	AdminID   = 2
	ManagerID = 3
	TeacherID = 4
	StudentID = 5
	LearnerID = 6
)

// Now is the time the fixtures are evaluated at.
var Now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type Host struct {
	Conf        *core.Config
	DB          *inmemdb.DB
	Validate    *validator.Validate
	Translator  ut.Translator
	Lang        *core.Lang
	Formatter   *text.Formatter
	Users       *user.Service
	Courses     *course.Service
	UserData    *userdata.Composer
	ManagerData *managerdata.Composer
	Features    *features.Service
	Store       settings.Store
	Files       settings.FileStore
	Settings    *adminsettings.Manager
}

// NewHost returns the services of a host seeded with fs/fixtures/host.yaml. totara enables job
// assignments, programs and team statistics.
func NewHost(t *testing.T, totara bool) *Host {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Totara = totara
	conf.WWWRoot = "https://lms.test"

	db, err := inmemdb.Open(conf.SiteID)
	if err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	if err = db.LoadFixtures(appfs.Fixtures, "fixtures/host.yaml"); err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	adminsettings.InitValidators(validate, translator)

	h := &Host{
		Conf:       conf,
		DB:         db,
		Validate:   validate,
		Translator: translator,
		Lang:       core.NewLang(translator),
		Formatter:  text.NewFormatter(),
		Store:      inmemdb.NewConfigStore(db),
		Files:      inmemdb.NewFileStore(db),
	}

	var (
		userRepo = inmemdb.NewUserRepository(db)
		progRepo = inmemdb.NewProgramRepository(db)
		jobs     user.JobRepository
		programs course.ProgramRepository
		stats    course.StatsRepository
	)
	if totara {
		jobs, programs, stats = userRepo, progRepo, progRepo
	}

	h.Users = user.NewService(userRepo, jobs)
	if h.Courses, err = course.NewService(conf, inmemdb.NewCourseRepository(db), programs, stats, h.Formatter, h.Lang); err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	if h.UserData, err = userdata.NewComposer(conf, h.Users, h.Courses, inmemdb.NewBadgeRepository(db)); err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	if h.ManagerData, err = managerdata.NewComposer(h.Users, h.Courses, h.UserData); err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	if h.Features, err = features.NewService(conf, h.UserData, h.Courses); err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	h.Settings, err = adminsettings.NewManager(conf, h.Store, h.Files, h.Courses.Repository(), validate, translator, h.Lang)
	if err != nil {
		t.Fatalf("NewHost() failed: %v", err)
	}
	return h
}

// User returns the fixture user id.
func (h *Host) User(t *testing.T, id int) *user.User {
	t.Helper()
	usr, err := h.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("User(%d) failed: %v", id, err)
	}
	return &usr
}

// Theme returns the current configuration of the theme.
func (h *Host) Theme(t *testing.T) settings.Theme {
	t.Helper()
	theme, err := h.Settings.Theme(context.Background())
	if err != nil {
		t.Fatalf("Theme() failed: %v", err)
	}
	return theme
}

// FreezeTime sets the clocks of the theme packages to Now until the test ends.
func FreezeTime(t *testing.T) {
	t.Helper()
	now := func() time.Time { return Now }

	courseNow, userdataNow, featuresNow := course.NowFunc, userdata.NowFunc, features.NowFunc
	course.NowFunc, userdata.NowFunc, features.NowFunc = now, now, now
	t.Cleanup(func() {
		course.NowFunc, userdata.NowFunc, features.NowFunc = courseNow, userdataNow, featuresNow
	})
}
