// Package shared wires the theme services used by the API server and the admin command line.
package shared

import (
	"database/sql"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/adminsettings"
	"github.com/gregoryekhator/debonairkent/core/badge"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/features"
	"github.com/gregoryekhator/debonairkent/core/managerdata"
	"github.com/gregoryekhator/debonairkent/core/render"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/themeport"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
	appfs "github.com/gregoryekhator/debonairkent/fs"
	"github.com/gregoryekhator/debonairkent/storage/database"
	inmemdb "github.com/gregoryekhator/debonairkent/storage/database/inmem"
	sqlxrepos "github.com/gregoryekhator/debonairkent/storage/database/sqlx"
)

// FixturesFile seeds the in-memory host.
const FixturesFile = "fixtures/host.yaml"

type (
	// Repositories are the storage of a host.
	Repositories struct {
		Users    user.Repository
		Jobs     user.JobRepository
		Courses  course.Repository
		Programs course.ProgramRepository
		Stats    course.StatsRepository
		Badges   badge.Repository
		Store    settings.Store
		Files    settings.FileStore
		// SQL is the connection of SQL engines, nil in memory.
		SQL *sql.DB

		close func() error
	}

	// Stack holds the services of the theme.
	Stack struct {
		Conf        *core.Config
		Repos       *Repositories
		Validate    *validator.Validate
		Translator  ut.Translator
		Lang        *core.Lang
		Formatter   *text.Formatter
		Users       *user.Service
		Courses     *course.Service
		UserData    *userdata.Composer
		ManagerData *managerdata.Composer
		Features    *features.Service
		Settings    *adminsettings.Manager
		Porter      *themeport.Porter
		Renderer    *render.Renderer
		FrontPage   *render.FrontPage
	}
)

// Close releases the database of the repositories.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRepositories returns the repositories of the configured database engine. The in-memory
// engine is seeded with the demo host; SQL databases are created and migrated when migrate is set.
func OpenRepositories(conf *core.Config, migrate bool) (*Repositories, error) {
	if conf.Database.Engine == database.EngineInMem {
		db, err := inmemdb.Open(conf.SiteID)
		if err != nil {
			return nil, errors.Wrap(err, "opening in-memory database")
		}
		if err = db.LoadFixtures(appfs.Fixtures, FixturesFile); err != nil {
			return nil, errors.Wrap(err, "loading fixtures")
		}

		userRepo, progRepo := inmemdb.NewUserRepository(db), inmemdb.NewProgramRepository(db)
		repos := &Repositories{
			Users:   userRepo,
			Courses: inmemdb.NewCourseRepository(db),
			Badges:  inmemdb.NewBadgeRepository(db),
			Store:   inmemdb.NewConfigStore(db),
			Files:   inmemdb.NewFileStore(db),
		}
		if conf.Totara {
			repos.Jobs, repos.Programs, repos.Stats = userRepo, progRepo, progRepo
		}
		return repos, nil
	}

	if migrate {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}
	conn, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if migrate {
		if err = database.Migrate(conn.DB, conf.Database.Engine); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	db, err := sqlxrepos.NewDB(conn, conf)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Repositories{
		Users:   sqlxrepos.NewUserRepository(db),
		Courses: sqlxrepos.NewCourseRepository(db),
		Badges:  sqlxrepos.NewBadgeRepository(db),
		Store:   sqlxrepos.NewConfigStore(db),
		Files:   sqlxrepos.NewFileStore(db),
		SQL:     conn.DB,
		close:   conn.Close,
	}, nil
}

// NewValidator returns the validator of the requests with its english translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	adminsettings.InitValidators(validate, translator)
	return validate, translator
}

// NewStack wires the services over repos.
func NewStack(conf *core.Config, repos *Repositories) (*Stack, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(repos, "repos"),
	).Check(); err != nil {
		return nil, err
	}

	s := &Stack{Conf: conf, Repos: repos, Formatter: text.NewFormatter()}
	s.Validate, s.Translator = NewValidator()
	s.Lang = core.NewLang(s.Translator)
	s.Users = user.NewService(repos.Users, repos.Jobs)

	var err error
	if s.Courses, err = course.NewService(conf, repos.Courses, repos.Programs, repos.Stats, s.Formatter, s.Lang); err != nil {
		return nil, errors.Wrap(err, "creating course service")
	}
	if s.UserData, err = userdata.NewComposer(conf, s.Users, s.Courses, repos.Badges); err != nil {
		return nil, errors.Wrap(err, "creating user data composer")
	}
	if s.ManagerData, err = managerdata.NewComposer(s.Users, s.Courses, s.UserData); err != nil {
		return nil, errors.Wrap(err, "creating manager data composer")
	}
	if s.Features, err = features.NewService(conf, s.UserData, s.Courses); err != nil {
		return nil, errors.Wrap(err, "creating features service")
	}
	s.Settings, err = adminsettings.NewManager(conf, repos.Store, repos.Files, repos.Courses, s.Validate, s.Translator, s.Lang)
	if err != nil {
		return nil, errors.Wrap(err, "creating settings manager")
	}
	if s.Porter, err = themeport.NewPorter(conf, s.Settings, s.Lang); err != nil {
		return nil, errors.Wrap(err, "creating settings porter")
	}
	if s.Renderer, err = render.NewRenderer(s.Lang); err != nil {
		return nil, errors.Wrap(err, "parsing theme templates")
	}
	if s.FrontPage, err = render.NewFrontPage(conf, s.Renderer, s.Courses); err != nil {
		return nil, errors.Wrap(err, "creating front page")
	}
	return s, nil
}
