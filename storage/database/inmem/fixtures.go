package inmemdb

import (
	"io/fs"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gregoryekhator/debonairkent/core/badge"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
)

type (
	// Fixtures describe the content of a host.
	Fixtures struct {
		Users      []userFixture                `yaml:"users"`
		Categories []course.Category            `yaml:"categories"`
		Courses    []courseFixture              `yaml:"courses"`
		Badges     []badgeFixture               `yaml:"badges"`
		Programs   []programFixture             `yaml:"programs"`
		TeamStats  map[int]map[string]int       `yaml:"teamstats"`
		Config     map[string]map[string]string `yaml:"config"`
	}

	userFixture struct {
		ID               int               `yaml:"id"`
		Username         string            `yaml:"username"`
		FirstName        string            `yaml:"firstname"`
		LastName         string            `yaml:"lastname"`
		Email            string            `yaml:"email"`
		Password         string            `yaml:"password"`
		Roles            []string          `yaml:"roles"`
		Guest            bool              `yaml:"guest"`
		Picture          string            `yaml:"picture"`
		Managers         []int             `yaml:"managers"`
		LastCourseAccess map[int]time.Time `yaml:"lastcourseaccess"`
	}

	courseFixture struct {
		ID            int         `yaml:"id"`
		Category      int         `yaml:"category"`
		ShortName     string      `yaml:"shortname"`
		FullName      string      `yaml:"fullname"`
		Summary       string      `yaml:"summary"`
		SummaryFormat text.Format `yaml:"summaryformat"`
		Hidden        bool        `yaml:"hidden"`
		StartDate     time.Time   `yaml:"startdate"`
		SortOrder     int         `yaml:"sortorder"`
		Contacts      []struct {
			User int    `yaml:"user"`
			Role string `yaml:"role"`
		} `yaml:"contacts"`
		OverviewFiles []struct {
			FileName string `yaml:"filename"`
			MimeType string `yaml:"mimetype"`
		} `yaml:"overviewfiles"`
		Enrolments []struct {
			User        int       `yaml:"user"`
			TimeStart   time.Time `yaml:"timestart"`
			TimeEnd     time.Time `yaml:"timeend"`
			Untracked   bool      `yaml:"untracked"`
			LastAccess  time.Time `yaml:"lastaccess"`
			Completions []struct {
				Module   int  `yaml:"module"`
				Type     int  `yaml:"type"`
				Complete bool `yaml:"complete"`
			} `yaml:"completions"`
		} `yaml:"enrolments"`
	}

	badgeFixture struct {
		ID          int       `yaml:"id"`
		User        int       `yaml:"user"`
		Name        string    `yaml:"name"`
		Description string    `yaml:"description"`
		Course      int       `yaml:"course"`
		UniqueHash  string    `yaml:"uniquehash"`
		DateIssued  time.Time `yaml:"dateissued"`
		DateExpire  time.Time `yaml:"dateexpire"`
	}

	programFixture struct {
		ID              int       `yaml:"id"`
		User            int       `yaml:"user"`
		FullName        string    `yaml:"fullname"`
		Summary         string    `yaml:"summary"`
		CertifID        int       `yaml:"certifid"`
		Inaccessible    bool      `yaml:"inaccessible"`
		TimeExpires     time.Time `yaml:"timeexpires"`
		DueDate         time.Time `yaml:"duedate"`
		Upcoming        bool      `yaml:"upcoming"`
		TimeWindowOpens time.Time `yaml:"timewindowopens"`
		TimeDue         time.Time `yaml:"timedue"`
	}
)

// LoadFixtures seeds db from the YAML file name of fsys.
func (db *DB) LoadFixtures(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return errors.Wrapf(err, "decoding %s", name)
	}
	return db.Seed(fx)
}

// Seed adds fx to db.
func (db *DB) Seed(fx Fixtures) error {
	if err := db.seedUsers(fx.Users); err != nil {
		return err
	}
	db.seedCourses(fx.Categories, fx.Courses)
	db.seedBadges(fx.Badges)
	db.seedPrograms(fx.Programs, fx.TeamStats)

	db.config.Lock()
	for plugin, values := range fx.Config {
		if db.config.table[plugin] == nil {
			db.config.table[plugin] = make(map[string]string)
		}
		for name, value := range values {
			db.config.table[plugin][name] = value
		}
	}
	db.config.Unlock()
	return nil
}

func (db *DB) seedUsers(fixtures []userFixture) error {
	db.user.Lock()
	defer db.user.Unlock()

	for _, f := range fixtures {
		usr := &user.User{
			ID:               f.ID,
			Username:         f.Username,
			FirstName:        f.FirstName,
			LastName:         f.LastName,
			Email:            f.Email,
			Roles:            f.Roles,
			IsGuest:          f.Guest,
			PictureURL:       f.Picture,
			LastCourseAccess: f.LastCourseAccess,
		}
		if f.Password != "" {
			if err := usr.SetPassword(f.Password); err != nil {
				return errors.Wrapf(err, "hashing password of %s", f.Username)
			}
		}
		db.user.table[usr.ID] = usr
		if len(f.Managers) > 0 {
			db.user.managers[usr.ID] = f.Managers
		}
		db.seenPK("user", usr.ID)
	}
	return nil
}

func (db *DB) seedCourses(categories []course.Category, fixtures []courseFixture) {
	db.course.Lock()
	defer db.course.Unlock()

	for _, cat := range categories {
		db.course.categories[cat.ID] = cat
	}

	for _, f := range fixtures {
		db.course.table[f.ID] = &course.Course{
			ID:            f.ID,
			CategoryID:    f.Category,
			ShortName:     f.ShortName,
			FullName:      f.FullName,
			Summary:       f.Summary,
			SummaryFormat: f.SummaryFormat,
			Visible:       !f.Hidden,
			StartDate:     f.StartDate,
			SortOrder:     f.SortOrder,
		}
		db.seenPK("course", f.ID)

		for _, c := range f.Contacts {
			db.course.contacts[f.ID] = append(db.course.contacts[f.ID], contact{userID: c.User, role: c.Role})
		}
		for _, file := range f.OverviewFiles {
			db.course.files[f.ID] = append(db.course.files[f.ID], course.OverviewFile{
				ContextID: courseContextID(f.ID),
				FilePath:  "/",
				FileName:  file.FileName,
				MimeType:  file.MimeType,
			})
		}

		enrolments := make(map[int]*enrolment, len(f.Enrolments))
		for i, e := range f.Enrolments {
			enrol := &enrolment{
				Enrolment:  course.Enrolment{EnrolID: i + 1, TimeStart: e.TimeStart, TimeEnd: e.TimeEnd},
				tracked:    !e.Untracked,
				lastAccess: e.LastAccess,
			}
			for _, c := range e.Completions {
				typ := c.Type
				if typ == 0 {
					typ = course.CriteriaTypeActivity
				}
				enrol.completions = append(enrol.completions, course.Completion{
					CriteriaType:   typ,
					ModuleInstance: c.Module,
					Complete:       c.Complete,
				})
			}
			enrolments[e.User] = enrol
		}
		db.course.enrolments[f.ID] = enrolments
	}
}

func (db *DB) seedBadges(fixtures []badgeFixture) {
	db.badge.Lock()
	defer db.badge.Unlock()

	for _, f := range fixtures {
		b := badge.Badge{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Type:        badge.TypeSite,
			ContextID:   1,
			CourseID:    f.Course,
			UniqueHash:  f.UniqueHash,
			DateIssued:  f.DateIssued,
			DateExpire:  f.DateExpire,
			Visible:     true,
			IssuedID:    f.ID,
		}
		if f.Course != 0 && f.Course != db.siteID {
			b.Type = badge.TypeCourse
			b.ContextID = courseContextID(f.Course)
		}
		db.badge.table[f.User] = append(db.badge.table[f.User], b)
	}
}

func (db *DB) seedPrograms(fixtures []programFixture, stats map[int]map[string]int) {
	db.program.Lock()
	defer db.program.Unlock()

	for _, f := range fixtures {
		db.program.programs[f.User] = append(db.program.programs[f.User], course.Program{
			ID:          f.ID,
			FullName:    f.FullName,
			Summary:     f.Summary,
			CertifID:    f.CertifID,
			Accessible:  !f.Inaccessible,
			TimeExpires: f.TimeExpires,
			DueDate:     f.DueDate,
		})
		if f.Upcoming && f.CertifID != 0 {
			db.program.certifications[f.User] = append(db.program.certifications[f.User], course.Certification{
				ProgramID:       f.ID,
				FullName:        f.FullName,
				Summary:         f.Summary,
				TimeWindowOpens: f.TimeWindowOpens,
				TimeDue:         f.TimeDue,
			})
		}
	}
	for managerID, counts := range stats {
		db.program.stats[managerID] = counts
	}
}
