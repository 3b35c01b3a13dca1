// Package inmemdb is an in-memory LMS host, seeded from YAML fixtures.
package inmemdb

import (
	"sync"
	"time"

	"github.com/gregoryekhator/debonairkent/core/badge"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/user"
)

type (
	DB struct {
		user     *userTable
		course   *courseTable
		badge    *badgeTable
		program  *programTable
		config   *configTable
		file     *fileTable
		siteID   int
		pkCounts map[string]int
		pkMutex  sync.Mutex
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
		// user id => manager ids
		managers map[int][]int
	}

	// enrolment is the state of a user in a course.
	enrolment struct {
		course.Enrolment
		tracked     bool
		lastAccess  time.Time
		completions []course.Completion
	}

	courseTable struct {
		sync.RWMutex
		table      map[int]*course.Course
		categories map[int]course.Category
		contacts   map[int][]contact
		files      map[int][]course.OverviewFile
		// course id => user id => enrolment
		enrolments map[int]map[int]*enrolment
	}

	contact struct {
		userID int
		role   string
	}

	badgeTable struct {
		sync.RWMutex
		// user id => badges, latest first
		table map[int][]badge.Badge
	}

	programTable struct {
		sync.RWMutex
		programs       map[int][]course.Program
		certifications map[int][]course.Certification
		// manager id => stat counts
		stats map[int]map[string]int
	}

	configTable struct {
		sync.RWMutex
		// plugin => name => value
		table map[string]map[string]string
		log   []settings.ConfigLog
	}

	fileTable struct {
		sync.RWMutex
		table []settings.File
	}
)

// Open returns an empty host; siteID is the id of the front page course.
func Open(siteID int) (*DB, error) {
	db := &DB{
		user: &userTable{
			table:    make(map[int]*user.User),
			managers: make(map[int][]int),
		},
		course: &courseTable{
			table:      make(map[int]*course.Course),
			categories: make(map[int]course.Category),
			contacts:   make(map[int][]contact),
			files:      make(map[int][]course.OverviewFile),
			enrolments: make(map[int]map[int]*enrolment),
		},
		badge: &badgeTable{table: make(map[int][]badge.Badge)},
		program: &programTable{
			programs:       make(map[int][]course.Program),
			certifications: make(map[int][]course.Certification),
			stats:          make(map[int]map[string]int),
		},
		config:   &configTable{table: make(map[string]map[string]string)},
		file:     &fileTable{},
		siteID:   siteID,
		pkCounts: make(map[string]int),
	}
	return db, nil
}

// nextPK returns the next primary key of table.
func (db *DB) nextPK(table string) int {
	db.pkMutex.Lock()
	defer db.pkMutex.Unlock()
	db.pkCounts[table]++
	return db.pkCounts[table]
}

// seenPK makes sure the next primary keys of table are greater than id.
func (db *DB) seenPK(table string, id int) {
	db.pkMutex.Lock()
	defer db.pkMutex.Unlock()
	if id > db.pkCounts[table] {
		db.pkCounts[table] = id
	}
}

// courseContextID is the context of the files of courseID.
func courseContextID(courseID int) int {
	return 1000 + courseID
}
