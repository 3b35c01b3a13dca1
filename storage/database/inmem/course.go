package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/user"
)

type courseRepository struct {
	db  *DB
	tbl *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db, tbl: db.course}
}

func sortCourses(courses []course.Course) {
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].SortOrder != courses[j].SortOrder {
			return courses[i].SortOrder < courses[j].SortOrder
		}
		return courses[i].ID < courses[j].ID
	})
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int) (course.Course, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if c, ok := repo.tbl.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, core.ErrNotFound
}

func (repo *courseRepository) QueryCoursesByID(_ context.Context, ids ...int) ([]course.Course, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	courses := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := repo.tbl.table[id]; ok {
			courses = append(courses, *c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryEnrolledCourses(_ context.Context, userID int) ([]course.Course, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	now := time.Now()
	var courses []course.Course
	for id, enrolments := range repo.tbl.enrolments {
		e, ok := enrolments[userID]
		if !ok || (!e.TimeEnd.IsZero() && e.TimeEnd.Before(now)) {
			continue
		}
		if c, ok := repo.tbl.table[id]; ok && c.Visible {
			courses = append(courses, *c)
		}
	}
	sortCourses(courses)
	return courses, nil
}

func (repo *courseRepository) QueryAvailableCourses(_ context.Context) ([]course.Course, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	var courses []course.Course
	for _, c := range repo.tbl.table {
		if c.Visible && c.ID != repo.db.siteID {
			courses = append(courses, *c)
		}
	}
	sortCourses(courses)
	return courses, nil
}

func (repo *courseRepository) GetCategory(_ context.Context, id int) (course.Category, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if cat, ok := repo.tbl.categories[id]; ok {
		return cat, nil
	}
	return course.Category{}, core.ErrNotFound
}

func (repo *courseRepository) QueryContacts(ctx context.Context, courseID int) ([]course.Contact, error) {
	repo.tbl.RLock()
	contacts := append([]contact(nil), repo.tbl.contacts[courseID]...)
	repo.tbl.RUnlock()

	users := NewUserRepository(repo.db)
	out := make([]course.Contact, 0, len(contacts))
	for _, c := range contacts {
		usr, err := users.GetUserByID(ctx, c.userID)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, course.Contact{User: usr, Role: c.role})
	}
	return out, nil
}

func (repo *courseRepository) QueryOverviewFiles(_ context.Context, courseID int) ([]course.OverviewFile, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()
	return append([]course.OverviewFile(nil), repo.tbl.files[courseID]...), nil
}

func (repo *courseRepository) enrolment(courseID, userID int) (*enrolment, bool) {
	e, ok := repo.tbl.enrolments[courseID][userID]
	return e, ok
}

func (repo *courseRepository) IsTrackedUser(_ context.Context, courseID, userID int) (bool, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	e, ok := repo.enrolment(courseID, userID)
	return ok && e.tracked, nil
}

func (repo *courseRepository) QueryCompletions(_ context.Context, courseID, userID int) ([]course.Completion, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if e, ok := repo.enrolment(courseID, userID); ok {
		return append([]course.Completion(nil), e.completions...), nil
	}
	return nil, nil
}

func (repo *courseRepository) QueryEnrolments(_ context.Context, courseID, userID int) ([]course.Enrolment, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if e, ok := repo.enrolment(courseID, userID); ok {
		return []course.Enrolment{e.Enrolment}, nil
	}
	return nil, nil
}

func (repo *courseRepository) GetLastAccess(_ context.Context, userID, courseID int) (time.Time, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if e, ok := repo.enrolment(courseID, userID); ok && !e.lastAccess.IsZero() {
		return e.lastAccess, nil
	}
	return time.Time{}, core.ErrNotFound
}

// Enrol enrols usr in courseID, tracking its completion.
func (repo *courseRepository) Enrol(courseID int, usr user.User, start time.Time, completions ...course.Completion) error {
	repo.tbl.Lock()
	defer repo.tbl.Unlock()

	if _, ok := repo.tbl.table[courseID]; !ok {
		return core.ErrNotFound
	}
	if repo.tbl.enrolments[courseID] == nil {
		repo.tbl.enrolments[courseID] = make(map[int]*enrolment)
	}
	repo.tbl.enrolments[courseID][usr.ID] = &enrolment{
		Enrolment:   course.Enrolment{EnrolID: repo.db.nextPK("enrol"), TimeStart: start},
		tracked:     true,
		completions: completions,
	}
	return nil
}
