package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
)

const courseColumns = "c.id, c.category, c.shortname, c.fullname, c.summary, c.summaryformat, c.visible, c.startdate, c.sortorder"

// activeEnrolment joins the active enrolments of ue.userid in c.
const activeEnrolment = `
	JOIN {enrol} e ON e.courseid = c.id AND e.status = 0
	JOIN {user_enrolments} ue ON ue.enrolid = e.id AND ue.status = 0
		AND ue.timestart <= ? AND (ue.timeend = 0 OR ue.timeend > ?)`

type (
	courseRow struct {
		ID            int    `db:"id"`
		Category      int    `db:"category"`
		ShortName     string `db:"shortname"`
		FullName      string `db:"fullname"`
		Summary       string `db:"summary"`
		SummaryFormat int    `db:"summaryformat"`
		Visible       bool   `db:"visible"`
		StartDate     int64  `db:"startdate"`
		SortOrder     int    `db:"sortorder"`
	}

	courseRepository struct {
		db *DB
	}
)

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:            r.ID,
		CategoryID:    r.Category,
		ShortName:     r.ShortName,
		FullName:      r.FullName,
		Summary:       r.Summary,
		SummaryFormat: text.Format(r.SummaryFormat),
		Visible:       r.Visible,
		StartDate:     fromUnix(r.StartDate),
		SortOrder:     r.SortOrder,
	}
}

func toCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	if err := repo.db.get(ctx, &row, "SELECT "+courseColumns+" FROM {course} c WHERE c.id = ?", id); err != nil {
		return course.Course{}, err
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCoursesByID(ctx context.Context, ids ...int) ([]course.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := repo.db.in("SELECT "+courseColumns+" FROM {course} c WHERE c.id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	byID := make(map[int]courseRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	courses := make([]course.Course, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			courses = append(courses, r.toCourse())
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryEnrolledCourses(ctx context.Context, userID int) ([]course.Course, error) {
	now := NowFunc().Unix()
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows, repo.db.q(`
		SELECT DISTINCT `+courseColumns+`
		FROM {course} c`+activeEnrolment+`
		WHERE ue.userid = ? AND c.visible = 1
		ORDER BY c.sortorder, c.id`), now, now, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolled courses")
	}
	return toCourses(rows), nil
}

func (repo *courseRepository) QueryAvailableCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows, repo.db.q(`
		SELECT `+courseColumns+` FROM {course} c
		WHERE c.visible = 1 AND c.id <> ?
		ORDER BY c.sortorder, c.id`), repo.db.siteID)
	if err != nil {
		return nil, errors.Wrap(err, "querying available courses")
	}
	return toCourses(rows), nil
}

func (repo *courseRepository) GetCategory(ctx context.Context, id int) (course.Category, error) {
	var cat course.Category
	err := repo.db.get(ctx, &cat, "SELECT id, name FROM {course_categories} WHERE id = ?", id)
	return cat, err
}

func (repo *courseRepository) QueryContacts(ctx context.Context, courseID int) ([]course.Contact, error) {
	query, args, err := repo.db.in(`
		SELECT ra.userid, r.shortname
		FROM {role_assignments} ra
		JOIN {role} r ON r.id = ra.roleid
		JOIN {context} ctx ON ctx.id = ra.contextid AND ctx.contextlevel = ? AND ctx.instanceid = ?
		JOIN {user} u ON u.id = ra.userid AND u.deleted = 0
		WHERE r.shortname IN (?)
		ORDER BY r.sortorder, u.lastname, u.firstname, u.id`, contextCourse, courseID, user.ContactRoles)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		UserID int    `db:"userid"`
		Role   string `db:"shortname"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying contacts")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := NewUserRepository(repo.db).QueryUsersByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]user.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}

	contacts := make([]course.Contact, 0, len(rows))
	for _, r := range rows {
		if usr, ok := byID[r.UserID]; ok {
			contacts = append(contacts, course.Contact{User: usr, Role: r.Role})
		}
	}
	return contacts, nil
}

func (repo *courseRepository) QueryOverviewFiles(ctx context.Context, courseID int) ([]course.OverviewFile, error) {
	var files []course.OverviewFile
	err := repo.db.SelectContext(ctx, &files, repo.db.q(`
		SELECT f.contextid, f.filepath, f.filename, f.mimetype
		FROM {files} f
		JOIN {context} ctx ON ctx.id = f.contextid AND ctx.contextlevel = ? AND ctx.instanceid = ?
		WHERE f.component = 'course' AND f.filearea = 'overviewfiles' AND f.filename <> '.'
		ORDER BY f.filepath, f.filename`), contextCourse, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying overview files")
	}
	return files, nil
}

// IsTrackedUser reports whether userID is actively enrolled as a student of courseID.
func (repo *courseRepository) IsTrackedUser(ctx context.Context, courseID, userID int) (bool, error) {
	now := NowFunc().Unix()
	var n int
	err := repo.db.GetContext(ctx, &n, repo.db.q(`
		SELECT COUNT(1)
		FROM {course} c`+activeEnrolment+`
		JOIN {context} ctx ON ctx.contextlevel = ? AND ctx.instanceid = c.id
		JOIN {role_assignments} ra ON ra.contextid = ctx.id AND ra.userid = ue.userid
		JOIN {role} r ON r.id = ra.roleid AND r.shortname = ?
		WHERE c.id = ? AND ue.userid = ?`),
		now, now, contextCourse, user.RoleStudent, courseID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking tracked user")
	}
	return n > 0, nil
}

func (repo *courseRepository) QueryCompletions(ctx context.Context, courseID, userID int) ([]course.Completion, error) {
	var completions []course.Completion
	err := repo.db.SelectContext(ctx, &completions, repo.db.q(`
		SELECT cr.criteriatype, cr.moduleinstance,
			CASE WHEN cc.timecompleted > 0 THEN 1 ELSE 0 END AS complete
		FROM {course_completion_criteria} cr
		LEFT JOIN {course_completion_crit_compl} cc ON cc.criteriaid = cr.id AND cc.userid = ?
		WHERE cr.course = ?
		ORDER BY cr.id`), userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying completions")
	}
	return completions, nil
}

func (repo *courseRepository) QueryEnrolments(ctx context.Context, courseID, userID int) ([]course.Enrolment, error) {
	now := NowFunc().Unix()
	var rows []struct {
		EnrolID   int   `db:"enrolid"`
		TimeStart int64 `db:"timestart"`
		TimeEnd   int64 `db:"timeend"`
	}
	err := repo.db.SelectContext(ctx, &rows, repo.db.q(`
		SELECT ue.enrolid, ue.timestart, ue.timeend
		FROM {course} c`+activeEnrolment+`
		WHERE c.id = ? AND ue.userid = ?
		ORDER BY e.sortorder, e.id`), now, now, courseID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolments")
	}
	enrolments := make([]course.Enrolment, 0, len(rows))
	for _, r := range rows {
		enrolments = append(enrolments, course.Enrolment{
			EnrolID:   r.EnrolID,
			TimeStart: fromUnix(r.TimeStart),
			TimeEnd:   fromUnix(r.TimeEnd),
		})
	}
	return enrolments, nil
}

func (repo *courseRepository) GetLastAccess(ctx context.Context, userID, courseID int) (time.Time, error) {
	var at int64
	err := repo.db.get(ctx, &at, "SELECT timeaccess FROM {user_lastaccess} WHERE userid = ? AND courseid = ?", userID, courseID)
	if err != nil {
		return time.Time{}, err
	}
	if at == 0 {
		return time.Time{}, core.ErrNotFound
	}
	return fromUnix(at), nil
}
