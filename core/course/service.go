package course

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
)

const (
	SummaryLimit = 600
	maxTeachers  = 3
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		GetCourseByID(ctx context.Context, id int) (Course, error)
		// QueryCoursesByID skips missing courses.
		QueryCoursesByID(ctx context.Context, ids ...int) ([]Course, error)
		// QueryEnrolledCourses returns the visible courses userID is actively enrolled in.
		QueryEnrolledCourses(ctx context.Context, userID int) ([]Course, error)
		// QueryAvailableCourses returns the visible courses but the site course.
		QueryAvailableCourses(ctx context.Context) ([]Course, error)
		GetCategory(ctx context.Context, id int) (Category, error)
		QueryContacts(ctx context.Context, courseID int) ([]Contact, error)
		QueryOverviewFiles(ctx context.Context, courseID int) ([]OverviewFile, error)
		IsTrackedUser(ctx context.Context, courseID, userID int) (bool, error)
		QueryCompletions(ctx context.Context, courseID, userID int) ([]Completion, error)
		// QueryEnrolments returns the active enrolments of userID, by enrolment instance order.
		QueryEnrolments(ctx context.Context, courseID, userID int) ([]Enrolment, error)
		GetLastAccess(ctx context.Context, userID, courseID int) (time.Time, error)
	}

	// ProgramRepository exposes programs and certifications on hosts supporting them.
	ProgramRepository interface {
		QueryUserPrograms(ctx context.Context, userID int) ([]Program, error)
		QueryUpcomingCertifications(ctx context.Context, userID int) ([]Certification, error)
	}

	// StatsRepository counts the learning statistics of a team.
	StatsRepository interface {
		CountTeamStats(ctx context.Context, managerID int, staffIDs []int) (map[string]int, error)
	}

	// TextFormatter formats course summaries and names.
	TextFormatter interface {
		FormatText(s string, format text.Format) string
		FormatString(s string) string
	}

	Service struct {
		repo      Repository
		programs  ProgramRepository
		stats     StatsRepository
		formatter TextFormatter
		lang      *core.Lang
		wwwRoot   string
		themeName string
	}
)

// NewService returns the course data fetchers. programs and stats may be nil when the host
// does not support them.
func NewService(
	conf *core.Config,
	repo Repository,
	programs ProgramRepository,
	stats StatsRepository,
	formatter TextFormatter,
	lang *core.Lang,
) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(formatter, "formatter"),
		vala.IsNotNil(lang, "lang"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{
		repo:      repo,
		programs:  programs,
		stats:     stats,
		formatter: formatter,
		lang:      lang,
		wwwRoot:   conf.WWWRoot,
		themeName: conf.ThemeName,
	}, nil
}

func (svc *Service) Repository() Repository { return svc.repo }

// HasPrograms reports whether programs and certifications can be looked up.
func (svc *Service) HasPrograms() bool { return svc.programs != nil }

// HasStats reports whether team statistics can be counted.
func (svc *Service) HasStats() bool { return svc.stats != nil }

func (svc *Service) Lang() *core.Lang { return svc.lang }

func (svc *Service) Formatter() TextFormatter { return svc.formatter }

// URL returns the url of path on the site, with params as query string.
func (svc *Service) URL(path string, params url.Values) string {
	u := svc.wwwRoot + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (svc *Service) CourseURL(courseID int) string {
	return svc.URL("/course/view.php", url.Values{"id": {strconv.Itoa(courseID)}})
}

// ImageURL returns the url of a theme image.
func (svc *Service) ImageURL(component, name string) string {
	return svc.URL(fmt.Sprintf("/theme/image.php/%s/%s/1/%s", svc.themeName, component, name), nil)
}

// DefaultCourseImageURL is used by courses without overview image.
func (svc *Service) DefaultCourseImageURL() string {
	return svc.ImageURL("core", "course_defaultimage")
}

// UserPictureURL returns the picture of usr, or the default picture.
func (svc *Service) UserPictureURL(usr user.User) string {
	if usr.PictureURL != "" {
		return usr.PictureURL
	}
	return svc.ImageURL("core", "u/f1")
}

// ProfileURL returns the profile page of userID.
func (svc *Service) ProfileURL(userID int) string {
	return svc.URL("/user/profile.php", url.Values{"id": {strconv.Itoa(userID)}})
}

// CourseImageURL returns the first image of the course overview files, by file name, or
// the default course image.
func (svc *Service) CourseImageURL(ctx context.Context, courseID int) (string, error) {
	files, err := svc.repo.QueryOverviewFiles(ctx, courseID)
	if err != nil {
		return "", errors.Wrap(err, "querying overview files")
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	for _, f := range files {
		if !f.IsImage() {
			continue
		}
		path := f.FilePath
		if path == "" {
			path = "/"
		}
		return svc.URL(fmt.Sprintf("/pluginfile.php/%d/course/overviewfiles%s%s", f.ContextID, path, url.PathEscape(f.FileName)), nil), nil
	}
	return svc.DefaultCourseImageURL(), nil
}

// CategoryName returns the formatted name of the course category, empty when it is missing.
func (svc *Service) CategoryName(ctx context.Context, c Course) (string, error) {
	cat, err := svc.repo.GetCategory(ctx, c.CategoryID)
	if err != nil {
		if core.IsNotFound(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "getting category")
	}
	return svc.formatter.FormatString(cat.Name), nil
}

// ShortSummary formats the course summary and truncates it to limit visible characters.
func (svc *Service) ShortSummary(c Course, limit int) string {
	formatted := svc.formatter.FormatText(c.Summary, c.SummaryFormat)
	short := text.TruncateHTML(formatted, limit, "...", false, true)
	return svc.formatter.FormatText(short, text.FormatHTML)
}

// Teachers returns up to three course contacts; when more than one contact remains, extra
// holds a "+N" badge listing their names.
func (svc *Service) Teachers(ctx context.Context, courseID int) (Teachers, error) {
	contacts, err := svc.repo.QueryContacts(ctx, courseID)
	if err != nil {
		return Teachers{}, errors.Wrap(err, "querying contacts")
	}

	var t Teachers
	for i, c := range contacts {
		if i == maxTeachers {
			break
		}
		t.List = append(t.List, Teacher{
			Src:  svc.UserPictureURL(c.User),
			Name: c.User.FirstName + " " + c.User.LastName,
		})
	}

	if len(contacts) > maxTeachers {
		rest := contacts[maxTeachers:]
		if len(rest) > 1 {
			names := make([]string, 0, len(rest))
			for _, c := range rest {
				names = append(names, c.User.FirstName+" "+c.User.LastName)
			}
			t.Extra = template.HTML(fmt.Sprintf(
				`<div class="teachericon placeholder d-inline-block" data-toggle="tooltip" data-placement="bottom" data-html="true" title="%s">+%d</div>`,
				html.EscapeString(strings.Join(names, "<br />")), len(rest),
			))
		}
	}
	return t, nil
}

// Data returns the template data of course c.
func (svc *Service) Data(ctx context.Context, c Course) (Data, error) {
	category, err := svc.CategoryName(ctx, c)
	if err != nil {
		return Data{}, err
	}
	image, err := svc.CourseImageURL(ctx, c.ID)
	if err != nil {
		return Data{}, err
	}
	teachers, err := svc.Teachers(ctx, c.ID)
	if err != nil {
		return Data{}, err
	}
	return Data{
		Course:    c,
		Category:  category,
		Summary:   template.HTML(svc.ShortSummary(c, SummaryLimit)),
		ImageURL:  image,
		Teachers:  teachers,
		CourseURL: svc.CourseURL(c.ID),
	}, nil
}

// activities aggregates the activity criteria of completions.
func activities(completions []Completion) (criteria, complete int, modules map[int]bool) {
	modules = make(map[int]bool)
	for _, c := range completions {
		if c.CriteriaType != CriteriaTypeActivity {
			continue
		}
		criteria++
		modules[c.ModuleInstance] = c.Complete
		if c.Complete {
			complete++
		}
	}
	return criteria, complete, modules
}

// Percentage returns floor(100*value/total), 0 when total is 0.
func Percentage(total, value int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100 * float64(value) / float64(total)))
}

// roundedNow rounds the current time to 100 seconds.
func roundedNow() time.Time {
	now := NowFunc().Unix()
	return time.Unix(int64(math.Round(float64(now)/100)*100), 0)
}

// UserInfo returns the enrolment and completion state of userID in c.
func (svc *Service) UserInfo(ctx context.Context, c Course, userID int) (UserInfo, error) {
	var info UserInfo

	tracked, err := svc.repo.IsTrackedUser(ctx, c.ID, userID)
	if err != nil {
		return info, errors.Wrap(err, "checking tracked user")
	}
	if !tracked {
		return info, nil
	}

	now := roundedNow()
	info.InFuture = c.StartDate.After(now)

	enrolments, err := svc.repo.QueryEnrolments(ctx, c.ID, userID)
	if err != nil {
		return info, errors.Wrap(err, "querying enrolments")
	}
	if len(enrolments) > 0 {
		e := enrolments[0]
		info.EnrolmentDate = e.TimeStart
		info.EnrolmentStarted = e.TimeStart.Before(now)
		info.EnrolmentEnded = !(e.TimeEnd.IsZero() || e.TimeEnd.After(now))
	}

	completions, err := svc.repo.QueryCompletions(ctx, c.ID, userID)
	if err != nil {
		return info, errors.Wrap(err, "querying completions")
	}
	info.HasCompletion = len(completions) > 0

	info.TotalActivities, info.CompleteActivities, _ = activities(completions)
	info.IncompleteActivities = info.TotalActivities - info.CompleteActivities
	if info.TotalActivities > 0 {
		info.CompleteActivitiesPerc = Percentage(info.TotalActivities, info.CompleteActivities)
		info.IncompleteActivitiesPerc = 100 - info.CompleteActivitiesPerc
		info.IsCourseComplete = info.CompleteActivities > 0 && info.CompleteActivities == info.TotalActivities
	}
	return info, nil
}

// IsComplete reports whether userID completed every activity of courseID.
func (svc *Service) IsComplete(ctx context.Context, courseID, userID int) (bool, error) {
	tracked, err := svc.repo.IsTrackedUser(ctx, courseID, userID)
	if err != nil || !tracked {
		return false, errors.Wrap(err, "checking tracked user")
	}
	completions, err := svc.repo.QueryCompletions(ctx, courseID, userID)
	if err != nil {
		return false, errors.Wrap(err, "querying completions")
	}
	_, complete, modules := activities(completions)
	return complete > 0 && complete == len(modules), nil
}

// CompletionBar returns the activity progress of userID in courseID.
func (svc *Service) CompletionBar(ctx context.Context, courseID, userID int) (ActivityProgress, error) {
	var progress ActivityProgress

	completions, err := svc.repo.QueryCompletions(ctx, courseID, userID)
	if err != nil {
		return progress, errors.Wrap(err, "querying completions")
	}
	if len(completions) == 0 {
		return progress, nil
	}
	tracked, err := svc.repo.IsTrackedUser(ctx, courseID, userID)
	if err != nil {
		return progress, errors.Wrap(err, "checking tracked user")
	}
	if !tracked {
		return progress, nil
	}

	_, complete, modules := activities(completions)
	if len(modules) == 0 {
		return progress, nil
	}
	per := Percentage(len(modules), complete)
	progress = ActivityProgress{
		HasCompletion: true,
		Total:         len(modules),
		Complete:      complete,
		Percentage:    per,
		ProgressBar:   ProgressBarHTML(per),
	}
	return progress, nil
}

// ProgressBarHTML returns the bootstrap progress bar of percentage.
func ProgressBarHTML(percentage int) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<div class="progress"><div class="progress-bar-animated progress-bar" aria-valuemin="0" aria-valuemax="100" aria-valuenow="%d" style="width: %d%%"></div></div>`,
		percentage, percentage,
	))
}

// Details returns the course summary card of c. When userID is not 0, the last access of the
// user is included.
func (svc *Service) Details(ctx context.Context, c Course, userID, limit int) (Details, error) {
	if c.ID == 0 {
		return Details{}, core.ErrNotFound
	}
	category, err := svc.CategoryName(ctx, c)
	if err != nil {
		return Details{}, err
	}

	d := Details{
		ID:       c.ID,
		Name:     c.FullName,
		Category: category,
		URL:      svc.CourseURL(c.ID),
		Summary:  template.HTML(svc.ShortSummary(c, limit)),
	}

	if userID != 0 {
		if d.Progress, err = svc.CompletionBar(ctx, c.ID, userID); err != nil {
			return Details{}, err
		}
	}
	if d.Image, err = svc.CourseImageURL(ctx, c.ID); err != nil {
		return Details{}, err
	}

	if userID != 0 {
		at, err := svc.repo.GetLastAccess(ctx, userID, c.ID)
		switch {
		case err == nil && !at.IsZero():
			d.LastAccess = at.Format("02/01/06")
			d.LastAccessed = svc.lang.Get("lastaccessed", d.LastAccess)
		case err != nil && !core.IsNotFound(err):
			return Details{}, errors.Wrap(err, "getting last access")
		}
	}

	if d.Teachers, err = svc.Teachers(ctx, c.ID); err != nil {
		return Details{}, err
	}
	return d, nil
}

// LastCourseAccessed returns the course usr accessed last, looked up in courses first.
func (svc *Service) LastCourseAccessed(ctx context.Context, usr user.User, courses []Course) (Course, bool, error) {
	id, _, ok := usr.LastCourseAccessed()
	if !ok || id == 0 {
		return Course{}, false, nil
	}

	if len(courses) == 0 {
		var err error
		if courses, err = svc.repo.QueryEnrolledCourses(ctx, usr.ID); err != nil {
			return Course{}, false, errors.Wrap(err, "querying enrolled courses")
		}
	}
	for _, c := range courses {
		if c.ID == id {
			return c, true, nil
		}
	}

	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Course{}, false, nil
		}
		return Course{}, false, errors.Wrap(err, "getting course")
	}
	return c, true, nil
}

// Programs returns the programs of userID; none when programs are not supported.
func (svc *Service) Programs(ctx context.Context, userID int) ([]Program, error) {
	if svc.programs == nil {
		return nil, nil
	}
	progs, err := svc.programs.QueryUserPrograms(ctx, userID)
	return progs, errors.Wrap(err, "querying programs")
}

// UpcomingCertifications returns the certifications due for userID, latest window first.
func (svc *Service) UpcomingCertifications(ctx context.Context, userID int) ([]Certification, error) {
	if svc.programs == nil {
		return nil, nil
	}
	certs, err := svc.programs.QueryUpcomingCertifications(ctx, userID)
	return certs, errors.Wrap(err, "querying certifications")
}

// TeamStats counts the statistics of the team of managerID.
func (svc *Service) TeamStats(ctx context.Context, managerID int, staffIDs []int) (map[string]int, error) {
	if svc.stats == nil {
		return nil, nil
	}
	stats, err := svc.stats.CountTeamStats(ctx, managerID, staffIDs)
	return stats, errors.Wrap(err, "counting team stats")
}
