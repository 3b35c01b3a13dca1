// Package userdata composes the template data of a user: profile, courses, course progress,
// badges and statistics.
package userdata

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/badge"
	"github.com/gregoryekhator/debonairkent/core/bundle"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/user"
)

// Sections
const (
	Name = "userdata"

	SectionUser           = "user"
	SectionCourses        = "courses"
	SectionCourseUserInfo = "courseuserinfo"
	SectionBadges         = "badges"
	SectionUserStats      = "userstats"
)

// Values shared between sections.
const (
	valueUser    = "user"
	valueCourses = "courses"
	valueBadges  = "badges"
)

var NowFunc = time.Now // mockable

type (
	Composer struct {
		users   *user.Service
		courses *course.Service
		badges  badge.Repository
		siteID  int
		builder *bundle.Builder
	}

	// subject is the user a bundle is built around. visited holds the users of the manager
	// chain being built.
	subject struct {
		user    *user.User
		visited map[int]bool
	}
)

func NewComposer(conf *core.Config, users *user.Service, courses *course.Service, badges badge.Repository) (*Composer, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(badges, "badges"),
	).Check(); err != nil {
		return nil, err
	}

	c := &Composer{users: users, courses: courses, badges: badges, siteID: conf.SiteID}
	c.builder = bundle.NewBuilder(Name,
		validSubject,
		bundle.Section{Name: SectionUser, Run: c.includeUser},
		bundle.Section{Name: SectionCourses, Run: c.includeCourses},
		bundle.Section{Name: SectionCourseUserInfo, Run: c.includeCourseUserInfo},
		bundle.Section{Name: SectionBadges, Run: c.includeBadges},
		bundle.Section{Name: SectionUserStats, Run: c.includeUserStats},
	)
	return c, nil
}

func validSubject(s interface{}) bool {
	sub, ok := s.(*subject)
	return ok && sub.user.IsValid()
}

// Build returns the bundle of usr holding the requested sections. The user section is always
// included. The courses section takes a []int of course ids (enrolled courses when empty), the
// badges section a course id.
func (c *Composer) Build(ctx context.Context, usr *user.User, requested map[string]interface{}) (bundle.Bundle, error) {
	res, err := c.Compose(ctx, usr, requested)
	return res.Bundle, err
}

// Result is a built bundle along the typed values it was built from.
type Result struct {
	Bundle  bundle.Bundle
	User    *user.User
	Courses []*course.Data
	Badges  []badge.Badge
}

// Compose is Build returning the typed values as well.
func (c *Composer) Compose(ctx context.Context, usr *user.User, requested map[string]interface{}) (Result, error) {
	return c.compose(ctx, &subject{user: usr, visited: map[int]bool{}}, requested)
}

func (c *Composer) compose(ctx context.Context, sub *subject, requested map[string]interface{}) (Result, error) {
	st, err := c.builder.Run(ctx, sub, requested)
	res := Result{Bundle: st.Bundle}
	res.User, _ = st.Values[valueUser].(*user.User)
	res.Courses, _ = st.Values[valueCourses].([]*course.Data)
	res.Badges, _ = st.Values[valueBadges].([]badge.Badge)
	return res, err
}

func (c *Composer) includeUser(ctx context.Context, st *bundle.State, _ interface{}) error {
	sub := st.Subject.(*subject)
	usr := sub.user
	sub.visited[usr.ID] = true
	st.Values[valueUser] = usr

	data, err := c.userData(ctx, sub)
	if err != nil {
		return err
	}
	st.Bundle[SectionUser] = data
	return nil
}

// PictureHTML returns the picture tag of usr.
func (c *Composer) PictureHTML(usr *user.User) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<img src="%s" class="userpicture" width="100" height="100" alt="%s" />`,
		html.EscapeString(c.courses.UserPictureURL(*usr)), html.EscapeString(usr.FullName()),
	))
}

func (c *Composer) userData(ctx context.Context, sub *subject) (map[string]interface{}, error) {
	usr := sub.user
	data := map[string]interface{}{
		"id":                      usr.ID,
		"username":                usr.Username,
		"firstname":               usr.FirstName,
		"lastname":                usr.LastName,
		"email":                   usr.Email,
		"fullname":                usr.FullName(),
		"userpicture":             c.PictureHTML(usr),
		"profileurl":              c.courses.ProfileURL(usr.ID),
		"haslastcourseaccessedid": false,
	}

	if id, at, ok := usr.LastCourseAccessed(); ok {
		data["lastcourseaccessedid"] = id
		data["lastcourseaccesseddate"] = at.Unix()
		data["haslastcourseaccessedid"] = true
	}

	if c.users.HasJobAssignments() {
		manager, ok, err := c.users.Manager(ctx, usr.ID)
		if err != nil {
			return nil, err
		}
		if ok && manager.ID != 0 && !sub.visited[manager.ID] {
			res, err := c.compose(ctx, &subject{user: &manager, visited: sub.visited}, nil)
			if err != nil {
				return nil, errors.Wrap(err, "building manager data")
			}
			if res.Bundle.Has(Name) {
				data["manager"] = res.Bundle
			}
		}
	}
	return data, nil
}

// courseIDs reads the course ids a section was requested with.
func courseIDs(param interface{}) []int {
	switch v := param.(type) {
	case []int:
		return v
	case []string:
		ids := make([]int, 0, len(v))
		for _, s := range v {
			if id, err := strconv.Atoi(s); err == nil {
				ids = append(ids, id)
			}
		}
		return ids
	case []interface{}:
		ids := make([]int, 0, len(v))
		for _, i := range v {
			if id, ok := toInt(i); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}
	return nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func (c *Composer) includeCourses(ctx context.Context, st *bundle.State, param interface{}) error {
	usr := st.Values[valueUser].(*user.User)
	repo := c.courses.Repository()

	var (
		courses []course.Course
		err     error
	)
	if ids := courseIDs(param); len(ids) > 0 {
		courses, err = repo.QueryCoursesByID(ctx, ids...)
	} else {
		courses, err = repo.QueryEnrolledCourses(ctx, usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}

	data := make([]*course.Data, 0, len(courses))
	for _, crs := range courses {
		d, err := c.courses.Data(ctx, crs)
		if err != nil {
			return err
		}
		data = append(data, &d)
	}
	st.Values[valueCourses] = data
	st.Set(SectionCourses, exportCourses(data), len(data) > 0)
	return nil
}

func exportCourses(data []*course.Data) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(data))
	for _, d := range data {
		out = append(out, d.Export())
	}
	return out
}

func (c *Composer) includeCourseUserInfo(ctx context.Context, st *bundle.State, _ interface{}) error {
	if err := st.Require(ctx, SectionCourses); err != nil {
		return err
	}
	usr := st.Values[valueUser].(*user.User)
	data := st.Values[valueCourses].([]*course.Data)

	for _, d := range data {
		info, err := c.courses.UserInfo(ctx, d.Course, usr.ID)
		if err != nil {
			return err
		}
		d.UserInfo = &info
	}
	st.Bundle[SectionCourses] = exportCourses(data)
	st.Bundle[bundle.HasKey(SectionCourseUserInfo)] = len(data) > 0
	return nil
}

func (c *Composer) includeBadges(ctx context.Context, st *bundle.State, param interface{}) error {
	usr := st.Values[valueUser].(*user.User)

	courseID, _ := toInt(param)
	if courseID == c.siteID {
		courseID = 0
	}
	badges, err := c.badges.QueryUserBadges(ctx, usr.ID, courseID, badge.ListLimit)
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	st.Values[valueBadges] = badges
	st.Set(SectionBadges, badge.Export(badges), len(badges) > 0)
	return nil
}

func (c *Composer) includeUserStats(ctx context.Context, st *bundle.State, _ interface{}) error {
	if err := st.Require(ctx, SectionCourses); err != nil {
		return err
	}
	usr := st.Values[valueUser].(*user.User)
	data := st.Values[valueCourses].([]*course.Data)

	var completed int
	for _, d := range data {
		complete, err := c.courses.IsComplete(ctx, d.ID, usr.ID)
		if err != nil {
			return err
		}
		if complete {
			completed++
		}
	}
	stats := map[string]interface{}{
		"coursesenrolled":  len(data),
		"coursescompleted": completed,
		"incomplete":       len(data) - completed,
	}

	if c.courses.HasPrograms() {
		programs, err := c.courses.Programs(ctx, usr.ID)
		if err != nil {
			return err
		}
		now := NowFunc()
		var certifications, overdue int
		for _, p := range programs {
			if !p.Accessible {
				continue
			}
			if !p.TimeExpires.IsZero() {
				if p.TimeExpires.Before(now) {
					overdue++
				}
			} else if !p.DueDate.IsZero() && p.DueDate.Before(now) {
				overdue++
			}
			if p.CertifID != 0 {
				certifications++
			}
		}
		stats["certificationstotal"] = certifications
		stats["overduetotal"] = overdue
	}

	st.Set(SectionUserStats, stats, true)
	return nil
}
