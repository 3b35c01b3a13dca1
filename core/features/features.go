// Package features builds the view models of the theme blocks: my courses and upcoming
// certifications.
package features

import (
	"context"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/kat-co/vala"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/badge"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
)

const (
	// MyCoursesMax is the number of courses listed by default.
	MyCoursesMax = 12

	dueDateLayout = "02 January 2006"
)

var NowFunc = time.Now // mockable

type Service struct {
	userdata *userdata.Composer
	courses  *course.Service
	wwwRoot  string
}

func NewService(conf *core.Config, ud *userdata.Composer, courses *course.Service) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(ud, "userdata"),
		vala.IsNotNil(courses, "courses"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{userdata: ud, courses: courses, wwwRoot: conf.WWWRoot}, nil
}

// MyCourses returns up to max enrolled courses of usr with their progress and badges.
func (svc *Service) MyCourses(ctx context.Context, usr *user.User, max int) (map[string]interface{}, error) {
	res, err := svc.userdata.Compose(ctx, usr, map[string]interface{}{
		userdata.SectionCourses:        []int{},
		userdata.SectionCourseUserInfo: true,
	})
	if err != nil {
		return nil, err
	}

	lastID, _, hasLast := usr.LastCourseAccessed()
	expired := svc.courses.Lang().Get("expired")
	now := NowFunc()

	mycourses := make([]map[string]interface{}, 0, len(res.Courses))
	for _, d := range res.Courses {
		if max > 0 && len(mycourses) == max {
			break
		}
		item := d.Export()
		if hasLast && d.ID == lastID {
			item["islastaccessed"] = true
		}

		item["inprogress"] = false
		item["iscomplete"] = false
		if d.UserInfo != nil {
			switch {
			case d.UserInfo.CompleteActivitiesPerc == 100:
				item["iscomplete"] = true
			case d.UserInfo.CompleteActivitiesPerc != 0:
				item["inprogress"] = true
			}
		}

		badges, err := svc.userdata.Compose(ctx, usr, map[string]interface{}{userdata.SectionBadges: d.ID})
		if err != nil {
			return nil, err
		}
		if badges.Bundle.Has(userdata.SectionBadges) {
			items := badge.PrintList(badges.Badges, svc.wwwRoot, expired, now)
			list := make([]map[string]interface{}, 0, len(items))
			for _, it := range items {
				list = append(list, it.Export())
			}
			item["badges"] = list
		}
		mycourses = append(mycourses, item)
	}

	return map[string]interface{}{
		"hasmycourses": len(mycourses) > 0,
		"mycourses":    mycourses,
	}, nil
}

// UpcomingCertifications returns the certifications due for usr.
func (svc *Service) UpcomingCertifications(ctx context.Context, usr *user.User) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"featureimage":      svc.courses.ImageURL("block_sl_upcomingcertifications", "logo-circles"),
		"hascertifications": false,
		"certifications":    []map[string]interface{}{},
	}
	if !usr.IsValid() {
		return data, nil
	}

	certs, err := svc.courses.UpcomingCertifications(ctx, usr.ID)
	if err != nil {
		return nil, err
	}

	formatter := svc.courses.Formatter()
	now := NowFunc()
	list := make([]map[string]interface{}, 0, len(certs))
	for _, c := range certs {
		item := map[string]interface{}{
			"name":       formatter.FormatString(c.FullName),
			"summary":    template.HTML(formatter.FormatText(c.Summary, text.FormatHTML)),
			"link":       svc.courses.URL("/totara/program/required.php", url.Values{"id": {strconv.Itoa(c.ProgramID)}}),
			"hasduedate": false,
			"hasexpired": false,
		}
		if !c.TimeDue.IsZero() {
			item["hasduedate"] = true
			item["duedate"] = c.TimeDue.Format(dueDateLayout)
			item["hasexpired"] = c.TimeDue.Before(now)
		}
		list = append(list, item)
	}
	data["certifications"] = list
	data["hascertifications"] = len(list) > 0
	return data, nil
}
