package render

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/text"
)

const promotedSummaryLength = 75

// FrontPage renders the course blocks of the site front page.
type FrontPage struct {
	renderer *Renderer
	courses  *course.Service
	lang     *core.Lang
	limit    int
}

func NewFrontPage(conf *core.Config, renderer *Renderer, courses *course.Service) (*FrontPage, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(renderer, "renderer"),
		vala.IsNotNil(courses, "courses"),
	).Check(); err != nil {
		return nil, err
	}
	return &FrontPage{renderer: renderer, courses: courses, lang: courses.Lang(), limit: conf.FrontpageCourseLimit}, nil
}

// noImageURL returns the placeholder of courses without overview image for the color scheme
// of the theme.
func (fp *FrontPage) noImageURL(theme settings.Theme) string {
	pattern := theme.Get("patternselect")
	if pattern == "" || pattern == "default" {
		return fp.courses.ImageURL("theme", "default/no-image")
	}
	return fp.courses.ImageURL("theme", "cs0"+pattern+"/no-image")
}

func (fp *FrontPage) courseBox(ctx context.Context, c course.Course, noImage string) (map[string]interface{}, error) {
	img, err := fp.courses.CourseImageURL(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if img == fp.courses.DefaultCourseImageURL() {
		img = noImage
	}
	formatter := fp.courses.Formatter()
	return map[string]interface{}{
		"id":        c.ID,
		"fullname":  formatter.FormatString(c.FullName),
		"courseurl": fp.courses.CourseURL(c.ID),
		"imageurl":  img,
		"summary":   text.TrimChars(text.StripTags(formatter.FormatText(c.Summary, c.SummaryFormat)), promotedSummaryLength),
	}, nil
}

// AvailableCourses returns the data of the available courses block.
func (fp *FrontPage) AvailableCourses(ctx context.Context, theme settings.Theme) (map[string]interface{}, error) {
	courses, err := fp.courses.Repository().QueryAvailableCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying available courses")
	}

	data := map[string]interface{}{"totalcount": len(courses)}
	if fp.limit > 0 && len(courses) > fp.limit {
		courses = courses[:fp.limit]
		data["viewmoreurl"] = fp.courses.URL("/course/index.php", nil)
	}

	noImage := fp.noImageURL(theme)
	boxes := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		box, err := fp.courseBox(ctx, c, noImage)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	data["courses"] = boxes
	return data, nil
}

// RenderAvailableCourses renders the available courses block to w.
func (fp *FrontPage) RenderAvailableCourses(ctx context.Context, w io.Writer, theme settings.Theme) error {
	data, err := fp.AvailableCourses(ctx, theme)
	if err != nil {
		return err
	}
	return fp.renderer.Execute(w, FrontpageCoursesTemplate, data)
}

// PromotedCourseIDs parses the comma separated ids of the promoted courses setting.
func PromotedCourseIDs(value string) []int {
	var ids []int
	for _, s := range strings.Split(value, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(s))
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// PromotedCourses returns the data of the promoted courses block, false when the block is
// disabled or none of the promoted courses can be shown.
func (fp *FrontPage) PromotedCourses(ctx context.Context, theme settings.Theme) (map[string]interface{}, bool, error) {
	if enabled, _ := strconv.ParseBool(theme.Get("pcourseenable")); !enabled {
		return nil, false, nil
	}
	ids := PromotedCourseIDs(theme.Get("promotedcourses"))
	if len(ids) == 0 {
		return nil, false, nil
	}

	courses, err := fp.courses.Repository().QueryCoursesByID(ctx, ids...)
	if err != nil {
		return nil, false, errors.Wrap(err, "querying promoted courses")
	}

	noImage := fp.noImageURL(theme)
	boxes := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		if !c.Visible {
			continue
		}
		box, err := fp.courseBox(ctx, c, noImage)
		if err != nil {
			return nil, false, err
		}
		boxes = append(boxes, box)
	}
	if len(boxes) == 0 {
		return nil, false, nil
	}

	title := fp.courses.Formatter().FormatString(fp.lang.Resolve(theme.Get("promotedtitle")))
	return map[string]interface{}{"title": title, "courses": boxes}, true, nil
}

// RenderPromotedCourses renders the promoted courses block to w; nothing is written when the
// block is not shown.
func (fp *FrontPage) RenderPromotedCourses(ctx context.Context, w io.Writer, theme settings.Theme) error {
	data, ok, err := fp.PromotedCourses(ctx, theme)
	if err != nil || !ok {
		return err
	}
	return fp.renderer.Execute(w, PromotedCoursesTemplate, data)
}

// RenderCompletionBar renders the activity completion of userID in courseID; nothing is
// written when the course does not track the completion of the user.
func (fp *FrontPage) RenderCompletionBar(ctx context.Context, w io.Writer, courseID, userID int) error {
	progress, err := fp.courses.CompletionBar(ctx, courseID, userID)
	if err != nil || !progress.HasCompletion {
		return err
	}
	data := progress.Export()
	data["activityinfo"] = fp.lang.Get("activityoutof", progress.Complete, progress.Total)
	return fp.renderer.Execute(w, CompletionBarTemplate, data)
}
