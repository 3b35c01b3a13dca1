package course

import (
	"html/template"
	"time"
)

type (
	Teacher struct {
		Src  string `json:"src"`
		Name string `json:"name"`
	}

	Teachers struct {
		List  []Teacher
		Extra template.HTML
	}

	// UserInfo is the enrolment and completion state of a user in a course.
	UserInfo struct {
		TotalActivities          int
		CompleteActivities       int
		CompleteActivitiesPerc   int
		IncompleteActivities     int
		IncompleteActivitiesPerc int
		InFuture                 bool
		IsCourseComplete         bool
		EnrolmentDate            time.Time
		EnrolmentStarted         bool
		EnrolmentEnded           bool
		HasCompletion            bool
	}

	// ActivityProgress aggregates the activity completion of a user in a course.
	ActivityProgress struct {
		HasCompletion bool
		Total         int
		Complete      int
		Percentage    int
		ProgressBar   template.HTML
	}

	// Data is the template data of a course.
	Data struct {
		Course
		Category  string
		Summary   template.HTML
		ImageURL  string
		Teachers  Teachers
		CourseURL string
		// UserInfo is set once the user info section is populated.
		UserInfo *UserInfo
	}

	// Details is the summary card of a course.
	Details struct {
		ID           int
		Name         string
		Category     string
		URL          string
		Summary      template.HTML
		Progress     ActivityProgress
		Image        string
		LastAccess   string
		LastAccessed string
		Teachers     Teachers
	}
)

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func (t Teachers) Export() []map[string]interface{} {
	list := make([]map[string]interface{}, 0, len(t.List))
	for _, teacher := range t.List {
		list = append(list, map[string]interface{}{"src": teacher.Src, "name": teacher.Name})
	}
	return list
}

func (ui UserInfo) Export() map[string]interface{} {
	return map[string]interface{}{
		"totalactivities":          ui.TotalActivities,
		"completeactivities":       ui.CompleteActivities,
		"completeactivitiesperc":   ui.CompleteActivitiesPerc,
		"incompleteactivities":     ui.IncompleteActivities,
		"incompleteactivitiesperc": ui.IncompleteActivitiesPerc,
		"infuture":                 ui.InFuture,
		"iscoursecomplete":         ui.IsCourseComplete,
		"enrolmentdate":            unix(ui.EnrolmentDate),
		"enrolmentstarted":         ui.EnrolmentStarted,
		"enrolmentended":           ui.EnrolmentEnded,
		"hascompletion":            ui.HasCompletion,
	}
}

func (ap ActivityProgress) Export() map[string]interface{} {
	return map[string]interface{}{
		"hascompletion": ap.HasCompletion,
		"total":         ap.Total,
		"complete":      ap.Complete,
		"percentage":    ap.Percentage,
		"progressbar":   ap.ProgressBar,
	}
}

func (d Data) Export() map[string]interface{} {
	out := map[string]interface{}{
		"id":          d.ID,
		"shortname":   d.ShortName,
		"fullname":    d.FullName,
		"category":    d.Category,
		"summary":     d.Summary,
		"imageurl":    d.ImageURL,
		"teachers":    d.Teachers.Export(),
		"hasteachers": len(d.Teachers.List) > 0,
		"courseurl":   d.CourseURL,
		"startdate":   unix(d.StartDate),
		"visible":     d.Visible,
	}
	if d.Teachers.Extra != "" {
		out["teachersextra"] = d.Teachers.Extra
	}
	if d.UserInfo != nil {
		out["courseuserinfo"] = d.UserInfo.Export()
	}
	return out
}

func (d Details) Export() map[string]interface{} {
	out := map[string]interface{}{
		"id":                 d.ID,
		"name":               d.Name,
		"category":           d.Category,
		"url":                d.URL,
		"summary":            d.Summary,
		"image":              d.Image,
		"teachers":           d.Teachers.Export(),
		"hasteachers":        len(d.Teachers.List) > 0,
		"hascompletion":      d.Progress.HasCompletion,
		"progressbar":        d.Progress.ProgressBar,
		"activitytotal":      d.Progress.Total,
		"activitycomplete":   d.Progress.Complete,
		"activitypercentage": d.Progress.Percentage,
	}
	if d.LastAccess != "" {
		out["lastaccess"] = d.LastAccess
		out["lastaccessed"] = d.LastAccessed
	}
	if d.Teachers.Extra != "" {
		out["teachersextra"] = d.Teachers.Extra
	}
	return out
}

// ProgressBar is the data of the progress bar template.
type ProgressBar struct {
	Percentage int
}

// NewProgressBar returns the progress of value out of total. A non nil percentage is used as is.
func NewProgressBar(total, value int, percentage *int) ProgressBar {
	if percentage != nil {
		return ProgressBar{Percentage: *percentage}
	}
	return ProgressBar{Percentage: Percentage(total, value)}
}

func (pb ProgressBar) Export() map[string]interface{} {
	return map[string]interface{}{"percentage": pb.Percentage}
}
