package course

import (
	"time"

	"github.com/gregoryekhator/debonairkent/core/text"
	"github.com/gregoryekhator/debonairkent/core/user"
)

// CriteriaTypeActivity is the completion criteria type of activities.
const CriteriaTypeActivity = 4

type (
	Course struct {
		ID            int         `json:"id" db:"id"`
		CategoryID    int         `json:"category" db:"category"`
		ShortName     string      `json:"shortname" db:"shortname"`
		FullName      string      `json:"fullname" db:"fullname"`
		Summary       string      `json:"summary" db:"summary"`
		SummaryFormat text.Format `json:"summaryformat" db:"summaryformat"`
		Visible       bool        `json:"visible" db:"visible"`
		StartDate     time.Time   `json:"startdate" db:"startdate"`
		SortOrder     int         `json:"sortorder" db:"sortorder"`
	}

	Category struct {
		ID   int    `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
	}

	// Contact is a user listed on the course, teachers usually.
	Contact struct {
		User user.User
		Role string
	}

	// OverviewFile is a file of the course overview area.
	OverviewFile struct {
		ContextID int    `db:"contextid"`
		FilePath  string `db:"filepath"`
		FileName  string `db:"filename"`
		MimeType  string `db:"mimetype"`
	}

	// Completion is the state of one completion criteria for a user.
	Completion struct {
		CriteriaType   int  `db:"criteriatype"`
		ModuleInstance int  `db:"moduleinstance"`
		Complete       bool `db:"complete"`
	}

	// Enrolment is an active user enrolment in an enabled enrolment instance.
	Enrolment struct {
		EnrolID   int       `db:"enrolid"`
		TimeStart time.Time `db:"timestart"`
		TimeEnd   time.Time `db:"timeend"`
	}

	// Program is a program or certification the user is assigned to.
	Program struct {
		ID          int       `db:"id"`
		FullName    string    `db:"fullname"`
		Summary     string    `db:"summary"`
		CertifID    int       `db:"certifid"`
		Accessible  bool      `db:"accessible"`
		TimeExpires time.Time `db:"timeexpires"`
		DueDate     time.Time `db:"duedate"`
	}

	// Certification is a certification due for the user.
	Certification struct {
		ProgramID       int       `db:"programid"`
		FullName        string    `db:"fullname"`
		Summary         string    `db:"summary"`
		TimeWindowOpens time.Time `db:"timewindowopens"`
		// TimeDue is zero when not set.
		TimeDue time.Time `db:"timedue"`
	}
)

// IsImage reports whether the file can be shown as the course image.
func (f OverviewFile) IsImage() bool {
	switch f.MimeType {
	case "image/jpeg", "image/png", "image/gif", "image/svg+xml", "image/webp":
		return true
	}
	return false
}
