package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gregoryekhator/debonairkent/core"
)

// Roles
const (
	RoleAdmin          = "admin"
	RoleManager        = "manager"
	RoleEditingTeacher = "editingteacher"
	RoleTeacher        = "teacher"
	RoleStudent        = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleManager, RoleEditingTeacher, RoleTeacher, RoleStudent}

	// ContactRoles are listed as course contacts, in display order.
	ContactRoles = []string{RoleEditingTeacher, RoleTeacher}
)

type User struct {
	ID           int      `json:"id"`
	Username     string   `json:"username"`
	FirstName    string   `json:"firstname"`
	LastName     string   `json:"lastname"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	PasswordHash []byte   `json:"-"`
	IsGuest      bool     `json:"-"`
	PictureURL   string   `json:"pictureurl"`

	// course id => time of access
	CurrentCourseAccess map[int]time.Time `json:"-"`
	LastCourseAccess    map[int]time.Time `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsValid reports whether u is a real, logged in user.
func (u *User) IsValid() bool {
	return u != nil && u.ID != 0 && !u.IsGuest
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// LastCourseAccessed returns the most recently accessed course. Accesses of the current session
// take precedence over the ones recorded at previous logins.
func (u *User) LastCourseAccessed() (courseID int, at time.Time, ok bool) {
	accesses := u.CurrentCourseAccess
	if len(accesses) == 0 {
		accesses = u.LastCourseAccess
	}
	for id, t := range accesses {
		if !ok || t.After(at) || (t.Equal(at) && id < courseID) {
			courseID, at, ok = id, t, true
		}
	}
	return courseID, at, ok
}

// Credentials are used to log in.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string   `json:"username" validate:"required,username"`
	FirstName       string   `json:"firstname" validate:"required"`
	LastName        string   `json:"lastname"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}
