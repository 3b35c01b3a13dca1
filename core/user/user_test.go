package user

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoryekhator/debonairkent/core"
)

type repoMock struct {
	users []User
}

func (r *repoMock) GetUserByID(_ context.Context, id int) (User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, core.ErrNotFound
}

func (r *repoMock) GetUserByUsername(_ context.Context, username string) (User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, core.ErrNotFound
}

func (r *repoMock) QueryUsersByID(ctx context.Context, ids ...int) ([]User, error) {
	var users []User
	for _, id := range ids {
		if u, err := r.GetUserByID(ctx, id); err == nil {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *repoMock) CreateUser(_ context.Context, usr User) (User, error) {
	usr.ID = len(r.users) + 1
	r.users = append(r.users, usr)
	return usr, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestUserIsValid(t *testing.T) {
	var nilUser *User
	tests := []struct {
		name string
		usr  *User
		want bool
	}{
		{"nil", nilUser, false},
		{"zero id", &User{}, false},
		{"guest", &User{ID: 2, IsGuest: true}, false},
		{"valid", &User{ID: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usr.IsValid())
		})
	}
}

func TestLastCourseAccessed(t *testing.T) {
	t0 := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

	usr := User{LastCourseAccess: map[int]time.Time{4: t0, 5: t0.Add(time.Hour)}}
	id, at, ok := usr.LastCourseAccessed()
	assert.True(t, ok)
	assert.Equal(t, 5, id)
	assert.Equal(t, t0.Add(time.Hour), at)

	usr.CurrentCourseAccess = map[int]time.Time{9: t0}
	id, _, ok = usr.LastCourseAccessed()
	assert.True(t, ok)
	assert.Equal(t, 9, id)

	_, _, ok = (&User{}).LastCourseAccessed()
	assert.False(t, ok)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
}

func TestServiceCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&repoMock{}, nil)
	validate := newValidator()

	nu := NewUser{
		Username:        " Ada ",
		FirstName:       "Ada",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
		Roles:           []string{RoleStudent},
	}
	usr, err := svc.Create(ctx, validate, nu)
	require.NoError(t, err)
	assert.Equal(t, "ada", usr.Username)
	assert.NotEqual(t, 0, usr.ID)

	_, err = svc.Create(ctx, validate, nu)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Fields[0].Field)

	got, err := svc.Authenticate(ctx, Credentials{Username: "ADA", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.Authenticate(ctx, Credentials{Username: "ada", Password: "wrong"})
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "x"})
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestNewUserValidation(t *testing.T) {
	validate := newValidator()
	nu := NewUser{
		Username:        "ada lovelace",
		FirstName:       "Ada",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
		Roles:           []string{"wizard"},
	}
	err := validate.Struct(nu)
	require.Error(t, err)

	var fields []string
	for _, fe := range err.(validator.ValidationErrors) {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"username", "roles"}, fields)
}

func TestManagerWithoutJobs(t *testing.T) {
	svc := NewService(&repoMock{}, nil)
	assert.False(t, svc.HasJobAssignments())
	_, ok, err := svc.Manager(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}
