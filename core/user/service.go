package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameExists     = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		QueryUsersByID(ctx context.Context, ids ...int) ([]User, error)
		CreateUser(ctx context.Context, usr User) (User, error)
	}

	// JobRepository exposes job assignments on hosts supporting them.
	JobRepository interface {
		// GetManagers returns the managers of userID, primary assignment first.
		GetManagers(ctx context.Context, userID int) ([]User, error)
		// GetStaff returns the users managed by managerID.
		GetStaff(ctx context.Context, managerID int) ([]User, error)
	}

	Service struct {
		repo Repository
		jobs JobRepository
	}
)

// NewService returns a user service; jobs may be nil when the host has no job assignments.
func NewService(repo Repository, jobs JobRepository) *Service {
	return &Service{repo: repo, jobs: jobs}
}

// Create validates nu and stores the new user.
func (svc *Service) Create(ctx context.Context, validate *validator.Validate, nu NewUser) (User, error) {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return User{}, err
	}
	if _, err := svc.GetByUsername(ctx, nu.Username); err == nil {
		return User{}, core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	} else if !core.IsNotFound(err) {
		return User{}, err
	}

	usr := User{
		Username:  nu.Username,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Roles:     nu.Roles,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) QueryByID(ctx context.Context, ids ...int) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return svc.repo.QueryUsersByID(ctx, ids...)
}

// Authenticate checks the credentials and returns the matching user.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.GetByUsername(ctx, creds.Username)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.IsValid() {
		return User{}, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// HasJobAssignments reports whether managers and staff can be looked up.
func (svc *Service) HasJobAssignments() bool {
	return svc.jobs != nil
}

// Manager returns the first manager of userID.
func (svc *Service) Manager(ctx context.Context, userID int) (User, bool, error) {
	if svc.jobs == nil {
		return User{}, false, nil
	}
	managers, err := svc.jobs.GetManagers(ctx, userID)
	if err != nil {
		return User{}, false, errors.Wrap(err, "getting managers")
	}
	if len(managers) == 0 {
		return User{}, false, nil
	}
	return managers[0], true, nil
}

// Staff returns the users managed by managerID.
func (svc *Service) Staff(ctx context.Context, managerID int) ([]User, error) {
	if svc.jobs == nil {
		return nil, nil
	}
	staff, err := svc.jobs.GetStaff(ctx, managerID)
	return staff, errors.Wrap(err, "getting staff")
}
