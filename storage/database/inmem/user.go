package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/user"
)

type userRepository struct {
	db  *DB
	tbl *userTable
}

var (
	_ user.Repository    = (*userRepository)(nil)
	_ user.JobRepository = (*userRepository)(nil)
)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db, tbl: db.user}
}

// copyUser keeps the stored user from being modified through the returned one.
func copyUser(usr *user.User) user.User {
	u := *usr
	u.Roles = append([]string(nil), usr.Roles...)
	u.CurrentCourseAccess = copyAccess(usr.CurrentCourseAccess)
	u.LastCourseAccess = copyAccess(usr.LastCourseAccess)
	return u
}

func copyAccess(m map[int]time.Time) map[int]time.Time {
	if m == nil {
		return nil
	}
	out := make(map[int]time.Time, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	if usr, ok := repo.tbl.table[id]; ok {
		return copyUser(usr), nil
	}
	return user.User{}, core.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	for _, usr := range repo.tbl.table {
		if usr.Username == username {
			return copyUser(usr), nil
		}
	}
	return user.User{}, core.ErrNotFound
}

func (repo *userRepository) QueryUsersByID(_ context.Context, ids ...int) ([]user.User, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.tbl.table[id]; ok {
			users = append(users, copyUser(usr))
		}
	}
	return users, nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.tbl.Lock()
	defer repo.tbl.Unlock()

	usr.ID = repo.db.nextPK("user")
	stored := usr
	repo.tbl.table[usr.ID] = &stored
	return usr, nil
}

func (repo *userRepository) GetManagers(_ context.Context, userID int) ([]user.User, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	var managers []user.User
	for _, id := range repo.tbl.managers[userID] {
		if usr, ok := repo.tbl.table[id]; ok {
			managers = append(managers, copyUser(usr))
		}
	}
	return managers, nil
}

func (repo *userRepository) GetStaff(_ context.Context, managerID int) ([]user.User, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	var staff []user.User
	for userID, managerIDs := range repo.tbl.managers {
		for _, id := range managerIDs {
			if id == managerID {
				if usr, ok := repo.tbl.table[userID]; ok {
					staff = append(staff, copyUser(usr))
				}
				break
			}
		}
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff, nil
}

// SetCurrentCourseAccess records an access of userID to courseID in the current session.
func (repo *userRepository) SetCurrentCourseAccess(userID, courseID int, at time.Time) error {
	repo.tbl.Lock()
	defer repo.tbl.Unlock()

	usr, ok := repo.tbl.table[userID]
	if !ok {
		return core.ErrNotFound
	}
	if usr.CurrentCourseAccess == nil {
		usr.CurrentCourseAccess = make(map[int]time.Time)
	}
	usr.CurrentCourseAccess[courseID] = at
	return nil
}
