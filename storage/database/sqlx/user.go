package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/user"
)

const userColumns = "u.id, u.username, u.password, u.firstname, u.lastname, u.email, u.picture, u.guest"

type (
	userRow struct {
		ID        int    `db:"id"`
		Username  string `db:"username"`
		Password  string `db:"password"`
		FirstName string `db:"firstname"`
		LastName  string `db:"lastname"`
		Email     string `db:"email"`
		Picture   string `db:"picture"`
		Guest     bool   `db:"guest"`
	}

	userRepository struct {
		db *DB
	}
)

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:         r.ID,
		Username:   r.Username,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		IsGuest:    r.Guest,
		PictureURL: r.Picture,
	}
	if r.Password != "" {
		usr.PasswordHash = []byte(r.Password)
	}
	return usr
}

// load completes users with their system roles and course accesses.
func (repo *userRepository) load(ctx context.Context, rows []userRow) ([]user.User, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	users := make([]user.User, len(rows))
	ids := make([]int, len(rows))
	index := make(map[int]int, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
		ids[i] = r.ID
		index[r.ID] = i
	}

	query, args, err := repo.db.in(`
		SELECT ra.userid, r.shortname
		FROM {role_assignments} ra
		JOIN {role} r ON r.id = ra.roleid
		JOIN {context} ctx ON ctx.id = ra.contextid AND ctx.contextlevel = ?
		WHERE ra.userid IN (?)
		ORDER BY r.sortorder`, contextSystem, ids)
	if err != nil {
		return nil, err
	}
	var roles []struct {
		UserID    int    `db:"userid"`
		ShortName string `db:"shortname"`
	}
	if err = repo.db.SelectContext(ctx, &roles, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	for _, r := range roles {
		usr := &users[index[r.UserID]]
		usr.Roles = append(usr.Roles, r.ShortName)
	}

	query, args, err = repo.db.in(`
		SELECT userid, courseid, timeaccess FROM {user_lastaccess} WHERE userid IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var accesses []struct {
		UserID     int   `db:"userid"`
		CourseID   int   `db:"courseid"`
		TimeAccess int64 `db:"timeaccess"`
	}
	if err = repo.db.SelectContext(ctx, &accesses, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying course accesses")
	}
	for _, a := range accesses {
		usr := &users[index[a.UserID]]
		if usr.LastCourseAccess == nil {
			usr.LastCourseAccess = make(map[int]time.Time)
		}
		usr.LastCourseAccess[a.CourseID] = fromUnix(a.TimeAccess)
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.get(ctx, &row, "SELECT "+userColumns+" FROM {user} u WHERE u.deleted = 0 AND "+where, arg); err != nil {
		return user.User{}, err
	}
	users, err := repo.load(ctx, []userRow{row})
	if err != nil {
		return user.User{}, err
	}
	return users[0], nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "u.id = ?", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "u.username = ?", username)
}

// QueryUsersByID returns the users in the order of ids, skipping missing ones.
func (repo *userRepository) QueryUsersByID(ctx context.Context, ids ...int) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := repo.db.in("SELECT "+userColumns+" FROM {user} u WHERE u.deleted = 0 AND u.id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users, err := repo.load(ctx, rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]user.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}
	out := make([]user.User, 0, len(users))
	for _, id := range ids {
		if usr, ok := byID[id]; ok {
			out = append(out, usr)
		}
	}
	return out, nil
}

// CreateUser inserts usr and assigns its roles in the system context.
func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.db.withTx(ctx, func(tx core.DBExecutor) error {
		id, err := insert(ctx, tx, repo.db.q(`
			INSERT INTO {user} (username, password, firstname, lastname, email, picture, guest)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			usr.Username, string(usr.PasswordHash), usr.FirstName, usr.LastName, usr.Email, usr.PictureURL, boolInt(usr.IsGuest),
		)
		if err != nil {
			return errors.Wrap(err, "inserting user")
		}
		usr.ID = id

		for _, role := range usr.Roles {
			var roleID int
			err = tx.GetContext(ctx, &roleID, repo.db.q("SELECT id FROM {role} WHERE shortname = ?"), role)
			if err != nil {
				return errors.Wrapf(err, "getting role %s", role)
			}
			_, err = tx.ExecContext(ctx, repo.db.q(`
				INSERT INTO {role_assignments} (roleid, contextid, userid)
				SELECT ?, id, ? FROM {context} WHERE contextlevel = ?`), roleID, usr.ID, contextSystem)
			if err != nil {
				return errors.Wrapf(err, "assigning role %s", role)
			}
		}
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// SetLastCourseAccess records the access of userID to courseID.
func (repo *userRepository) SetLastCourseAccess(ctx context.Context, userID, courseID int, at time.Time) error {
	_, err := repo.db.ExecContext(ctx, repo.db.q(`
		INSERT INTO {user_lastaccess} (userid, courseid, timeaccess) VALUES (?, ?, ?)
		ON CONFLICT (userid, courseid) DO UPDATE SET timeaccess = excluded.timeaccess`),
		userID, courseID, toUnix(at),
	)
	if err != nil {
		return errors.Wrap(err, "setting last course access")
	}
	return nil
}
