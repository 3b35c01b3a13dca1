package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core/badge"
)

type badgeRepository struct {
	db *DB
}

var _ badge.Repository = (*badgeRepository)(nil)

func NewBadgeRepository(db *DB) *badgeRepository {
	return &badgeRepository{db: db}
}

func (repo *badgeRepository) QueryUserBadges(ctx context.Context, userID, courseID, limit int) ([]badge.Badge, error) {
	query := `
		SELECT b.id, b.name, b.description, b.type, b.courseid,
			COALESCE(ctx.id, 1) AS contextid,
			bi.id AS issuedid, bi.uniquehash, bi.dateissued, bi.dateexpire, bi.visible
		FROM {badge_issued} bi
		JOIN {badge} b ON b.id = bi.badgeid
		LEFT JOIN {context} ctx ON ctx.contextlevel = ? AND ctx.instanceid = b.courseid AND b.type = ?
		WHERE bi.userid = ?`
	args := []interface{}{contextCourse, badge.TypeCourse, userID}
	if courseID != 0 {
		query += " AND b.courseid = ?"
		args = append(args, courseID)
	}
	query += " ORDER BY bi.dateissued DESC, bi.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []struct {
		ID          int    `db:"id"`
		Name        string `db:"name"`
		Description string `db:"description"`
		Type        int    `db:"type"`
		CourseID    int    `db:"courseid"`
		ContextID   int    `db:"contextid"`
		IssuedID    int    `db:"issuedid"`
		UniqueHash  string `db:"uniquehash"`
		DateIssued  int64  `db:"dateissued"`
		DateExpire  int64  `db:"dateexpire"`
		Visible     bool   `db:"visible"`
	}
	if err := repo.db.SelectContext(ctx, &rows, repo.db.q(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying badges")
	}

	badges := make([]badge.Badge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, badge.Badge{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Type:        r.Type,
			CourseID:    r.CourseID,
			ContextID:   r.ContextID,
			UniqueHash:  r.UniqueHash,
			DateIssued:  fromUnix(r.DateIssued),
			DateExpire:  fromUnix(r.DateExpire),
			Visible:     r.Visible,
			IssuedID:    r.IssuedID,
		})
	}
	return badges, nil
}
