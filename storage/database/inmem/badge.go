package inmemdb

import (
	"context"
	"sort"

	"github.com/gregoryekhator/debonairkent/core/badge"
)

type badgeRepository struct {
	tbl *badgeTable
}

var _ badge.Repository = (*badgeRepository)(nil)

func NewBadgeRepository(db *DB) *badgeRepository {
	return &badgeRepository{tbl: db.badge}
}

func (repo *badgeRepository) QueryUserBadges(_ context.Context, userID, courseID, limit int) ([]badge.Badge, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	var badges []badge.Badge
	for _, b := range repo.tbl.table[userID] {
		if courseID == 0 || b.CourseID == courseID {
			badges = append(badges, b)
		}
	}
	sort.SliceStable(badges, func(i, j int) bool { return badges[i].DateIssued.After(badges[j].DateIssued) })
	if limit > 0 && len(badges) > limit {
		badges = badges[:limit]
	}
	return badges, nil
}
