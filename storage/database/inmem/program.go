package inmemdb

import (
	"context"
	"sort"

	"github.com/gregoryekhator/debonairkent/core/course"
)

type programRepository struct {
	tbl *programTable
}

var (
	_ course.ProgramRepository = (*programRepository)(nil)
	_ course.StatsRepository   = (*programRepository)(nil)
)

// NewProgramRepository returns the programs, certifications and team statistics of db.
func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{tbl: db.program}
}

func (repo *programRepository) QueryUserPrograms(_ context.Context, userID int) ([]course.Program, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()
	return append([]course.Program(nil), repo.tbl.programs[userID]...), nil
}

func (repo *programRepository) QueryUpcomingCertifications(_ context.Context, userID int) ([]course.Certification, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	certs := append([]course.Certification(nil), repo.tbl.certifications[userID]...)
	sort.SliceStable(certs, func(i, j int) bool { return certs[i].TimeWindowOpens.After(certs[j].TimeWindowOpens) })
	return certs, nil
}

func (repo *programRepository) CountTeamStats(_ context.Context, managerID int, _ []int) (map[string]int, error) {
	repo.tbl.RLock()
	defer repo.tbl.RUnlock()

	stats := make(map[string]int, len(repo.tbl.stats[managerID]))
	for name, count := range repo.tbl.stats[managerID] {
		stats[name] = count
	}
	return stats, nil
}
