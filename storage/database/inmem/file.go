package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/gregoryekhator/debonairkent/core/settings"
)

type fileStore struct {
	db  *DB
	tbl *fileTable
}

var _ settings.FileStore = (*fileStore)(nil)

func NewFileStore(db *DB) *fileStore {
	return &fileStore{db: db, tbl: db.file}
}

func (s *fileStore) PutFile(_ context.Context, f settings.File) (settings.File, error) {
	if f.FilePath == "" {
		f.FilePath = "/"
	}
	f.ID = s.db.nextPK("files")
	f.ContentHash = settings.ContentHash(f.Content)
	f.Content = append([]byte(nil), f.Content...)
	if f.TimeModified.IsZero() {
		f.TimeModified = time.Now()
	}

	s.tbl.Lock()
	defer s.tbl.Unlock()
	s.deleteArea(f.Component, f.FileArea)
	s.tbl.table = append(s.tbl.table, f)
	return f, nil
}

func (s *fileStore) GetAreaFiles(_ context.Context, component, filearea string) ([]settings.File, error) {
	s.tbl.RLock()
	defer s.tbl.RUnlock()

	var files []settings.File
	for _, f := range s.tbl.table {
		if f.Component == component && f.FileArea == filearea {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path() < files[j].Path() })
	return files, nil
}

func (s *fileStore) DeleteAreaFiles(_ context.Context, component, filearea string) error {
	s.tbl.Lock()
	defer s.tbl.Unlock()
	s.deleteArea(component, filearea)
	return nil
}

func (s *fileStore) deleteArea(component, filearea string) {
	kept := s.tbl.table[:0]
	for _, f := range s.tbl.table {
		if f.Component != component || f.FileArea != filearea {
			kept = append(kept, f)
		}
	}
	s.tbl.table = kept
}
