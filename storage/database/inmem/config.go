package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core/settings"
)

type configStore struct {
	db  *DB
	tbl *configTable
}

var _ settings.Store = (*configStore)(nil)

func NewConfigStore(db *DB) *configStore {
	return &configStore{db: db, tbl: db.config}
}

func (s *configStore) GetConfig(_ context.Context, plugin, name string) (null.String, error) {
	s.tbl.RLock()
	defer s.tbl.RUnlock()

	v, ok := s.tbl.table[plugin][name]
	return null.NewString(v, ok), nil
}

// SetConfig stores value; a null value removes the setting.
func (s *configStore) SetConfig(_ context.Context, plugin, name string, value null.String) error {
	s.tbl.Lock()
	defer s.tbl.Unlock()

	if !value.Valid {
		delete(s.tbl.table[plugin], name)
		return nil
	}
	if s.tbl.table[plugin] == nil {
		s.tbl.table[plugin] = make(map[string]string)
	}
	s.tbl.table[plugin][name] = value.String
	return nil
}

func (s *configStore) AllConfig(_ context.Context, plugin string) (map[string]string, error) {
	s.tbl.RLock()
	defer s.tbl.RUnlock()

	values := make(map[string]string, len(s.tbl.table[plugin]))
	for name, v := range s.tbl.table[plugin] {
		values[name] = v
	}
	return values, nil
}

func (s *configStore) DeleteConfig(ctx context.Context, plugin, name string) error {
	return s.SetConfig(ctx, plugin, name, null.String{})
}

func (s *configStore) AddConfigLog(_ context.Context, entry settings.ConfigLog) error {
	entry.ID = s.db.nextPK("config_log")

	s.tbl.Lock()
	defer s.tbl.Unlock()
	s.tbl.log = append(s.tbl.log, entry)
	return nil
}

// QueryConfigLog returns the changes of plugin, latest first.
func (s *configStore) QueryConfigLog(_ context.Context, plugin string) ([]settings.ConfigLog, error) {
	s.tbl.RLock()
	defer s.tbl.RUnlock()

	var entries []settings.ConfigLog
	for _, e := range s.tbl.log {
		if e.Plugin == plugin {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}
