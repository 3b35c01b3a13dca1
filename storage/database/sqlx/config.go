package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core/settings"
)

type configStore struct {
	db *DB
}

var _ settings.Store = (*configStore)(nil)

func NewConfigStore(db *DB) *configStore {
	return &configStore{db: db}
}

func (s *configStore) GetConfig(ctx context.Context, plugin, name string) (null.String, error) {
	var value null.String
	err := s.db.GetContext(ctx, &value, s.db.q("SELECT value FROM {config_plugins} WHERE plugin = ? AND name = ?"), plugin, name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return null.String{}, errors.Wrapf(err, "getting %s/%s", plugin, name)
	}
	return value, nil
}

// SetConfig stores value; a null value removes the setting.
func (s *configStore) SetConfig(ctx context.Context, plugin, name string, value null.String) error {
	if !value.Valid {
		return s.DeleteConfig(ctx, plugin, name)
	}
	_, err := s.db.ExecContext(ctx, s.db.q(`
		INSERT INTO {config_plugins} (plugin, name, value) VALUES (?, ?, ?)
		ON CONFLICT (plugin, name) DO UPDATE SET value = excluded.value`),
		plugin, name, value.String,
	)
	return errors.Wrapf(err, "setting %s/%s", plugin, name)
}

func (s *configStore) AllConfig(ctx context.Context, plugin string) (map[string]string, error) {
	var rows []struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.q("SELECT name, value FROM {config_plugins} WHERE plugin = ?"), plugin); err != nil {
		return nil, errors.Wrapf(err, "querying %s config", plugin)
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Name] = r.Value
	}
	return values, nil
}

func (s *configStore) DeleteConfig(ctx context.Context, plugin, name string) error {
	_, err := s.db.ExecContext(ctx, s.db.q("DELETE FROM {config_plugins} WHERE plugin = ? AND name = ?"), plugin, name)
	return errors.Wrapf(err, "deleting %s/%s", plugin, name)
}

func (s *configStore) AddConfigLog(ctx context.Context, entry settings.ConfigLog) error {
	_, err := s.db.ExecContext(ctx, s.db.q(`
		INSERT INTO {config_log} (userid, timemodified, plugin, name, value, oldvalue, diff)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		entry.UserID, toUnix(entry.TimeModified), entry.Plugin, entry.Name, entry.Value, entry.OldValue, entry.Diff,
	)
	return errors.Wrap(err, "adding config log")
}

// QueryConfigLog returns the changes of plugin, latest first.
func (s *configStore) QueryConfigLog(ctx context.Context, plugin string) ([]settings.ConfigLog, error) {
	var rows []struct {
		ID           int         `db:"id"`
		UserID       int         `db:"userid"`
		TimeModified int64       `db:"timemodified"`
		Plugin       string      `db:"plugin"`
		Name         string      `db:"name"`
		OldValue     null.String `db:"oldvalue"`
		Value        null.String `db:"value"`
		Diff         string      `db:"diff"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.q(`
		SELECT id, userid, timemodified, plugin, name, oldvalue, value, diff
		FROM {config_log} WHERE plugin = ? ORDER BY id DESC`), plugin)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s config log", plugin)
	}

	entries := make([]settings.ConfigLog, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, settings.ConfigLog{
			ID:           r.ID,
			UserID:       r.UserID,
			TimeModified: fromUnix(r.TimeModified),
			Plugin:       r.Plugin,
			Name:         r.Name,
			OldValue:     r.OldValue,
			Value:        r.Value,
			Diff:         r.Diff,
		})
	}
	return entries, nil
}
