package sqlxrepos

import (
	"context"
	"mime"
	"net/http"
	"path"

	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

type fileStore struct {
	db *DB
}

var _ settings.FileStore = (*fileStore)(nil)

func NewFileStore(db *DB) *fileStore {
	return &fileStore{db: db}
}

func mimeType(f settings.File) string {
	if f.MimeType != "" {
		return f.MimeType
	}
	if t := mime.TypeByExtension(path.Ext(f.FileName)); t != "" {
		return t
	}
	return http.DetectContentType(f.Content)
}

// PutFile replaces the files of the area of f.
func (s *fileStore) PutFile(ctx context.Context, f settings.File) (settings.File, error) {
	if f.FilePath == "" {
		f.FilePath = "/"
	}
	f.ContentHash = settings.ContentHash(f.Content)
	f.MimeType = mimeType(f)
	if f.TimeModified.IsZero() {
		f.TimeModified = NowFunc()
	}

	err := s.db.withTx(ctx, func(tx core.DBExecutor) error {
		if err := s.deleteArea(ctx, tx, f.Component, f.FileArea); err != nil {
			return err
		}
		id, err := insert(ctx, tx, s.db.q(`
			INSERT INTO {files} (contenthash, contextid, component, filearea, filepath, filename, mimetype, filesize, content, timemodified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			f.ContentHash, settings.SystemContextID, f.Component, f.FileArea, f.FilePath, f.FileName,
			f.MimeType, len(f.Content), f.Content, toUnix(f.TimeModified),
		)
		if err != nil {
			return errors.Wrap(err, "inserting file")
		}
		f.ID = id
		return nil
	})
	if err != nil {
		return settings.File{}, err
	}
	return f, nil
}

func (s *fileStore) GetAreaFiles(ctx context.Context, component, filearea string) ([]settings.File, error) {
	var rows []struct {
		ID           int    `db:"id"`
		ContentHash  string `db:"contenthash"`
		Component    string `db:"component"`
		FileArea     string `db:"filearea"`
		FilePath     string `db:"filepath"`
		FileName     string `db:"filename"`
		MimeType     string `db:"mimetype"`
		Content      []byte `db:"content"`
		TimeModified int64  `db:"timemodified"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.q(`
		SELECT id, contenthash, component, filearea, filepath, filename, mimetype, content, timemodified
		FROM {files}
		WHERE contextid = ? AND component = ? AND filearea = ? AND filename <> '.'
		ORDER BY filepath, filename`), settings.SystemContextID, component, filearea)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s/%s files", component, filearea)
	}

	files := make([]settings.File, 0, len(rows))
	for _, r := range rows {
		files = append(files, settings.File{
			ID:           r.ID,
			ContentHash:  r.ContentHash,
			Component:    r.Component,
			FileArea:     r.FileArea,
			FilePath:     r.FilePath,
			FileName:     r.FileName,
			MimeType:     r.MimeType,
			Content:      r.Content,
			TimeModified: fromUnix(r.TimeModified),
		})
	}
	return files, nil
}

func (s *fileStore) DeleteAreaFiles(ctx context.Context, component, filearea string) error {
	return s.deleteArea(ctx, s.db.DB, component, filearea)
}

func (s *fileStore) deleteArea(ctx context.Context, exec core.DBExecutor, component, filearea string) error {
	_, err := exec.ExecContext(ctx, s.db.q("DELETE FROM {files} WHERE contextid = ? AND component = ? AND filearea = ?"),
		settings.SystemContextID, component, filearea)
	return errors.Wrapf(err, "deleting %s/%s files", component, filearea)
}
