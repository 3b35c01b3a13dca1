// Package themeport exports the settings of the theme to a .tar.gz archive and imports them
// back. The archive holds a "<theme>_settings.xml" file listing the settings and one entry per
// stored file, named by the hash of its content.
package themeport

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/adminsettings"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

const (
	versionSetting = "version"
	// MaxArchiveSize bounds the uncompressed size of an imported archive.
	MaxArchiveSize = 64 << 20
)

var NowFunc = time.Now // mockable

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type (
	Notice struct {
		Level   Level  `json:"level"`
		Message string `json:"message"`
	}

	// Result reports an import.
	Result struct {
		SettingCount int      `json:"settingcount"`
		FileCount    int      `json:"filecount"`
		Notices      []Notice `json:"notices"`
	}

	// Archive describes an exported archive.
	Archive struct {
		Name         string
		SettingCount int
		FileCount    int
	}

	xmlTheme struct {
		XMLName   xml.Name     `xml:"theme"`
		Name      string       `xml:"name,attr"`
		Component string       `xml:"component,attr"`
		Version   string       `xml:"version,attr,omitempty"`
		Settings  []xmlSetting `xml:"setting"`
	}

	xmlSetting struct {
		Name  string `xml:"name,attr"`
		File  string `xml:"file,attr,omitempty"`
		Value string `xml:",chardata"`
	}

	Porter struct {
		settings  *adminsettings.Manager
		lang      *core.Lang
		themeName string
		component string
	}
)

func (r *Result) notify(level Level, msg string) {
	r.Notices = append(r.Notices, Notice{Level: level, Message: msg})
}

// Failed reports whether the import stopped on an error.
func (r Result) Failed() bool {
	for _, n := range r.Notices {
		if n.Level == LevelError {
			return true
		}
	}
	return false
}

func NewPorter(conf *core.Config, manager *adminsettings.Manager, lang *core.Lang) (*Porter, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(manager, "manager"),
		vala.IsNotNil(lang, "lang"),
	).Check(); err != nil {
		return nil, err
	}
	return &Porter{settings: manager, lang: lang, themeName: conf.ThemeName, component: conf.Component()}, nil
}

// ArchiveName returns the name of an archive exported at t.
func (p *Porter) ArchiveName(t time.Time) string {
	return fmt.Sprintf("%s_settings_%d.tar.gz", p.themeName, t.Unix())
}

func (p *Porter) xmlName() string {
	return p.themeName + "_settings.xml"
}

// isFileValue reports whether value looks like the path of a stored file.
func isFileValue(value string) bool {
	return strings.HasPrefix(value, "/") && strings.Contains(value, ".")
}

// Export writes the archive of the current settings to w. Settings pointing at a file that is
// no longer stored are left out.
func (p *Porter) Export(ctx context.Context, w io.Writer) (Archive, error) {
	store, files := p.settings.Store(), p.settings.Files()

	values, err := store.AllConfig(ctx, p.component)
	if err != nil {
		return Archive{}, errors.Wrap(err, "loading settings")
	}
	names := make([]string, 0, len(values))
	for name := range values {
		if name != versionSetting {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	doc := xmlTheme{Name: p.themeName, Component: p.component, Version: values[versionSetting]}
	stored := make(map[string][]byte)
	for _, name := range names {
		value := values[name]
		if !isFileValue(value) {
			doc.Settings = append(doc.Settings, xmlSetting{Name: name, Value: value})
			continue
		}

		area, err := files.GetAreaFiles(ctx, p.component, name)
		if err != nil {
			return Archive{}, errors.Wrapf(err, "getting files of %s", name)
		}
		for _, f := range area {
			if f.Path() != value {
				continue
			}
			stored[f.ContentHash] = f.Content
			doc.Settings = append(doc.Settings, xmlSetting{Name: name, File: f.ContentHash, Value: value})
			break
		}
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Archive{}, errors.Wrap(err, "encoding settings")
	}
	data = append([]byte(xml.Header), data...)

	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)
	now := NowFunc()
	if err = addFile(tw, p.xmlName(), data, now); err != nil {
		return Archive{}, err
	}
	hashes := make([]string, 0, len(stored))
	for hash := range stored {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	for _, hash := range hashes {
		if err = addFile(tw, hash, stored[hash], now); err != nil {
			return Archive{}, err
		}
	}
	if err = tw.Close(); err != nil {
		return Archive{}, errors.Wrap(err, "closing tar")
	}
	if err = gzw.Close(); err != nil {
		return Archive{}, errors.Wrap(err, "closing gzip")
	}

	return Archive{Name: p.ArchiveName(now), SettingCount: len(doc.Settings), FileCount: len(hashes)}, nil
}

func addFile(tw *tar.Writer, name string, content []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(content)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing header of %s", name)
	}
	if _, err := tw.Write(content); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}

// readArchive returns the regular files at the root of a .tar.gz archive.
func readArchive(r io.Reader) (map[string][]byte, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	entries := make(map[string][]byte)
	var total int64
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		total += hdr.Size
		if total > MaxArchiveSize {
			return nil, errors.New("archive too large")
		}
		content, err := io.ReadAll(io.LimitReader(tr, hdr.Size))
		if err != nil {
			return nil, err
		}
		entries[path.Clean(strings.TrimPrefix(hdr.Name, "./"))] = content
	}
	return entries, nil
}

// Import applies the settings of the archive read from r. Problems with the archive are
// reported as notices; the returned error is reserved to storage failures.
func (p *Porter) Import(ctx context.Context, userID int, r io.Reader) (Result, error) {
	var res Result

	entries, err := readArchive(r)
	if err != nil {
		res.notify(LevelError, p.lang.Get("importsettingsinvalidfile"))
		return res, nil
	}

	var xmlFiles []string
	for name := range entries {
		if ok, _ := path.Match("*_settings.xml", name); ok {
			xmlFiles = append(xmlFiles, name)
		}
	}
	if len(xmlFiles) != 1 {
		res.notify(LevelError, p.lang.Get("importsettingsinvalidfile"))
		return res, nil
	}

	var doc xmlTheme
	if err = xml.Unmarshal(entries[xmlFiles[0]], &doc); err != nil {
		res.notify(LevelError, p.lang.Get("importsettingsinvalidfile"))
		return res, nil
	}
	if doc.Name != p.themeName || doc.Component != p.component {
		res.notify(LevelWarning, p.lang.Get("importsettingsmismatch", doc.Name))
	}
	if len(doc.Settings) == 0 {
		res.notify(LevelWarning, p.lang.Get("nosettingstoimport"))
	}

	for _, s := range doc.Settings {
		if s.Name == versionSetting || s.Name == "" {
			continue
		}

		if err = p.settings.Check(ctx, s.Name, s.Value); err != nil {
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				return res, err
			}
			res.notify(LevelWarning, p.lang.Get("importsettingsinvalidvalue", s.Name))
			continue
		}

		if s.File != "" {
			content, ok := entries[path.Clean(s.File)]
			if !ok {
				res.notify(LevelWarning, p.lang.Get("importsettingsmissingfile", s.File, s.Name))
				continue
			}
			_, err = p.settings.Files().PutFile(ctx, settings.File{
				Component:    p.component,
				FileArea:     s.Name,
				FilePath:     "/",
				FileName:     strings.TrimLeft(s.Value, "/"),
				Content:      content,
				TimeModified: NowFunc(),
			})
			if err != nil {
				return res, errors.Wrapf(err, "storing file of %s", s.Name)
			}
			res.FileCount++
		}

		changed, err := p.settings.Write(ctx, userID, s.Name, null.StringFrom(s.Value))
		if err != nil {
			return res, err
		}
		if changed {
			res.SettingCount++
		}
	}

	res.notify(LevelSuccess, p.lang.Get("settingsinfo", res.SettingCount, res.FileCount))
	return res, nil
}

// EmailExport exports the settings and mails the archive to the given recipients.
func (p *Porter) EmailExport(ctx context.Context, svc core.EmailService, to ...string) (Archive, error) {
	var buf bytes.Buffer
	archive, err := p.Export(ctx, &buf)
	if err != nil {
		return Archive{}, err
	}

	msg := &core.EmailMessage{
		Subject:      p.lang.Get("settingsexportsubject", p.themeName),
		TemplateName: "settings_export",
		TemplateData: map[string]interface{}{
			"Theme":        p.themeName,
			"Date":         NowFunc().Format("02 January 2006 15:04"),
			"Filename":     archive.Name,
			"SettingCount": archive.SettingCount,
			"FileCount":    archive.FileCount,
		},
	}
	for _, addr := range to {
		a, err := parseAddress(addr)
		if err != nil {
			return Archive{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		msg.To = append(msg.To, a)
	}
	if err = msg.Attach(&buf, archive.Name, "application/gzip"); err != nil {
		return Archive{}, err
	}
	svc.SendMessages(msg)
	return archive, nil
}
