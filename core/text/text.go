// Package text formats and shortens the user supplied strings handed to templates.
package text

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Format is the format a stored text was written in.
type Format int

const (
	FormatMoodle   Format = 0
	FormatHTML     Format = 1
	FormatPlain    Format = 2
	FormatMarkdown Format = 4
)

// Formatter sanitises rich text and labels before they reach templates.
type Formatter struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
	md     goldmark.Markdown
}

func NewFormatter() *Formatter {
	rich := bluemonday.UGCPolicy()
	rich.AllowAttrs("class").Globally()
	rich.AllowAttrs("data-toggle", "data-placement", "data-html", "title").OnElements("div", "span", "a")

	return &Formatter{
		rich:   rich,
		strict: bluemonday.StrictPolicy(),
		md:     goldmark.New(),
	}
}

// FormatText returns sanitised HTML for s.
func (f *Formatter) FormatText(s string, format Format) string {
	switch format {
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := f.md.Convert([]byte(s), &buf); err != nil {
			return f.rich.Sanitize(html.EscapeString(s))
		}
		return f.rich.Sanitize(buf.String())
	case FormatPlain:
		return nl2br(html.EscapeString(s))
	case FormatMoodle:
		return nl2br(f.rich.Sanitize(s))
	default:
		return f.rich.Sanitize(s)
	}
}

// FormatString strips every tag from s and returns plain text. The result is not markup and
// must be escaped wherever it is printed.
func (f *Formatter) FormatString(s string) string {
	return strings.TrimSpace(html.UnescapeString(f.strict.Sanitize(s)))
}

func nl2br(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br />\n")
}

// Image is the source and alternative text of an <img> tag.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// ExtractFirstImage returns the first <img> of an HTML fragment.
func ExtractFirstImage(fragment string) (Image, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Image{}, false
	}
	img := doc.Find("img").First()
	if img.Length() == 0 {
		return Image{}, false
	}
	src, _ := img.Attr("src")
	alt, _ := img.Attr("alt")
	return Image{Src: src, Alt: alt}, true
}

// StripTags returns the text content of an HTML fragment.
func StripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

// TrimChars shortens plain text s to n characters, appending "..." when cut.
func TrimChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "..."
}

// SimplerTime drops the seconds of durations longer than a minute, rounding to the closest minute.
func SimplerTime(d time.Duration) time.Duration {
	if d > 59*time.Second {
		return d.Round(time.Minute)
	}
	return d.Truncate(time.Second)
}

// RelativeTime returns a <time> tag with a friendly phrase such as "3 minutes ago".
func RelativeTime(then, now time.Time) string {
	ago := SimplerTime(now.Sub(then))
	phrase := "now"
	if ago != 0 {
		phrase = humanize.RelTime(now.Add(-ago), now, "ago", "from now")
	}
	return fmt.Sprintf(
		`<time is="relative-time" datetime="%s">%s</time>`,
		then.Format(time.RFC3339), html.EscapeString(phrase),
	)
}
