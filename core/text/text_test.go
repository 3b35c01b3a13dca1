package text

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateHTML(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		length       int
		exact        bool
		considerHTML bool
		want         string
	}{
		{
			name:         "short text is left untouched",
			text:         "<p>Hello <b>world</b></p>",
			length:       20,
			considerHTML: true,
			want:         "<p>Hello <b>world</b></p>",
		},
		{
			name:         "tags do not count",
			text:         "<p><strong>abcdefghij</strong></p>",
			length:       10,
			considerHTML: true,
			want:         "<p><strong>abcdefghij</strong></p>",
		},
		{
			name:         "exact cut closes open tags",
			text:         "<p>Hello <b>world</b> and more</p>",
			length:       12,
			exact:        true,
			considerHTML: true,
			want:         "<p>Hello <b>wor...</b></p>",
		},
		{
			name:         "word cut drops tags opened after the last space",
			text:         "<p>Hello <b>world</b> and more</p>",
			length:       12,
			considerHTML: true,
			want:         "<p>Hello...</p>",
		},
		{
			name:         "entities count as one character",
			text:         "<p>&amp;&amp;&amp;&amp;abcdef</p>",
			length:       8,
			exact:        true,
			considerHTML: true,
			want:         "<p>&amp;&amp;&amp;&amp;a...</p>",
		},
		{
			name:         "void elements are not closed",
			text:         "<div>one<br>two three four five</div>",
			length:       12,
			exact:        true,
			considerHTML: true,
			want:         "<div>one<br>two th...</div>",
		},
		{
			name:   "plain text cut on the last space",
			text:   "The quick brown fox jumps",
			length: 15,
			want:   "The quick...",
		},
		{
			name:   "plain text without space keeps the exact cut",
			text:   "abcdefghijklmnop",
			length: 10,
			want:   "abcdefg...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateHTML(tt.text, tt.length, "...", tt.exact, tt.considerHTML)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateHTMLKeepsTagsBalanced(t *testing.T) {
	summary := "<div><p>Lorem <em>ipsum dolor</em> sit amet, <a href=\"#\">consectetur <b>adipiscing</b> elit</a>.</p>" +
		"<ul><li>sed do eiusmod</li><li>tempor incididunt</li></ul></div>"

	for length := 5; length < 80; length += 7 {
		out := TruncateHTML(summary, length, "...", false, true)
		for _, tag := range []string{"div", "p", "em", "a", "b", "ul", "li"} {
			assert.Equal(t, strings.Count(out, "<"+tag+">")+strings.Count(out, "<"+tag+" "),
				strings.Count(out, "</"+tag+">"), "tag %s in %q", tag, out)
		}
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter()

	t.Run("FormatText removes scripts", func(t *testing.T) {
		out := f.FormatText(`<p class="lead">Hi<script>alert(1)</script></p>`, FormatHTML)
		assert.Equal(t, `<p class="lead">Hi</p>`, out)
	})

	t.Run("FormatText renders markdown", func(t *testing.T) {
		out := f.FormatText("**bold** text", FormatMarkdown)
		assert.Equal(t, "<p><strong>bold</strong> text</p>\n", out)
	})

	t.Run("FormatText escapes plain text", func(t *testing.T) {
		out := f.FormatText("a < b\nc", FormatPlain)
		assert.Equal(t, "a &lt; b<br />\nc", out)
	})

	t.Run("FormatString strips tags", func(t *testing.T) {
		assert.Equal(t, "Big & bold", f.FormatString(" <b>Big</b> &amp; bold "))
		assert.Equal(t, "Hi", f.FormatString("<script>alert(1)</script>Hi"))
	})
}

func TestExtractFirstImage(t *testing.T) {
	img, ok := ExtractFirstImage(`<p>text</p><img src="/a.png" alt="A"><img src="/b.png">`)
	require.True(t, ok)
	assert.Equal(t, Image{Src: "/a.png", Alt: "A"}, img)

	_, ok = ExtractFirstImage("<p>no image</p>")
	assert.False(t, ok)
}

func TestStripTagsAndTrimChars(t *testing.T) {
	assert.Equal(t, "Intro to Go", StripTags("<p>Intro to <b>Go</b></p>"))
	assert.Equal(t, "abc", TrimChars("abc", 5))
	assert.Equal(t, "abcde...", TrimChars("abcdefgh", 5))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 2*time.Minute, SimplerTime(2*time.Minute+10*time.Second))
	assert.Equal(t, 42*time.Second, SimplerTime(42*time.Second))

	out := RelativeTime(now.Add(-3*time.Minute-5*time.Second), now)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	tag := doc.Find("time")
	assert.Equal(t, "3 minutes ago", tag.Text())
	dt, _ := tag.Attr("datetime")
	assert.Equal(t, "2022-03-01T11:56:55Z", dt)

	assert.Contains(t, RelativeTime(now, now), ">now</time>")
}
