package text

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	entityRegex = regexp.MustCompile(`^(&[0-9a-zA-Z]{2,8};|&#[0-9]{1,7};|&#[xX][0-9a-fA-F]{1,6};)`)

	voidElements = map[string]bool{
		"area": true, "base": true, "basefont": true, "br": true, "col": true, "embed": true,
		"frame": true, "hr": true, "img": true, "input": true, "isindex": true, "link": true,
		"meta": true, "param": true, "source": true, "track": true, "wbr": true,
	}
)

// piece is one token of the truncated output along the tags still open after it.
type piece struct {
	raw      string
	text     bool
	openTags []string
}

// TruncateHTML shortens text to length visible characters, ending included.
//
// With considerHTML, tags do not count towards the length, character entities count as one
// character and the tags left open by the cut are closed in reverse order. Unless exact is
// set, the cut is moved back to the last space of the kept text.
func TruncateHTML(text string, length int, ending string, exact, considerHTML bool) string {
	if !considerHTML {
		if utf8.RuneCountInString(text) <= length {
			return text
		}
		keep := length - utf8.RuneCountInString(ending)
		if keep < 0 {
			keep = 0
		}
		pieces := []piece{{raw: string([]rune(text)[:keep]), text: true}}
		return finish(pieces, nil, ending, exact)
	}

	if visibleLength(text) <= length {
		return text
	}

	var (
		pieces   []piece
		openTags []string
		total    = utf8.RuneCountInString(ending)
	)
	z := html.NewTokenizer(strings.NewReader(text))
loop:
	for {
		tt := z.Next()
		raw := string(z.Raw())
		switch tt {
		case html.ErrorToken:
			break loop
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); !voidElements[tag] {
				openTags = append([]string{tag}, openTags...)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			openTags = removeFirst(openTags, string(name))
		case html.TextToken:
			n := textLength(raw)
			if total+n > length {
				raw = cutVisible(raw, length-total)
				pieces = append(pieces, piece{raw: raw, text: true, openTags: openTags})
				break loop
			}
			total += n
			pieces = append(pieces, piece{raw: raw, text: true, openTags: openTags})
			if total >= length {
				break loop
			}
			continue
		}
		pieces = append(pieces, piece{raw: raw, openTags: openTags})
	}
	return finish(pieces, openTags, ending, exact)
}

func finish(pieces []piece, openTags []string, ending string, exact bool) string {
	if !exact {
		for i := len(pieces) - 1; i >= 0; i-- {
			p := pieces[i]
			if !p.text {
				continue
			}
			if pos := strings.LastIndex(p.raw, " "); pos >= 0 {
				pieces[i].raw = p.raw[:pos]
				pieces = pieces[:i+1]
				openTags = p.openTags
				break
			}
		}
	}

	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.raw)
	}
	b.WriteString(ending)
	for _, tag := range openTags {
		b.WriteString("</" + tag + ">")
	}
	return b.String()
}

// visibleLength counts the characters of s once rendered, tags excluded.
func visibleLength(s string) int {
	var n int
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return n
		case html.TextToken:
			n += textLength(string(z.Raw()))
		}
	}
}

func textLength(raw string) int {
	var n int
	for len(raw) > 0 {
		raw = raw[nextChar(raw):]
		n++
	}
	return n
}

// cutVisible keeps the first n visible characters of the raw text raw.
func cutVisible(raw string, n int) string {
	var pos int
	for i := 0; i < n && pos < len(raw); i++ {
		pos += nextChar(raw[pos:])
	}
	return raw[:pos]
}

// nextChar returns the byte length of the first visible character of s.
func nextChar(s string) int {
	if loc := entityRegex.FindStringIndex(s); loc != nil {
		return loc[1]
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}

func removeFirst(tags []string, tag string) []string {
	for i, t := range tags {
		if t == tag {
			out := make([]string, 0, len(tags)-1)
			out = append(out, tags[:i]...)
			return append(out, tags[i+1:]...)
		}
	}
	return tags
}
