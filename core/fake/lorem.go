package fake

import (
	"math/rand"
	"strings"
)

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
	eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud
	exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure in
	reprehenderit voluptate velit esse cillum fugiat nulla pariatur excepteur sint occaecat
	cupidatat non proident sunt culpa qui officia deserunt mollit anim id est laborum`)

type lorem struct {
	rnd *rand.Rand
}

func (l lorem) word() string {
	return loremWords[l.rnd.Intn(len(loremWords))]
}

func (l lorem) words(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = l.word()
	}
	return strings.Join(words, " ")
}

// sentence returns 4 to 12 words, capitalised and ending with a period.
func (l lorem) sentence() string {
	s := l.words(4 + l.rnd.Intn(9))
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
