package a

import "regexp"

type parser struct{}

func (parser) Parse(text string) (string, error) { return text, nil }

var query parser

func badRegexp(texts []string) {
	for _, text := range texts {
		re := regexp.MustCompile(`\d+`) // want "regexp.MustCompile called inside loop"
		_ = re.FindAllString(text, -1)
	}
}

func badQuery(texts []string) {
	for _, text := range texts {
		_, _ = query.Parse(text) // want "query.Parse called inside loop"
	}
}

var globalRe = regexp.MustCompile(`\d+`)

func good(texts []string) {
	re := regexp.MustCompile(`\w+`)
	for _, text := range texts {
		_ = re.FindAllString(text, -1)
		_ = globalRe.MatchString(text)
	}
}
