// Package query maps free-text tour requests onto a SearchRequest.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

var (
	nightsPattern = regexp.MustCompile(`(\d+)\s*(?:ночей|ночи|ночь)`)
	peoplePattern = regexp.MustCompile(`(\d+)\s*(?:человек|человека|чел)`)
	starsPattern  = regexp.MustCompile(`(\d+)\s*(?:звезд|звезды|звезда)`)
	pricePattern  = regexp.MustCompile(`до\s*(\d+)\s*(?:руб|рублей)`)
)

// Translator fills a base request from keyword and number cues in a phrase.
type Translator struct {
	base schemas.SearchRequest
}

// NewTranslator returns a Translator whose unmatched fields keep base.
func NewTranslator(base schemas.SearchRequest) *Translator {
	return &Translator{base: base}
}

// Translate never fails: unmatched cues leave the base values in place.
// Vocabulary entries are matched by lower-cased substring in enumeration
// order and the first hit wins, so inflected forms such as "Москвы" are not
// recognised.
func (t *Translator) Translate(text string) schemas.SearchRequest {
	req := t.base
	q := strings.ToLower(text)

	for _, c := range schemas.Countries() {
		if strings.Contains(q, strings.ToLower(c.String())) {
			req.Country = c
			break
		}
	}
	for _, d := range schemas.Departures() {
		if strings.Contains(q, strings.ToLower(d.String())) {
			req.Departure = d
			break
		}
	}

	if n, ok := number(nightsPattern, q); ok {
		req.NightsFrom, req.NightsTo = n, n
	}
	if n, ok := number(peoplePattern, q); ok {
		req.Adults = n
	}
	if n, ok := number(starsPattern, q); ok {
		req.Stars = n
	}
	if n, ok := number(pricePattern, q); ok {
		req.PriceMax = n
	}
	return req
}

// Translate maps text onto the default request.
func Translate(text string) schemas.SearchRequest {
	return NewTranslator(schemas.DefaultSearchRequest()).Translate(text)
}

func number(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
