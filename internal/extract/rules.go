package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/tourscout/api/schemas"
)

// Suffixes appended to normalised values.
const (
	currencySuffix = " руб"
	starSuffix     = "★"
	ratingSuffix   = "⭐"
	nightsSuffix   = " ночей"
)

// Name characters: letters and digits in any script plus the punctuation
// hotel names carry. The class never crosses a line break.
const (
	nameHead  = `[A-ZА-ЯЁ]`
	nameBody  = `[\p{L}\p{N}_ \t\-.]`
	placeBody = `[\p{L}\p{N}_ \t\-.,]`
)

var (
	// pricePattern accepts a thousands separator of space, no-break space,
	// narrow no-break space or dot.
	pricePattern = regexp.MustCompile(`(?i)(\d{1,3}[\s\x{00A0}\x{202F}.]?\d{3})[\s\x{00A0}]*(?:руб|₽)`)

	// hotelMarker is a capitalised run immediately followed by the star marker.
	hotelMarker = regexp.MustCompile(`(?m)^[ \t]*` + nameHead + nameBody + `{3,50}\*`)

	nameResortRating = regexp.MustCompile(`^(` + nameHead + nameBody + `{3,50})\*(` + nameHead + placeBody + `{3,30}),\s*([\d.]+)`)
	nameStar         = regexp.MustCompile(`^(` + nameHead + nameBody + `{3,50})\*`)
	nameStarRating   = regexp.MustCompile(`^(` + nameHead + nameBody + `{3,50})\*([\d.]+)`)

	capitalStart = regexp.MustCompile(`^` + nameHead)
	longDigitRun = regexp.MustCompile(`\d{3,}`)
	trailingNum  = regexp.MustCompile(`,\s*([\d.]+)$`)
	nightsCount  = regexp.MustCompile(`(?i)(\d+)\s*ноч`)
	datePattern  = regexp.MustCompile(`\d{2}[./-]\d{2}[./-]\d{4}`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// chromePhrases are UI labels that look like hotel names but are not.
var chromePhrases = []string{"Поделиться", "Найти"}

// resortGazetteer is checked in order; the first name found anywhere in the
// card text wins.
var resortGazetteer = []string{
	"Дубай", "Абу-Даби", "Шарджа", "Рас-аль-Хайма", "Аджман", "Умм-аль-Кувейн",
	"Анталия", "Белек", "Кемер", "Сиде", "Алания", "Мармарис", "Бодрум",
	"Шарм-эль-Шейх", "Хургада", "Дахаб", "Марса-Алам",
}

// keywordRule labels a text when its pattern matches anywhere.
type keywordRule struct {
	label string
	re    *regexp.Regexp
}

// keywordLadder returns the label of the first matching rule.
type keywordLadder []keywordRule

func (l keywordLadder) match(text string) string {
	for _, r := range l {
		if r.re.MatchString(text) {
			return r.label
		}
	}
	return schemas.Unknown
}

// mealLadder runs from most to least specific: the ultra variant contains the
// plain all-inclusive phrase and must be tested first.
var mealLadder = keywordLadder{
	{string(schemas.MealUltraAllInclusive), regexp.MustCompile(`(?i)ultra[\s-]*all[\s-]*inclusive|\buai\b|ультра\s*вс[её]\s*включено`)},
	{string(schemas.MealAllInclusive), regexp.MustCompile(`(?i)all[\s-]*inclusive|\bai\b|вс[её]\s*включено`)},
	{string(schemas.MealFullBoard), regexp.MustCompile(`(?i)full[\s-]*board|\bfb\b|полный\s*пансион`)},
	{string(schemas.MealHalfBoard), regexp.MustCompile(`(?i)half[\s-]*board|\bhb\b|полупансион|завтрак\s*и\s*ужин`)},
	{string(schemas.MealBedAndBreakfast), regexp.MustCompile(`(?i)bed\s*(?:&|and)?\s*breakfast|\bbb\b|завтрак`)},
}

var operatorLadder = keywordLadder{
	{"Anex Tour", regexp.MustCompile(`(?i)anex\s*tour|анекс\s*тур`)},
	{"TUI", regexp.MustCompile(`(?i)\btui\b`)},
	{"Coral Travel", regexp.MustCompile(`(?i)coral\s*travel|корал\s*тревел`)},
	{"Biblio-Globus", regexp.MustCompile(`(?i)biblio[-\s]?globus|библио[-\s]?глобус`)},
	{"Pegas Touristik", regexp.MustCompile(`(?i)pegas\s*touristik|пегас\s*туристик`)},
	{"Fun&Sun", regexp.MustCompile(`(?i)fun\s*(?:&|and)\s*sun`)},
	{"Sunmar", regexp.MustCompile(`(?i)\bsunmar\b|санмар`)},
}

// lines splits text into trimmed, non-empty lines.
func lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func hasPrice(text string) bool { return pricePattern.MatchString(text) }

func hasHotelMarker(text string) bool { return hotelMarker.MatchString(text) }

// hotelName tries the combined pattern, then the bare star marker, then the
// first plausible capitalised line.
func hotelName(ls []string) string {
	for _, l := range ls {
		if m := nameResortRating.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, l := range ls {
		if m := nameStar.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, l := range ls {
		if plausibleName(l) {
			return l
		}
	}
	return schemas.Unknown
}

func plausibleName(l string) bool {
	n := utf8.RuneCountInString(l)
	if n <= 5 || n >= 60 || !capitalStart.MatchString(l) || longDigitRun.MatchString(l) {
		return false
	}
	for _, p := range chromePhrases {
		if strings.Contains(l, p) {
			return false
		}
	}
	return true
}

func price(text string) string {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return schemas.Unknown
	}
	return nonDigit.ReplaceAllString(m[1], "") + currencySuffix
}

// stars only fires when digits follow the star marker directly, so
// "Beach Resort*Кемер" yields unknown even if stars appear elsewhere.
func stars(ls []string) string {
	for _, l := range ls {
		if m := nameStarRating.FindStringSubmatch(l); m != nil {
			return m[2] + starSuffix
		}
	}
	return schemas.Unknown
}

func resort(ls []string, text string) string {
	for _, l := range ls {
		if m := nameResortRating.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[2])
		}
	}
	for _, r := range resortGazetteer {
		if strings.Contains(text, r) {
			return r
		}
	}
	return schemas.Unknown
}

func rating(ls []string) string {
	for _, l := range ls {
		if m := trailingNum.FindStringSubmatch(l); m != nil {
			return m[1] + ratingSuffix
		}
	}
	return schemas.Unknown
}

func nights(text string) string {
	m := nightsCount.FindStringSubmatch(text)
	if m == nil {
		return schemas.Unknown
	}
	return m[1] + nightsSuffix
}

// dates returns the first two day-month-year tokens as start and end.
func dates(text string) (string, string) {
	found := datePattern.FindAllString(text, 2)
	switch len(found) {
	case 0:
		return schemas.Unknown, schemas.Unknown
	case 1:
		return found[0], schemas.Unknown
	}
	return found[0], found[1]
}
