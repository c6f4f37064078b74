package viewmodel

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/kalambet/portal/internal/record"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en-US"

const isoDate = "2006-01-02"

// short date layouts, matching what browsers print for toLocaleDateString.
var (
	localeTags = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.MustParse("en-IN"),
		language.German,
		language.French,
		language.Spanish,
		language.Italian,
		language.Dutch,
		language.BrazilianPortuguese,
		language.Russian,
		language.Swedish,
		language.Japanese,
		language.Chinese,
	}
	localeLayouts = []string{
		"1/2/2006",
		"02/01/2006",
		"2/1/2006",
		"2.1.2006",
		"02/01/2006",
		"2/1/2006",
		"2/1/2006",
		"2-1-2006",
		"02/01/2006",
		"02.01.2006",
		isoDate,
		"2006/1/2",
		"2006/1/2",
	}
	localeMatcher = language.NewMatcher(localeTags)
)

// DateFormat renders stored ISO timestamps as locale short dates.
type DateFormat struct {
	layout string
	loc    *time.Location
}

// NewDateFormat picks the closest supported locale to the BCP 47 tag. Tags
// with no reasonable match print ISO dates. A nil loc means UTC.
func NewDateFormat(locale string, loc *time.Location) DateFormat {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	df := DateFormat{layout: isoDate, loc: loc}
	tag, err := language.Parse(locale)
	if err != nil {
		return df
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return df
	}
	df.layout = localeLayouts[idx]
	return df
}

// Format renders an ISO timestamp. Values that do not parse are returned as
// they are.
func (d DateFormat) Format(s string) string {
	t, ok := record.ParseDate(&s)
	if !ok {
		return s
	}
	return t.In(d.loc).Format(d.layout)
}

// Layout is the Go time layout in use.
func (d DateFormat) Layout() string { return d.layout }
