package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	meridiemRe = regexp.MustCompile(`\b(\d{1,2})(?::([0-5]\d))?\s*(am\b|pm\b|a\.m\.|p\.m\.)`)
	clock24Re  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	noonRe     = regexp.MustCompile(`\b(noon|midday)\b`)
	atHourRe   = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)

	relativeDayRe = regexp.MustCompile(`\b(today|tonight|tomorrow|tmrw|tmr)\b`)
	weekdayRe     = regexp.MustCompile(`\b(?:(next|this)\s+)?(monday|tuesday|tues|tue|wednesday|wed|thursday|thurs|thu|friday|fri|saturday|sunday)\b`)
	monthDayRe    = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "saturday": time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var monthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "june": true, "july": true,
	"august": true, "september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

var temporalWords = map[string]bool{
	"today": true, "tonight": true, "tomorrow": true, "tmrw": true, "tmr": true,
	"at": true, "on": true, "next": true, "this": true, "noon": true, "around": true,
}

func isTemporalWord(w string) bool {
	w = strings.Trim(w, "'\"()")
	if w == "" {
		return false
	}
	if temporalWords[w] || monthNames[w] {
		return true
	}
	if _, ok := weekdays[w]; ok {
		return true
	}
	return w[0] >= '0' && w[0] <= '9'
}

type clock struct {
	hour, minute int
}

// dateSpec is either an absolute month/day, a weekday, or a day offset from today.
type dateSpec struct {
	year     int
	month    time.Month
	day      int
	explicit bool
	offset   int
	weekday  *time.Weekday
	next     bool
	evening  bool
}

// parseRules returns found=true when any date or time word was recognized,
// even if the words do not add up to a concrete instant.
func parseRules(text string, ref time.Time) (time.Time, bool) {
	clk, hasClock := findClock(text)
	date, hasDate := findDate(text)
	if !hasClock && !hasDate {
		return time.Time{}, false
	}
	if !hasClock {
		return time.Time{}, true
	}
	if date.evening && clk.hour < 12 {
		clk.hour += 12
	}
	loc := ref.Location()
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, clk.hour, clk.minute, 0, 0, loc)
	}

	switch {
	case !hasDate:
		t := at(ref.Year(), ref.Month(), ref.Day())
		if !t.After(ref) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	case date.weekday != nil:
		days := (int(*date.weekday) - int(ref.Weekday()) + 7) % 7
		if date.next && days == 0 {
			days = 7
		}
		t := at(ref.Year(), ref.Month(), ref.Day()+days)
		if !t.After(ref) {
			t = t.AddDate(0, 0, 7)
		}
		return t, true
	case date.month != 0:
		year := ref.Year()
		if date.explicit {
			year = date.year
		}
		t := at(year, date.month, date.day)
		if t.Month() != date.month {
			return time.Time{}, true
		}
		if !date.explicit && !t.After(ref) {
			t = at(year+1, date.month, date.day)
		}
		return t, true
	default:
		return at(ref.Year(), ref.Month(), ref.Day()+date.offset), true
	}
}

func findClock(text string) (clock, bool) {
	if m := meridiemRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return clock{}, false
		}
		pm := strings.HasPrefix(m[3], "p")
		if hour == 12 {
			hour = 0
		}
		if pm {
			hour += 12
		}
		return clock{hour: hour, minute: minute}, true
	}
	if m := clock24Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return clock{hour: hour, minute: minute}, true
	}
	if noonRe.MatchString(text) {
		return clock{hour: 12}, true
	}
	if m := atHourRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		switch {
		case hour >= 1 && hour <= 7:
			// "at 3" means the afternoon for a business appointment
			hour += 12
		case hour > 23:
			return clock{}, false
		}
		return clock{hour: hour}, true
	}
	return clock{}, false
}

func findDate(text string) (dateSpec, bool) {
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			return dateSpec{month: months[m[1][:3]], day: day}, true
		}
	}
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			spec := dateSpec{month: time.Month(month), day: day}
			if m[3] != "" {
				year, _ := strconv.Atoi(m[3])
				if year < 100 {
					year += 2000
				}
				spec.year, spec.explicit = year, true
			}
			return spec, true
		}
	}
	if m := relativeDayRe.FindStringSubmatch(text); m != nil {
		switch m[1] {
		case "today":
			return dateSpec{}, true
		case "tonight":
			return dateSpec{evening: true}, true
		default:
			return dateSpec{offset: 1}, true
		}
	}
	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		wd := weekdays[m[2]]
		return dateSpec{weekday: &wd, next: m[1] == "next"}, true
	}
	return dateSpec{}, false
}
