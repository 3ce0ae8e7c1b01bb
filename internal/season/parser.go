// Package season turns tariff season descriptions into month/day windows.
//
// Parse is deliberately tolerant: clauses it cannot read are skipped and
// never reported. ParseDated handles the numeric dd/mm/yy ranges found in
// tariff sheets and fails on malformed input.
package season

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"safari_quote/internal/domain"
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	dashRe    = regexp.MustCompile(`\s*(?:[‐‑‒–—−-]|\bto\b)\s*`)
	joinRe    = regexp.MustCompile(`&|/|\sand\s`)
	ordinalRe = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)
	splitRe   = regexp.MustCompile(`,|\s{2,}|\sand\s`)
	tokenRe   = regexp.MustCompile(`\d+|[a-z]+|-`)
)

// MonthDays returns the last day of month in a non-leap year.
func MonthDays(month int) int {
	return time.Date(2001, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = dashRe.ReplaceAllString(s, "-")
	s = joinRe.ReplaceAllString(s, ",")
	return s
}

// Parse reads free-text seasons such as "1 Jan - 15 Mar", "Dec - Feb",
// "Easter & 20 Dec to 5 Jan" or "Whole Year". Year is left 0.
func Parse(text string) []domain.SeasonWindow {
	var out []domain.SeasonWindow
	seen := map[domain.SeasonWindow]bool{}
	for _, part := range splitRe.Split(normalize(text), -1) {
		clause := strings.Join(strings.Fields(part), " ")
		if clause == "" {
			continue
		}
		w, ok := parseClause(clause)
		if !ok || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// point is one side of a clause: a month, optionally with a day.
type point struct {
	month, day int
}

func parseClause(clause string) (domain.SeasonWindow, bool) {
	if clause == "whole year" || clause == "all year" {
		return domain.WholeYear(), true
	}

	toks := tokenRe.FindAllString(clause, -1)
	if indexOf(toks, "-") >= 0 {
		// "mid-june - august" has a hyphen that is not the separator, so the
		// first split where both sides read wins. No split means no window.
		for i, t := range toks {
			if t != "-" {
				continue
			}
			left, lok := readPoint(toks[:i])
			right, rok := readPoint(toks[i+1:])
			// "15 - 20 mar" borrows the month from the right-hand side.
			if !lok && left.day > 0 && rok {
				left.month, lok = right.month, true
			}
			if lok && rok {
				return rangeWindow(left, right)
			}
		}
		return domain.SeasonWindow{}, false
	}

	// A lone "15 dec" is a single day; a lone "april" is the whole month.
	p, ok := readPoint(toks)
	if !ok {
		return domain.SeasonWindow{}, false
	}
	return rangeWindow(p, p)
}

// rangeWindow builds a window; a missing start day defaults to 1 and a
// missing end day to the end of the month. An end day past the month's
// length is clamped to it, a start day past it drops the clause.
func rangeWindow(from, to point) (domain.SeasonWindow, bool) {
	w := domain.SeasonWindow{
		StartMonth: from.month,
		StartDay:   from.day,
		EndMonth:   to.month,
		EndDay:     to.day,
	}
	if w.StartDay == 0 {
		w.StartDay = 1
	}
	if w.EndDay == 0 || w.EndDay > MonthDays(w.EndMonth) {
		w.EndDay = MonthDays(w.EndMonth)
	}
	if w.StartDay > MonthDays(w.StartMonth) {
		return domain.SeasonWindow{}, false
	}
	return w, true
}

// readPoint finds the first month word in toks and the day number next to
// it (before it, else after it). ok is false when no month is present; the
// day is still reported so callers can borrow a month.
func readPoint(toks []string) (point, bool) {
	mi := -1
	var p point
	for i, t := range toks {
		if m := monthOf(t); m > 0 {
			mi, p.month = i, m
			break
		}
	}
	if mi < 0 {
		for _, t := range toks {
			if d := dayOf(t); d > 0 {
				p.day = d
				break
			}
		}
		return p, false
	}
	if mi > 0 {
		p.day = dayOf(toks[mi-1])
	}
	if p.day == 0 && mi+1 < len(toks) {
		p.day = dayOf(toks[mi+1])
	}
	return p, true
}

func monthOf(tok string) int {
	if len(tok) < 3 || tok[0] < 'a' || tok[0] > 'z' {
		return 0
	}
	return months[tok[:3]]
}

func dayOf(tok string) int {
	if len(tok) > 2 {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func indexOf(toks []string, s string) int {
	for i, t := range toks {
		if t == s {
			return i
		}
	}
	return -1
}
