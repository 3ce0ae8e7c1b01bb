package season

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"safari_quote/internal/domain"
)

var datedRe = regexp.MustCompile(`^\s*\d{1,2}/\d{1,2}/\d{2,4}\s*-`)

// IsDated reports whether text uses the numeric dd/mm/yy-dd/mm/yy form.
func IsDated(text string) bool { return datedRe.MatchString(text) }

// ParseDated parses comma-separated "dd/mm/yy-dd/mm/yy" ranges. Two-digit
// years mean 20yy. A range whose end year differs from its start year keeps
// the start year.
func ParseDated(text string) ([]domain.SeasonWindow, error) {
	var out []domain.SeasonWindow
	for _, rng := range strings.Split(text, ",") {
		rng = strings.TrimSpace(rng)
		if rng == "" {
			continue
		}
		start, end, ok := strings.Cut(rng, "-")
		if !ok {
			return nil, fmt.Errorf("season range %q: missing '-'", rng)
		}
		sd, sm, sy, err := parseDMY(start)
		if err != nil {
			return nil, fmt.Errorf("season range %q: %w", rng, err)
		}
		ed, em, ey, err := parseDMY(end)
		if err != nil {
			return nil, fmt.Errorf("season range %q: %w", rng, err)
		}
		if sy != ey {
			log.Warn().Str("range", rng).Int("year", sy).Msg("inconsistent years in season range, using start year")
		}
		out = append(out, domain.SeasonWindow{
			StartMonth: sm, StartDay: sd,
			EndMonth: em, EndDay: ed,
			Year: sy,
		})
	}
	return out, nil
}

func parseDMY(s string) (day, month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q: want dd/mm/yy", s)
	}
	n := make([]int, 3)
	for i, p := range parts {
		if n[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
			return 0, 0, 0, fmt.Errorf("date %q: %w", s, err)
		}
	}
	day, month, year = n[0], n[1], n[2]
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("date %q: month out of range", s)
	}
	// Leap days are accepted in dated ranges.
	if day < 1 || (day > MonthDays(month) && !(month == 2 && day == 29)) {
		return 0, 0, 0, fmt.Errorf("date %q: day out of range", s)
	}
	return day, month, year, nil
}
