package app

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"safari_quote/internal/domain"
	"safari_quote/internal/season"
)

/********** header alias registries **********/

// Keys are normalised headers: lower case, spaces and underscores removed.
var tariffAliases = map[string][]string{
	"name":        {"hotelname", "hotel", "name", "accommodation"},
	"class":       {"class", "tier", "category"},
	"location":    {"location", "area", "park"},
	"daterange":   {"daterange", "season", "dates"},
	"description": {"description", "notes"},
	"single":      {"singlerate", "single"},
	"double":      {"doublerate", "double"},
	"triple":      {"triplerate", "triple"},
	"year":        {"year"},
}

var serviceFeeAliases = map[string][]string{
	"code":        {"servicecode", "code"},
	"description": {"servicedescription", "description"},
	"fee":         {"fee", "price", "amount"},
}

var (
	classRe = regexp.MustCompile(`\d+`)
	codeRe  = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
)

/********** tiny helpers **********/

func normHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(h)
	return strings.NewReplacer(" ", "", "_", "", "\t", "").Replace(h)
}

// columns resolves every alias key to its column index, -1 when absent.
func columns(header []string, aliases map[string][]string) map[string]int {
	idx := map[string]int{}
	for i, h := range header {
		idx[normHeader(h)] = i
	}
	out := make(map[string]int, len(aliases))
	for key, names := range aliases {
		out[key] = -1
		for _, n := range names {
			if i, ok := idx[n]; ok {
				out[key] = i
				break
			}
		}
	}
	return out
}

func cell(row []string, cols map[string]int, key string) string {
	i := cols[key]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseMoney reads "1,250.00" or "$90"; anything unreadable is 0.
func parseMoney(s string) decimal.Decimal {
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

/********** row mappers **********/

// rowError is a rejected input line.
type rowError struct {
	line   int
	reason string
}

func (e rowError) Error() string { return fmt.Sprintf("line %d: %s", e.line, e.reason) }

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// mapTariffs reads a tariff sheet. Each season window of a row becomes its
// own record. defaultYear applies to free-text seasons without a Year cell.
func mapTariffs(r io.Reader, defaultYear int) ([]domain.TariffRecord, []rowError, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read tariff header: %w", err)
	}
	cols := columns(header, tariffAliases)
	for _, required := range []string{"name", "class", "location", "daterange"} {
		if cols[required] < 0 {
			return nil, nil, fmt.Errorf("tariff sheet: missing %q column", required)
		}
	}

	var (
		out     []domain.TariffRecord
		rejects []rowError
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rejects = append(rejects, rowError{line: line, reason: err.Error()})
			continue
		}
		recs, reason := mapTariffRow(row, cols, defaultYear)
		if reason != "" {
			rejects = append(rejects, rowError{line: line, reason: reason})
			continue
		}
		out = append(out, recs...)
	}
	return out, rejects, nil
}

func mapTariffRow(row []string, cols map[string]int, defaultYear int) ([]domain.TariffRecord, string) {
	name := cell(row, cols, "name")
	if name == "" {
		return nil, "empty hotel name"
	}
	tier, err := strconv.Atoi(classRe.FindString(cell(row, cols, "class")))
	if err != nil {
		return nil, "class has no number"
	}

	dates := cell(row, cols, "daterange")
	var windows []domain.SeasonWindow
	if season.IsDated(dates) {
		windows, err = season.ParseDated(dates)
		if err != nil {
			return nil, err.Error()
		}
	} else {
		year := defaultYear
		if y := cell(row, cols, "year"); y != "" {
			if year, err = strconv.Atoi(y); err != nil {
				return nil, "year is not a number"
			}
		}
		for _, w := range season.Parse(dates) {
			windows = append(windows, w.WithYear(year))
		}
	}
	if len(windows) == 0 {
		return nil, fmt.Sprintf("no season in %q", dates)
	}

	base := domain.TariffRecord{
		AccommodationName: name,
		Tier:              tier,
		Location:          cell(row, cols, "location"),
		Description:       cell(row, cols, "description"),
		Rates: domain.Rates{
			Single: parseMoney(cell(row, cols, "single")),
			Double: parseMoney(cell(row, cols, "double")),
			Triple: parseMoney(cell(row, cols, "triple")),
		},
	}
	out := make([]domain.TariffRecord, 0, len(windows))
	for _, w := range windows {
		rec := base
		rec.Window = w
		out = append(out, rec)
	}
	return out, ""
}

func mapServiceFees(r io.Reader) ([]domain.ServiceFee, []rowError, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read service fee header: %w", err)
	}
	cols := columns(header, serviceFeeAliases)
	if cols["code"] < 0 || cols["fee"] < 0 {
		return nil, nil, errors.New("service fee sheet: missing code or fee column")
	}

	var (
		out     []domain.ServiceFee
		rejects []rowError
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rejects = append(rejects, rowError{line: line, reason: err.Error()})
			continue
		}
		code := cell(row, cols, "code")
		if !codeRe.MatchString(code) {
			rejects = append(rejects, rowError{line: line, reason: fmt.Sprintf("bad service code %q", code)})
			continue
		}
		fee, err := decimal.NewFromString(strings.ReplaceAll(cell(row, cols, "fee"), ",", ""))
		if err != nil {
			rejects = append(rejects, rowError{line: line, reason: "fee is not a number"})
			continue
		}
		out = append(out, domain.ServiceFee{Code: code, Description: cell(row, cols, "description"), Fee: fee})
	}
	return out, rejects, nil
}

// mapFeeRules decodes the formula document. Entry numbers stand in for
// line numbers in rejects.
func mapFeeRules(r io.Reader) ([]domain.FeeRule, []rowError, error) {
	var raw []domain.FeeRule
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode fee rules: %w", err)
	}
	var (
		out     []domain.FeeRule
		rejects []rowError
		seen    = map[domain.RouteKey]bool{}
	)
	for i, fr := range raw {
		fr.Origin = strings.TrimSpace(fr.Origin)
		fr.Destination = strings.TrimSpace(fr.Destination)
		fr.LodgingLocation = strings.TrimSpace(fr.LodgingLocation)
		switch {
		case fr.Origin == "" || fr.Destination == "":
			rejects = append(rejects, rowError{line: i + 1, reason: "missing from/to"})
		case strings.TrimSpace(fr.Formula) == "":
			rejects = append(rejects, rowError{line: i + 1, reason: "empty formula"})
		case seen[fr.Key()]:
			rejects = append(rejects, rowError{line: i + 1, reason: "duplicate route " + fr.Origin + " -> " + fr.Destination})
		default:
			seen[fr.Key()] = true
			out = append(out, fr)
		}
	}
	return out, rejects, nil
}
