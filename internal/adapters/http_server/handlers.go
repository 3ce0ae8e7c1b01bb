package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"safari_quote/internal/app"
	"safari_quote/internal/domain"
)

type Handlers struct{ Q *app.QuoteService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/hotels/quote", h.quoteHotels)
		r.Post("/hotels/rates", h.rateSheet)
		r.Get("/legs/fee", h.legFee)
		r.Post("/itinerary/quote", h.quoteItinerary)
		r.Post("/misc/price", h.miscPrice)
	})
}

// ---- request bodies ----

type groupSizeInfo struct {
	Adults struct {
		Count int `json:"count"`
	} `json:"adults"`
	Kids struct {
		Age []int `json:"age"`
	} `json:"kids"`
}

func (g groupSizeInfo) composition() domain.GroupComposition {
	return domain.GroupComposition{Adults: g.Adults.Count, ChildAges: g.Kids.Age}
}

type groupRequest struct {
	GroupSizeInfo groupSizeInfo `json:"groupSizeInfo"`
}

type itineraryRequest struct {
	GroupSizeInfo groupSizeInfo `json:"groupSizeInfo"`
	Legs          []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Date string `json:"date"`
	} `json:"legs"`
}

type miscRequest struct {
	AdultCount int `json:"adultCount"`
	KidCount   int `json:"kidCount"`
	Duration   int `json:"duration"`
}

// ---- helpers ----

var dateLayouts = []string{"2/1/2006", "2/1/06", time.DateOnly}

// parseDate accepts DD/MM/YY, DD/MM/YYYY and YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q must be DD/MM/YY, DD/MM/YYYY or YYYY-MM-DD", domain.ErrInvalidInput, s)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

// placeAndDate reads the location and date query parameters.
func placeAndDate(r *http.Request) (string, time.Time, error) {
	loc := strings.TrimSpace(r.URL.Query().Get("location"))
	if loc == "" {
		return "", time.Time{}, fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	return loc, date, err
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses. Internal detail is
// logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.As(err, &mbe):
		writeProblem(w, http.StatusRequestEntityTooLarge, "Request too large", "")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "No results for the given criteria")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "Processing failure")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "Processing failure")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- handlers ----

func (h *Handlers) quoteHotels(w http.ResponseWriter, r *http.Request) {
	loc, date, err := placeAndDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req groupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.QuoteHotels(r.Context(), loc, date, req.GroupSizeInfo.composition())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) rateSheet(w http.ResponseWriter, r *http.Request) {
	loc, date, err := placeAndDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req groupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.RateSheet(r.Context(), loc, date, req.GroupSizeInfo.composition())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) legFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, r, fmt.Errorf("%w: from and to are required", domain.ErrInvalidInput))
		return
	}
	adults, err := queryInt(r, "adults", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kids, err := queryInt(r, "kids", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.LegFee(r.Context(), from, to, adults, kids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) quoteItinerary(w http.ResponseWriter, r *http.Request) {
	var req itineraryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	legs := make([]domain.Leg, 0, len(req.Legs))
	for i, l := range req.Legs {
		date, err := parseDate(l.Date)
		if err != nil {
			writeError(w, r, fmt.Errorf("leg %d: %w", i+1, err))
			return
		}
		legs = append(legs, domain.Leg{Origin: strings.TrimSpace(l.From), Destination: strings.TrimSpace(l.To), Date: date})
	}
	out, err := h.Q.QuoteItinerary(r.Context(), req.GroupSizeInfo.composition(), legs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) miscPrice(w http.ResponseWriter, r *http.Request) {
	var req miscRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.Incidentals(req.AdultCount, req.KidCount, req.Duration)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, out)
}
