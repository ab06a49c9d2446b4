package web

import (
	"fmt"
	"net/http"
	"time"

	"evcal/internal/datekey"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/persist"
)

type nowResponse struct {
	Now   time.Time `json:"now"`
	Today string    `json:"today"`
	Time  string    `json:"time"`
}

// monthCell is one square of the month grid.
type monthCell struct {
	Date     string `json:"date"`
	InMonth  bool   `json:"inMonth"`
	Today    bool   `json:"today"`
	Count    int    `json:"count"`
	Festival string `json:"festival,omitempty"`
}

type monthResponse struct {
	Anchor    string      `json:"anchor"`
	WeekStart string      `json:"weekStart"`
	Cells     []monthCell `json:"cells"`
}

func (s *Server) handleNow(w http.ResponseWriter, _ *http.Request) {
	now := s.d.Clock.Now()
	writeJSON(w, http.StatusOK, nowResponse{Now: now, Today: datekey.ToKey(now), Time: now.Format("15:04")})
}

// handleMonth returns the 42-cell grid around anchor (default today) with
// per-day event counts and festival names.
//
// GET /api/month?anchor=YYYY-MM-DD
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	now := s.d.Clock.Now()
	anchor := now
	if a := r.URL.Query().Get("anchor"); a != "" {
		t, err := datekey.FromKey(a)
		if err != nil || !datekey.Valid(a) {
			writeError(w, http.StatusBadRequest, "malformed anchor "+a)
			return
		}
		anchor = t
	}

	days := s.d.Store.Snapshot()
	today := datekey.ToKey(now)
	ws := s.weekStart()
	grid := datekey.MonthGrid(anchor, ws)

	cells := make([]monthCell, 0, len(grid))
	for _, d := range grid {
		key := datekey.ToKey(d)
		name, _ := s.d.Festivals.Lookup(key)
		cells = append(cells, monthCell{
			Date:     key,
			InMonth:  d.Month() == anchor.Month() && d.Year() == anchor.Year(),
			Today:    key == today,
			Count:    len(days[key]),
			Festival: name,
		})
	}
	writeJSON(w, http.StatusOK, monthResponse{
		Anchor:    datekey.ToKey(anchor),
		WeekStart: ws.String(),
		Cells:     cells,
	})
}

func (s *Server) handleFestival(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, ok := s.d.Festivals.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "no festival on "+key)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": key, "name": name})
}

// handleExportJSON downloads the whole store as calendar-events-<date>.json.
func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	now := s.d.Clock.Now()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", persist.ExportFileName(now)))
	if err := persist.WriteExport(w, s.d.Store.Snapshot()); err != nil {
		appLog.Error("api: export failed", err)
	}
}

func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	now := s.d.Clock.Now()
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ics.ExportFileName(now)))
	if err := ics.Export(w, s.d.Store.Snapshot(), now); err != nil {
		appLog.Error("api: ics export failed", err)
	}
}
