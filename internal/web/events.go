package web

import (
	"net/http"

	"evcal/internal/datekey"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/query"
	"evcal/internal/stats"
)

// addRequest is the POST /api/events body: a draft plus its date and an
// optional quick template.
type addRequest struct {
	Date     string `json:"date"`
	Template string `json:"template,omitempty"`
	model.Draft
}

type moveRequest struct {
	To string `json:"to"`
}

func pathKey(r *http.Request) (string, error) {
	key := r.PathValue("date")
	if !datekey.Valid(key) {
		return "", &model.ValidationError{Field: "date", Reason: "malformed date key " + key}
	}
	return key, nil
}

// handleListEvents returns the store filtered by the query parameters.
//
// GET /api/events?q=&category=&priority=&status=
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := query.State{
		SearchTerm: q.Get("q"),
		Criteria: query.Criteria{
			Category: q.Get("category"),
			Priority: q.Get("priority"),
			Status:   q.Get("status"),
		},
	}
	writeJSON(w, http.StatusOK, query.Apply(s.d.Store.Snapshot(), state))
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.storeError(w, "add", err)
		return
	}
	date, err := datekey.FromKey(req.Date)
	if err != nil || !datekey.Valid(req.Date) {
		s.storeError(w, "add", &model.ValidationError{Field: "date", Reason: "malformed date key " + req.Date})
		return
	}

	draft := req.Draft
	if req.Template != "" {
		tpl, ok := model.TemplateByName(req.Template)
		if !ok {
			s.storeError(w, "add", &model.ValidationError{Field: "template", Reason: "unknown template " + req.Template})
			return
		}
		if draft, err = tpl.ApplyTo(draft); err != nil {
			s.storeError(w, "add", err)
			return
		}
	}

	ev, err := s.d.Store.Add(date, draft)
	if err != nil {
		s.storeError(w, "add", err)
		return
	}
	appLog.Debug("api: event added", "id", ev.ID, "date", ev.Key())
	writeJSON(w, http.StatusCreated, ev)
}

// handleReplaceEvents swaps in a whole document, as an import does.
func (s *Server) handleReplaceEvents(w http.ResponseWriter, r *http.Request) {
	var days model.Days
	if err := decodeBody(w, r, &days); err != nil {
		s.storeError(w, "replace", err)
		return
	}
	if days == nil {
		days = model.Days{}
	}
	if err := s.d.Store.ReplaceAll(days); err != nil {
		s.storeError(w, "replace", err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(s.d.Store.Snapshot()))
}

// handleDay lists one day's events, in stored order or by start time with
// ?sort=time.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.storeError(w, "list", err)
		return
	}
	evs := s.d.Store.Day(key)
	if r.URL.Query().Get("sort") == "time" {
		evs = query.SortByTime(evs)
	}
	writeJSON(w, http.StatusOK, evs)
}

type foundEvent struct {
	Date  string      `json:"date"`
	Event model.Event `json:"event"`
}

// handleFindEvent looks an event up by id alone.
//
// GET /api/events/id/{id}
func (s *Server) handleFindEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, key, ok := s.d.Store.Find(id)
	if !ok {
		s.storeError(w, "find", &model.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, foundEvent{Date: key, Event: ev})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.storeError(w, "update", err)
		return
	}
	var patch model.Patch
	if err := decodeBody(w, r, &patch); err != nil {
		s.storeError(w, "update", err)
		return
	}
	ev, err := s.d.Store.Update(key, r.PathValue("id"), patch)
	if err != nil {
		s.storeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.storeError(w, "delete", err)
		return
	}
	ev, err := s.d.Store.Delete(key, r.PathValue("id"))
	if err != nil {
		s.storeError(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		s.storeError(w, "move", err)
		return
	}
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.storeError(w, "move", err)
		return
	}
	ev, err := s.d.Store.Move(r.PathValue("id"), key, req.To)
	if err != nil {
		s.storeError(w, "move", err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stats.Compute(s.d.Store.Snapshot()))
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	type templateDTO struct {
		Name     string         `json:"name"`
		Title    string         `json:"title"`
		Category model.Category `json:"category"`
		Priority model.Priority `json:"priority"`
		Minutes  int            `json:"durationMinutes"`
	}
	out := make([]templateDTO, 0, len(model.Templates))
	for _, t := range model.Templates {
		out = append(out, templateDTO{t.Name, t.Title, t.Category, t.Priority, int(t.Duration.Minutes())})
	}
	writeJSON(w, http.StatusOK, out)
}
