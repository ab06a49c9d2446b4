package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"evcal/internal/model"
)

func TestClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&model.ValidationError{Field: "title"}, "validation"},
		{fmt.Errorf("add: %w", &model.NotFoundError{ID: "x"}), "not_found"},
		{&model.PersistenceError{Op: "write", Err: errors.New("disk")}, "persistence"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := Class(tt.err); got != tt.want {
			t.Errorf("Class(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.Mutation("add")
	m.Mutation("add")
	m.StoreError("delete", &model.NotFoundError{})
	m.StoreError("delete", nil)
	m.Notification(model.NotifyReminder)
	m.StoreSize(2, 5)

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("add")); got != 2 {
		t.Errorf("mutations = %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("delete", "not_found")); got != 1 {
		t.Errorf("errors = %v", got)
	}
	if got := testutil.ToFloat64(m.events); got != 5 {
		t.Errorf("events = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Notification(model.NotifyUpdate)
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`evcal_notifications_total{type="update"} 1`,
		`evcal_http_requests_total{code="418",method="get"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
