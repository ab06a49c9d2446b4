package store

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"evcal/internal/clock"
	"evcal/internal/datekey"
	"evcal/internal/model"
)

type memoryPersistence struct {
	mu    sync.Mutex
	saved model.Days
	saves int
	fail  error
	load  model.Days
	lerr  error
}

func (m *memoryPersistence) Load() (model.Days, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lerr != nil {
		return nil, m.lerr
	}
	return m.load.Clone(), nil
}

func (m *memoryPersistence) Save(days model.Days) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.saved = days.Clone()
	return nil
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, p Persister) (*Store, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))
	return New(p, WithClock(c), WithIDFunc(counterIDs())), c
}

func day(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := datekey.FromKey(key)
	if err != nil {
		t.Fatalf("date %s: %v", key, err)
	}
	return d
}

func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	if err := snap.Validate(); err != nil {
		t.Fatalf("invariants broken: %v", err)
	}
	if len(s.ids) != snap.Count() {
		t.Fatalf("id index has %d entries, store has %d events", len(s.ids), snap.Count())
	}
}

func TestAddHoliPrep(t *testing.T) {
	p := &memoryPersistence{}
	s, c := newTestStore(t, p)

	ev, err := s.Add(day(t, "2025-03-14"), model.Draft{Title: "Holi Prep"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	snap := s.Snapshot()
	if len(snap) != 1 || len(snap["2025-03-14"]) != 1 {
		t.Fatalf("store = %v", snap)
	}
	if snap.Count() != 1 {
		t.Fatalf("total = %d", snap.Count())
	}
	if ev.ID == "" || !ev.CreatedAt.Equal(c.Now()) || !ev.UpdatedAt.Equal(ev.CreatedAt) {
		t.Fatalf("id/timestamps not assigned: %+v", ev)
	}
	if p.saves != 1 || p.saved.Count() != 1 {
		t.Fatalf("not written through: saves=%d", p.saves)
	}
	assertInvariants(t, s)
}

func TestAddRejectsBlankTitle(t *testing.T) {
	p := &memoryPersistence{}
	s, _ := newTestStore(t, p)
	_, err := s.Add(day(t, "2025-06-01"), model.Draft{Title: "   "})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(s.Snapshot()) != 0 || p.saves != 0 {
		t.Fatal("rejected add mutated the store")
	}
}

func TestUpdateWithSameFieldsOnlyTouchesUpdatedAt(t *testing.T) {
	s, c := newTestStore(t, nil)
	ev, err := s.Add(day(t, "2025-06-01"), model.Draft{
		Title: "Review", StartTime: "2:30 PM", Category: model.CategoryMeeting,
		Priority: model.PriorityHigh, Reminder: 15, Attendees: "a, b", Notes: "bring slides",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	c.Advance(time.Minute)
	got, err := s.Update("2025-06-01", ev.ID, model.PatchFromDraft(ev.Draft()))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.UpdatedAt.Equal(c.Now()) {
		t.Fatalf("updatedAt = %v, want %v", got.UpdatedAt, c.Now())
	}
	if !got.CreatedAt.Equal(ev.CreatedAt) {
		t.Fatal("createdAt changed")
	}
	got.UpdatedAt = ev.UpdatedAt
	if !reflect.DeepEqual(got, ev) {
		t.Fatalf("visible content changed:\n got %+v\nwant %+v", got, ev)
	}
}

func TestUpdatePartialPatch(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "Gym", Location: "Club"})
	done := model.StatusCompleted
	got, err := s.Update("2025-06-01", ev.ID, model.Patch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != model.StatusCompleted || got.Location != "Club" || got.Title != "Gym" {
		t.Fatalf("patch applied wrongly: %+v", got)
	}

	bad := model.Priority("Urgent")
	if _, err := s.Update("2025-06-01", ev.ID, model.Patch{Priority: &bad}); err == nil {
		t.Fatal("invalid enum accepted")
	}
	if s.Day("2025-06-01")[0].Priority != model.PriorityMedium {
		t.Fatal("failed update mutated the store")
	}
}

func TestUpdateMissing(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "x"})
	title := "y"
	for _, tc := range []struct{ key, id string }{
		{"2025-06-02", ev.ID},
		{"2025-06-01", "nope"},
	} {
		_, err := s.Update(tc.key, tc.id, model.Patch{Title: &title})
		var nf *model.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("update(%s,%s) err = %v, want NotFoundError", tc.key, tc.id, err)
		}
	}
}

func TestDeleteKeepsOrderAndPrunes(t *testing.T) {
	s, _ := newTestStore(t, nil)
	first, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "first"})
	second, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "second"})
	third, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "third"})

	if _, err := s.Delete("2025-06-01", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := s.Day("2025-06-01")
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != third.ID {
		t.Fatalf("remaining = %+v", got)
	}

	_, _ = s.Delete("2025-06-01", second.ID)
	_, _ = s.Delete("2025-06-01", third.ID)
	if _, ok := s.Snapshot()["2025-06-01"]; ok {
		t.Fatal("empty day was retained")
	}
	assertInvariants(t, s)
}

func TestDeleteTwoEventsScenario(t *testing.T) {
	s, _ := newTestStore(t, nil)
	a, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "a"})
	b, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "b"})
	if _, err := s.Delete("2025-06-01", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := s.Day("2025-06-01")
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("day = %+v, want only %s", got, b.ID)
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "x"})
	if _, err := s.Delete("2025-06-01", ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := s.Delete("2025-06-01", ev.ID)
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("second delete err = %v, want NotFoundError", err)
	}
	if _, _, ok := s.Find(ev.ID); ok {
		t.Fatal("deleted event still findable")
	}
	for _, evs := range s.Snapshot() {
		for _, e := range evs {
			if e.ID == ev.ID {
				t.Fatal("deleted event still stored")
			}
		}
	}
}

func TestMoveRoundTrip(t *testing.T) {
	s, c := newTestStore(t, nil)
	stay, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "stay"})
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "travel"})

	c.Advance(time.Minute)
	moved, err := s.Move(ev.ID, "2025-06-01", "2025-06-05")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Key() != "2025-06-05" {
		t.Fatalf("date not updated: %s", moved.Key())
	}
	if !moved.UpdatedAt.Equal(c.Now()) {
		t.Fatal("updatedAt not refreshed on move")
	}
	if got := s.Day("2025-06-01"); len(got) != 1 || got[0].ID != stay.ID {
		t.Fatalf("source day = %+v", got)
	}
	if _, key, _ := s.Find(ev.ID); key != "2025-06-05" {
		t.Fatalf("index key = %s", key)
	}

	back, err := s.Move(ev.ID, "2025-06-05", "2025-06-01")
	if err != nil {
		t.Fatalf("move back: %v", err)
	}
	if !back.Date.Equal(ev.Date) {
		t.Fatalf("date after round trip = %v, want %v", back.Date, ev.Date)
	}
	if _, ok := s.Snapshot()["2025-06-05"]; ok {
		t.Fatal("destination day not pruned")
	}
	got := s.Day("2025-06-01")
	if len(got) != 2 || got[1].ID != ev.ID {
		t.Fatalf("moved event should be appended at the end: %+v", got)
	}
	assertInvariants(t, s)
}

func TestMoveEdgeCases(t *testing.T) {
	p := &memoryPersistence{}
	s, _ := newTestStore(t, p)
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "x"})
	saves := p.saves

	same, err := s.Move(ev.ID, "2025-06-01", "2025-06-01")
	if err != nil || same.ID != ev.ID || p.saves != saves {
		t.Fatalf("same-key move should be a no-op: %v, saves %d->%d", err, saves, p.saves)
	}

	var nf *model.NotFoundError
	if _, err := s.Move(ev.ID, "2025-06-02", "2025-06-03"); !errors.As(err, &nf) {
		t.Fatalf("move from wrong day err = %v", err)
	}
	var ve *model.ValidationError
	if _, err := s.Move(ev.ID, "2025-06-01", "06/03/2025"); !errors.As(err, &ve) {
		t.Fatalf("move to malformed key err = %v", err)
	}
	assertInvariants(t, s)
}

func TestSaveFailureRollsBack(t *testing.T) {
	p := &memoryPersistence{}
	s, _ := newTestStore(t, p)
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "keep me"})
	before := s.Snapshot()

	p.fail = errors.New("disk full")
	var pe *model.PersistenceError
	if _, err := s.Add(day(t, "2025-06-02"), model.Draft{Title: "lost"}); !errors.As(err, &pe) {
		t.Fatalf("add err = %v, want PersistenceError", err)
	}
	if _, err := s.Delete("2025-06-01", ev.ID); !errors.As(err, &pe) {
		t.Fatalf("delete err = %v", err)
	}
	if _, err := s.Move(ev.ID, "2025-06-01", "2025-06-09"); !errors.As(err, &pe) {
		t.Fatalf("move err = %v", err)
	}
	if !errors.Is(pe, p.fail) {
		t.Fatal("PersistenceError does not unwrap to the cause")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatal("failed saves changed the store")
	}
	assertInvariants(t, s)
}

func TestReplaceAllValidates(t *testing.T) {
	p := &memoryPersistence{}
	s, _ := newTestStore(t, p)
	ev, _ := model.NewEvent("x1", day(t, "2025-06-01"), model.Draft{Title: "x"}, time.Now())

	var ve *model.ValidationError
	if err := s.ReplaceAll(model.Days{"2025-06-01": {}}); !errors.As(err, &ve) {
		t.Fatalf("empty day accepted: %v", err)
	}
	if err := s.ReplaceAll(model.Days{"2025-06-02": {ev}}); !errors.As(err, &ve) {
		t.Fatalf("mismatched date accepted: %v", err)
	}
	if err := s.ReplaceAll(model.Days{"2025-06-01": {ev, ev}}); !errors.As(err, &ve) {
		t.Fatalf("duplicate id accepted: %v", err)
	}
	if p.saves != 0 {
		t.Fatal("rejected document was persisted")
	}

	if err := s.ReplaceAll(model.Days{"2025-06-01": {ev}}); err != nil {
		t.Fatalf("valid replace: %v", err)
	}
	if _, key, ok := s.Find("x1"); !ok || key != "2025-06-01" {
		t.Fatal("replaced event not indexed")
	}
	if p.saves != 1 {
		t.Fatalf("saves = %d", p.saves)
	}
}

func TestOpenFailsOpen(t *testing.T) {
	s := Open(&memoryPersistence{lerr: &model.PersistenceError{Op: "decode", Err: errors.New("bad json")}})
	if s.Len() != 0 {
		t.Fatal("expected empty store after load error")
	}

	misfiled, _ := model.NewEvent("m1", day(t, "2025-06-05"), model.Draft{Title: "x"}, time.Now())
	bad := model.Days{"2025-06-01": {misfiled}}
	if s := Open(&memoryPersistence{load: bad}); s.Len() != 0 {
		t.Fatal("expected empty store after invalid document")
	}

	ev, _ := model.NewEvent("keep", day(t, "2025-06-01"), model.Draft{Title: "x"}, time.Now())
	p := &memoryPersistence{load: model.Days{"2025-06-01": {ev}}}
	s = Open(p)
	if s.Len() != 1 || p.saves != 0 {
		t.Fatalf("load: len=%d saves=%d", s.Len(), p.saves)
	}
}

func TestChangeHook(t *testing.T) {
	var changes []Change
	s := New(nil, WithIDFunc(counterIDs()), WithChangeHook(func(c Change) { changes = append(changes, c) }))
	ev, _ := s.Add(day(t, "2025-06-01"), model.Draft{Title: "x"})
	_, _ = s.Move(ev.ID, "2025-06-01", "2025-06-02")
	_, _ = s.Delete("2025-06-02", ev.ID)
	_, _ = s.Delete("2025-06-02", ev.ID) // not found: no hook

	kinds := make([]ChangeKind, len(changes))
	for i, c := range changes {
		kinds[i] = c.Kind
	}
	want := []ChangeKind{ChangeAdd, ChangeMove, ChangeDelete}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("changes = %v, want %v", kinds, want)
	}
	if changes[1].FromKey != "2025-06-01" || changes[1].ToKey != "2025-06-02" {
		t.Fatalf("move change = %+v", changes[1])
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	s, _ := newTestStore(t, &memoryPersistence{})
	keys := []string{"2025-06-01", "2025-06-02", "2025-06-03", "2025-07-01"}
	title := "patched"

	for i := 0; i < 500; i++ {
		snap := s.Snapshot()
		var ids []string
		var idKeys []string
		snap.Each(func(k string, ev model.Event) {
			ids = append(ids, ev.ID)
			idKeys = append(idKeys, k)
		})

		switch op := rnd.Intn(4); {
		case op == 0 || len(ids) == 0:
			if _, err := s.Add(day(t, keys[rnd.Intn(len(keys))]), model.Draft{Title: fmt.Sprintf("e%d", i)}); err != nil {
				t.Fatalf("add: %v", err)
			}
		case op == 1:
			j := rnd.Intn(len(ids))
			if _, err := s.Update(idKeys[j], ids[j], model.Patch{Title: &title}); err != nil {
				t.Fatalf("update: %v", err)
			}
		case op == 2:
			j := rnd.Intn(len(ids))
			if _, err := s.Delete(idKeys[j], ids[j]); err != nil {
				t.Fatalf("delete: %v", err)
			}
		default:
			j := rnd.Intn(len(ids))
			if _, err := s.Move(ids[j], idKeys[j], keys[rnd.Intn(len(keys))]); err != nil {
				t.Fatalf("move: %v", err)
			}
		}
		assertInvariants(t, s)
	}
}
