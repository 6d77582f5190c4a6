package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/s1natex/todo-GO/internal/kv"
)

var fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestStore(t *testing.T, backend kv.Store) *Store {
	t.Helper()
	if backend == nil {
		backend = kv.NewMemoryStore()
	}
	s, err := NewStore(context.Background(), backend,
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustAdd(t *testing.T, s *Store, text, date string) Task {
	t.Helper()
	task, ok, err := s.Add(context.Background(), text, date)
	if err != nil || !ok {
		t.Fatalf("add %q: ok=%v err=%v", text, ok, err)
	}
	return task
}

type failingKV struct {
	*kv.MemoryStore
	saveErr error
	loadErr error
}

func (f *failingKV) Load(ctx context.Context, key string) (string, bool, error) {
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	return f.MemoryStore.Load(ctx, key)
}

func (f *failingKV) Save(ctx context.Context, key, value string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, key, value)
}

func TestNewStore_NoBackend(t *testing.T) {
	if _, err := NewStore(context.Background(), nil); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestNewStore_BackendLoadError(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := NewStore(context.Background(), &failingKV{loadErr: boom}, WithLogger(quietLogger()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestAdd_AppendsPendingTask(t *testing.T) {
	s := newTestStore(t, nil)

	for i, text := range []string{"a", "b", "c"} {
		before := len(s.Tasks())
		task := mustAdd(t, s, text, "2024-01-01")
		if got := len(s.Tasks()); got != before+1 {
			t.Fatalf("add %d: size %d -> %d", i, before, got)
		}
		if task.Completed {
			t.Fatalf("new task should be pending: %+v", task)
		}
	}

	got := s.Tasks()
	if got[0].Text != "a" || got[2].Text != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestAdd_TrimsText(t *testing.T) {
	s := newTestStore(t, nil)
	task := mustAdd(t, s, "  Buy milk \n", "2024-01-01")
	if task.Text != "Buy milk" {
		t.Fatalf("expected trimmed text, got %q", task.Text)
	}
}

func TestAdd_BlankInputIsIgnored(t *testing.T) {
	backend := kv.NewMemoryStore()
	s := newTestStore(t, backend)
	mustAdd(t, s, "keep", "2024-01-01")
	before, _, _ := backend.Load(context.Background(), tasksKey)

	cases := []struct{ text, date string }{
		{"", "2024-01-01"},
		{"   ", "2024-01-01"},
		{"Buy milk", ""},
		{"", ""},
	}
	for _, c := range cases {
		task, ok, err := s.Add(context.Background(), c.text, c.date)
		if err != nil || ok || task != (Task{}) {
			t.Fatalf("add(%q,%q): task=%+v ok=%v err=%v", c.text, c.date, task, ok, err)
		}
	}

	if got := len(s.Tasks()); got != 1 {
		t.Fatalf("expected collection unchanged, got %d tasks", got)
	}
	after, _, _ := backend.Load(context.Background(), tasksKey)
	if before != after {
		t.Fatalf("persisted state changed: %q -> %q", before, after)
	}
}

func TestAdd_IDsAreUniqueWithinOneTick(t *testing.T) {
	s := newTestStore(t, nil)
	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 50; i++ {
		task := mustAdd(t, s, "t", "2024-01-01")
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		if task.ID <= last {
			t.Fatalf("ids not increasing: %d after %d", task.ID, last)
		}
		seen[task.ID] = true
		last = task.ID
	}
	if first := fixedNow.UnixMilli(); !seen[first] {
		t.Fatalf("expected first id to be the clock value %d", first)
	}
}

func TestAdd_IDsContinuePastLoadedState(t *testing.T) {
	backend := kv.NewMemoryStore()
	future := fixedNow.Add(time.Hour).UnixMilli()
	raw, _ := Encode([]Task{{ID: future, Text: "later", Date: "2024-01-02"}})
	_ = backend.Save(context.Background(), tasksKey, raw)

	s := newTestStore(t, backend)
	task := mustAdd(t, s, "now", "2024-01-01")
	if task.ID != future+1 {
		t.Fatalf("expected id %d, got %d", future+1, task.ID)
	}
}

func TestToggle_IsItsOwnInverse(t *testing.T) {
	s := newTestStore(t, nil)
	task := mustAdd(t, s, "Buy milk", "2024-01-01")

	for _, want := range []bool{true, false} {
		ok, err := s.Toggle(context.Background(), task.ID)
		if err != nil || !ok {
			t.Fatalf("toggle: ok=%v err=%v", ok, err)
		}
		if got := s.Tasks()[0].Completed; got != want {
			t.Fatalf("expected completed=%v, got %v", want, got)
		}
	}
}

func TestToggle_UnknownID(t *testing.T) {
	s := newTestStore(t, nil)
	mustAdd(t, s, "Buy milk", "2024-01-01")

	ok, err := s.Toggle(context.Background(), 42)
	if err != nil || ok {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	if s.Tasks()[0].Completed {
		t.Fatalf("task should be untouched")
	}
}

func TestDelete_RemovesOnlyMatchingTask(t *testing.T) {
	s := newTestStore(t, nil)
	a := mustAdd(t, s, "a", "2024-01-01")
	b := mustAdd(t, s, "b", "2024-01-01")
	c := mustAdd(t, s, "c", "2024-01-01")
	d := mustAdd(t, s, "d", "2024-01-01")

	ok, err := s.Delete(context.Background(), b.ID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}

	got := s.Tasks()
	want := []int64{a.ID, c.ID, d.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, want[i], got[i].ID)
		}
	}

	if ok, _ := s.Delete(context.Background(), b.ID); ok {
		t.Fatalf("second delete of the same id should be a no-op")
	}
	if len(s.Tasks()) != 3 {
		t.Fatalf("no-op delete changed the collection")
	}
}

func TestDelete_ResolvesByIDAfterFiltering(t *testing.T) {
	s := newTestStore(t, nil)
	a := mustAdd(t, s, "a", "2024-01-01")
	b := mustAdd(t, s, "b", "2024-01-01")
	if _, err := s.Toggle(context.Background(), a.ID); err != nil {
		t.Fatal(err)
	}

	s.SetFilter("pending")
	shown := s.Filtered()
	if len(shown) != 1 || shown[0].ID != b.ID {
		t.Fatalf("unexpected pending view: %+v", shown)
	}
	if _, err := s.Delete(context.Background(), shown[0].ID); err != nil {
		t.Fatal(err)
	}

	left := s.Tasks()
	if len(left) != 1 || left[0].ID != a.ID {
		t.Fatalf("wrong task deleted: %+v", left)
	}
}

func TestDeleteAll_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := newTestStore(t, backend)
	mustAdd(t, s, "a", "2024-01-01")
	mustAdd(t, s, "b", "2024-01-02")

	var prompt string
	declined := ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	})
	if ok, err := s.DeleteAll(ctx, declined); ok || err != nil {
		t.Fatalf("declined: ok=%v err=%v", ok, err)
	}
	if prompt != DeleteAllPrompt {
		t.Fatalf("unexpected prompt %q", prompt)
	}
	if ok, _ := s.DeleteAll(ctx, nil); ok {
		t.Fatalf("nil confirmer must not delete")
	}
	if len(s.Tasks()) != 2 {
		t.Fatalf("collection changed without confirmation")
	}

	confirmed := ConfirmFunc(func(string) bool { return true })
	if ok, err := s.DeleteAll(ctx, confirmed); !ok || err != nil {
		t.Fatalf("confirmed: ok=%v err=%v", ok, err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("expected empty collection")
	}
	raw, ok, _ := backend.Load(ctx, tasksKey)
	if !ok || raw != "[]" {
		t.Fatalf("expected persisted empty array, got %q ok=%v", raw, ok)
	}
}

func TestSetFilter(t *testing.T) {
	s := newTestStore(t, nil)
	if s.Filter() != FilterAll {
		t.Fatalf("filter should start at all")
	}
	cases := map[string]Filter{
		"pending":   FilterPending,
		"completed": FilterCompleted,
		"all":       FilterAll,
		"archived":  FilterAll,
		"":          FilterAll,
	}
	for in, want := range cases {
		if got := s.SetFilter(in); got != want || s.Filter() != want {
			t.Fatalf("SetFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilter_IsNotPersisted(t *testing.T) {
	backend := kv.NewMemoryStore()
	s := newTestStore(t, backend)
	mustAdd(t, s, "a", "2024-01-01")
	s.SetFilter("completed")

	reloaded := newTestStore(t, backend)
	if reloaded.Filter() != FilterAll {
		t.Fatalf("filter should reset to all on reload, got %q", reloaded.Filter())
	}
}

func TestFilterTasks_PartitionsCollection(t *testing.T) {
	tasks := []Task{
		{ID: 1, Text: "a", Date: "2024-01-01"},
		{ID: 2, Text: "b", Date: "2024-01-01", Completed: true},
		{ID: 3, Text: "c", Date: "2024-01-01"},
		{ID: 4, Text: "d", Date: "2024-01-01", Completed: true},
	}

	pending := FilterTasks(tasks, FilterPending)
	completed := FilterTasks(tasks, FilterCompleted)
	all := FilterTasks(tasks, FilterAll)

	if len(pending)+len(completed) != len(tasks) || len(all) != len(tasks) {
		t.Fatalf("sizes: pending=%d completed=%d all=%d", len(pending), len(completed), len(all))
	}
	seen := make(map[int64]int)
	for _, task := range append(pending, completed...) {
		seen[task.ID]++
	}
	for _, task := range tasks {
		if seen[task.ID] != 1 {
			t.Fatalf("task %d appears %d times across pending and completed", task.ID, seen[task.ID])
		}
	}
	if pending[0].ID != 1 || pending[1].ID != 3 || completed[0].ID != 2 || completed[1].ID != 4 {
		t.Fatalf("order not preserved: pending=%+v completed=%+v", pending, completed)
	}

	all[0].Text = "changed"
	if tasks[0].Text != "a" {
		t.Fatalf("projection must not alias the source")
	}
}

func TestScenario_BuyMilkCallBob(t *testing.T) {
	s := newTestStore(t, nil)
	milk := mustAdd(t, s, "Buy milk", "2024-01-01")
	mustAdd(t, s, "Call Bob", "2024-01-02")
	if _, err := s.Toggle(context.Background(), milk.ID); err != nil {
		t.Fatal(err)
	}

	pending := FilterTasks(s.Tasks(), FilterPending)
	if len(pending) != 1 || pending[0].Text != "Call Bob" || pending[0].Date != "2024-01-02" {
		t.Fatalf("pending: %+v", pending)
	}
	completed := FilterTasks(s.Tasks(), FilterCompleted)
	if len(completed) != 1 || completed[0].Text != "Buy milk" || !completed[0].Completed {
		t.Fatalf("completed: %+v", completed)
	}
}

func TestReload_RestoresCollectionAndTheme(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := newTestStore(t, backend)
	a := mustAdd(t, s, "a", "2024-01-01")
	mustAdd(t, s, "b", "2024-01-02")
	if _, err := s.Toggle(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleTheme(ctx); err != nil {
		t.Fatal(err)
	}

	reloaded := newTestStore(t, backend)
	want, got := s.Tasks(), reloaded.Tasks()
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("task %d: want %+v, got %+v", i, want[i], got[i])
		}
	}
	if reloaded.Theme() != ThemeLight {
		t.Fatalf("expected light theme after reload, got %q", reloaded.Theme())
	}
}

func TestReload_MalformedStateFallsBack(t *testing.T) {
	cases := map[string]string{
		"object":        `{"en":1}`,
		"null":          `null`,
		"garbage":       `not json`,
		"missing field": `[{"en":1,"text":"a","date":"2024-01-01"}]`,
		"wrong type":    `[{"en":"1","text":"a","date":"2024-01-01","completed":false}]`,
		"duplicate ids": `[{"en":1,"text":"a","date":"2024-01-01","completed":false},{"en":1,"text":"b","date":"2024-01-01","completed":true}]`,
		"null item":     `[null]`,
		"blank text":    `[{"en":1,"text":" ","date":"2024-01-01","completed":false}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			backend := kv.NewMemoryStore()
			_ = backend.Save(context.Background(), tasksKey, raw)
			_ = backend.Save(context.Background(), themeKey, "sepia")

			s := newTestStore(t, backend)
			if got := s.Tasks(); len(got) != 0 {
				t.Fatalf("expected empty collection, got %+v", got)
			}
			if s.Theme() != ThemeDark {
				t.Fatalf("expected dark theme, got %q", s.Theme())
			}
			mustAdd(t, s, "fresh", "2024-01-01")
		})
	}
}

func TestTheme_DefaultsAndToggles(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := newTestStore(t, backend)
	if s.Theme() != ThemeDark {
		t.Fatalf("expected dark default, got %q", s.Theme())
	}

	if th, err := s.ToggleTheme(ctx); err != nil || th != ThemeLight {
		t.Fatalf("toggle: %q %v", th, err)
	}
	if raw, _, _ := backend.Load(ctx, themeKey); raw != "light" {
		t.Fatalf("expected persisted light, got %q", raw)
	}
	if th, _ := s.ToggleTheme(ctx); th != ThemeDark {
		t.Fatalf("expected dark after second toggle, got %q", th)
	}
	if _, ok, _ := backend.Load(ctx, tasksKey); ok {
		t.Fatalf("theme toggle must not write tasks")
	}
}

func TestPersistFailure_IsReported(t *testing.T) {
	backend := &failingKV{MemoryStore: kv.NewMemoryStore()}
	s := newTestStore(t, backend)
	backend.saveErr = errors.New("read-only")

	_, ok, err := s.Add(context.Background(), "a", "2024-01-01")
	if !ok || !errors.Is(err, backend.saveErr) {
		t.Fatalf("expected applied add with persist error, got ok=%v err=%v", ok, err)
	}
	if len(s.Tasks()) != 1 {
		t.Fatalf("in-memory change should be kept")
	}
	if _, err := s.ToggleTheme(context.Background()); !errors.Is(err, backend.saveErr) {
		t.Fatalf("expected theme persist error, got %v", err)
	}
}

func TestMetrics_TrackCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a := mustAdd(t, s, "a", "2024-01-01")
	mustAdd(t, s, "b", "2024-01-01")
	if _, err := s.Toggle(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(tasksCurrent.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed gauge = %v", got)
	}
	if got := testutil.ToFloat64(tasksCurrent.WithLabelValues("pending")); got != 1 {
		t.Fatalf("pending gauge = %v", got)
	}

	before := testutil.ToFloat64(taskOperationsTotal.WithLabelValues("toggle", resultNotFound))
	_, _ = s.Toggle(ctx, -1)
	after := testutil.ToFloat64(taskOperationsTotal.WithLabelValues("toggle", resultNotFound))
	if after != before+1 {
		t.Fatalf("not_found counter: %v -> %v", before, after)
	}
}
