package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/s1natex/todo-GO/internal/kv"
)

const (
	tasksKey = "tasks"
	themeKey = "theme"

	DeleteAllPrompt = "Are you sure you want to delete all tasks?"
)

var ErrNoBackend = errors.New("tasks: no storage backend")

// Confirmer gates destructive commands.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.ids.now = now }
}

// Store owns one session's task collection, filter and theme. Each command
// runs to completion (mutate, persist) under mu before the next starts.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	logger *slog.Logger
	ids    idSource

	tasks  []Task
	filter Filter
	theme  Theme
}

// NewStore loads the persisted collection and theme from backend. Malformed
// task data or an unknown theme fall back to an empty collection and the
// dark theme; backend read failures are returned.
func NewStore(ctx context.Context, backend kv.Store, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	s := &Store{
		kv:     backend,
		logger: slog.Default(),
		ids:    idSource{now: time.Now},
		tasks:  []Task{},
		filter: FilterAll,
		theme:  ThemeDark,
	}
	for _, o := range opts {
		o(s)
	}

	raw, ok, err := backend.Load(ctx, tasksKey)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if ok {
		loaded, err := Decode(raw)
		if err != nil {
			s.logger.Warn("tasks_malformed_state", slog.String("error", err.Error()))
		} else {
			s.tasks = loaded
		}
	}
	for _, t := range s.tasks {
		s.ids.observe(t.ID)
	}

	rawTheme, ok, err := backend.Load(ctx, themeKey)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	if ok {
		theme, valid := ParseTheme(rawTheme)
		if !valid {
			s.logger.Warn("tasks_malformed_theme", slog.String("theme", rawTheme))
		}
		s.theme = theme
	}

	recordCounts(s.tasks)
	return s, nil
}

// Add appends a pending task. Blank text or date is silently rejected and
// reported as false.
func (s *Store) Add(ctx context.Context, text, date string) (Task, bool, error) {
	text = strings.TrimSpace(text)
	date = strings.TrimSpace(date)
	if text == "" || date == "" {
		observeOp("add", resultRejected)
		return Task{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:   s.ids.next(),
		Text: text,
		Date: date,
	}
	s.tasks = append(s.tasks, t)
	return t, true, s.persist(ctx, "add")
}

func (s *Store) Toggle(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		observeOp("toggle", resultNotFound)
		return false, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return true, s.persist(ctx, "toggle")
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		observeOp("delete", resultNotFound)
		return false, nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return true, s.persist(ctx, "delete")
}

// DeleteAll empties the collection once c confirms DeleteAllPrompt.
// A nil confirmer never confirms.
func (s *Store) DeleteAll(ctx context.Context, c Confirmer) (bool, error) {
	if c == nil || !c.Confirm(DeleteAllPrompt) {
		observeOp("delete_all", resultDeclined)
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = []Task{}
	return true, s.persist(ctx, "delete_all")
}

// SetFilter changes the session filter; it is never persisted.
func (s *Store) SetFilter(v string) Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = ParseFilter(v)
	return s.filter
}

func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Tasks returns a copy of the full collection in add order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Filtered() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterTasks(s.tasks, s.filter)
}

// View renders the collection through the current filter.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(FilterTasks(s.tasks, s.filter), s.filter)
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) ToggleTheme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = s.theme.Toggle()
	if err := s.kv.Save(ctx, themeKey, string(s.theme)); err != nil {
		observeOp("toggle_theme", resultError)
		s.logger.Error("theme_persist_failed", slog.String("error", err.Error()))
		return s.theme, fmt.Errorf("persist theme: %w", err)
	}
	observeOp("toggle_theme", resultApplied)
	return s.theme, nil
}

// FilterTasks is an order-preserving projection of tasks; the input is not
// modified and the result never aliases it.
func FilterTasks(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// persist overwrites the stored collection. Callers hold mu. On failure the
// in-memory change is kept and the error is returned to the caller.
func (s *Store) persist(ctx context.Context, op string) error {
	recordCounts(s.tasks)

	raw, err := Encode(s.tasks)
	if err == nil {
		err = s.kv.Save(ctx, tasksKey, raw)
	}
	if err != nil {
		observeOp(op, resultError)
		s.logger.Error("tasks_persist_failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("persist tasks: %w", err)
	}

	observeOp(op, resultApplied)
	s.logger.Debug("tasks_persisted",
		slog.String("op", op),
		slog.Int("count", len(s.tasks)),
	)
	return nil
}
