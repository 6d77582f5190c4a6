package tasks

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type setFilterRequest struct {
	Filter string `json:"filter"`
}

type viewResponse struct {
	View
	Theme Theme `json:"theme"`
}

type themeResponse struct {
	Theme Theme `json:"theme"`
}

type errResponse struct {
	Error string `json:"error"`
}

func RegisterRoutes(r chi.Router, s *Store) {
	r.Get("/tasks", listTasks(s))
	r.Post("/tasks", createTask(s))
	r.Delete("/tasks", deleteAllTasks(s))
	r.Post("/tasks/{id}/toggle", toggleTask(s))
	r.Delete("/tasks/{id}", deleteTask(s))

	r.Get("/view", showView(s))
	r.Put("/filter", setFilter(s))

	r.Get("/theme", showTheme(s))
	r.Post("/theme/toggle", toggleTheme(s))
}

func listTasks(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Tasks())
	}
}

func showView(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeView(w, http.StatusOK, s)
	}
}

// createTask answers 201 when a task was added and 200 when blank input was
// ignored; both carry the refreshed view.
func createTask(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		_, created, err := s.Add(r.Context(), req.Text, req.Date)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeView(w, status, s)
	}
}

func toggleTask(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}
		if _, err := s.Toggle(r.Context(), id); err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		writeView(w, http.StatusOK, s)
	}
}

func deleteTask(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}
		if _, err := s.Delete(r.Context(), id); err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		writeView(w, http.StatusOK, s)
	}
}

// deleteAllTasks takes its confirmation from ?confirm=true; anything else
// leaves the collection alone.
func deleteAllTasks(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		confirm := ConfirmFunc(func(string) bool { return confirmed })

		if _, err := s.DeleteAll(r.Context(), confirm); err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		writeView(w, http.StatusOK, s)
	}
}

func setFilter(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setFilterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}
		s.SetFilter(req.Filter)
		writeView(w, http.StatusOK, s)
	}
}

func showTheme(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, themeResponse{Theme: s.Theme()})
	}
}

func toggleTheme(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := s.ToggleTheme(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		writeJSON(w, http.StatusOK, themeResponse{Theme: theme})
	}
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_id"})
		return 0, false
	}
	return id, true
}

func writeView(w http.ResponseWriter, status int, s *Store) {
	writeJSON(w, status, viewResponse{View: s.View(), Theme: s.Theme()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
