package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskhive.org/internal/audit"
	"taskhive.org/internal/auth"
	"taskhive.org/internal/todo"
)

const dateLayout = "2006-01-02"

type createTodoRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type updateTodoRequest struct {
	Name *string `json:"name"`
	Date *string `json:"date"`
}

type todoPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func presentTodo(t *todo.Todo) todoPayload {
	return todoPayload{
		ID:        t.ID,
		Name:      t.Name,
		Date:      t.Date.Format(dateLayout),
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func parseDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.New("date must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}

// handleTodos serves the /api/todos collection.
func (a *API) handleTodos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTodos(w, r)
	case http.MethodPost:
		a.createTodo(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTodoByID serves /api/todos/{id}.
func (a *API) handleTodoByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/todos/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.showTodo(w, r, id)
	case http.MethodPut:
		a.updateTodo(w, r, id)
	case http.MethodDelete:
		a.deleteTodo(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := a.todos.List(r.Context())
	if err != nil {
		handleTodoError(w, r, err)
		return
	}
	payload := make([]todoPayload, 0, len(todos))
	for _, t := range todos {
		payload = append(payload, presentTodo(t))
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"todos": payload})
}

func (a *API) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	created, err := a.todos.Create(r.Context(), identity.ID, req.Name, date)
	if err != nil {
		handleTodoError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.created", map[string]any{"todo_id": created.ID})
	writeSuccess(w, http.StatusCreated, "Todo created successfully", map[string]any{
		"todo": presentTodo(created),
	})
}

func (a *API) showTodo(w http.ResponseWriter, r *http.Request, id string) {
	t, err := a.todos.Get(r.Context(), id)
	if err != nil {
		handleTodoError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"todo": presentTodo(t)})
}

func (a *API) updateTodo(w http.ResponseWriter, r *http.Request, id string) {
	var req updateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := todo.Update{Name: req.Name}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		upd.Date = date
	}
	t, err := a.todos.Update(r.Context(), id, upd)
	if err != nil {
		handleTodoError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.updated", map[string]any{"todo_id": id})
	writeSuccess(w, http.StatusOK, "Todo updated successfully", map[string]any{
		"todo": presentTodo(t),
	})
}

func (a *API) deleteTodo(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.todos.Delete(r.Context(), id); err != nil {
		handleTodoError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.deleted", map[string]any{"todo_id": id})
	writeSuccess(w, http.StatusOK, "Todo deleted successfully", nil)
}

func handleTodoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Todo not found")
	case errors.Is(err, todo.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "Internal error")
	}
}
