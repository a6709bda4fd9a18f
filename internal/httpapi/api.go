// Package httpapi is the HTTP layer: routing, pipeline gates and handlers.
package httpapi

import (
	"net/http"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/obs"
	"taskhive.org/internal/todo"
)

// API wires services to routes. Protected routes are declared through gate
// groups; a group's effective gate list is the concatenation of every
// enclosing group's gates plus its own, outer-to-inner.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	todos      *todo.Service
	readyProbe ReadyProbe
	version    string
	rateBurst  int
	ratePerSec int
}

func New(authSvc *auth.Service, todoSvc *todo.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		todos:      todoSvc,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// ops endpoints
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.HandleFunc("/openapi.yaml", a.handleOpenAPISpec)
	a.mux.Handle("/metrics", obs.Handler())

	root := newGroup(a.mux)

	// public
	root.Handle("/api/register", a.handleRegister)
	root.Handle("/api/login", a.handleLogin)

	// authentication required
	authed := root.Group(a.Authenticate())
	authed.Handle("/api/me", a.handleMe)
	authed.Handle("/api/refresh", a.handleRefresh)
	authed.Handle("/api/logout", a.handleLogout)
	authed.Handle("/api/profile", a.handleProfile)
	authed.Handle("/api/password", a.handlePassword)
	authed.Handle("/api/dashboard", a.handleDashboard)

	// role-guarded groups; repeating the authentication stage is harmless
	staff := authed.Group(a.RequireRole(auth.AnyOf(auth.RoleAdmin, auth.RoleModerator)))
	staff.Handle("/api/todos", a.handleTodos)
	staff.Handle("/api/todos/", a.handleTodoByID)

	authed.Group(a.RequireRole(auth.AnyOf(auth.RoleModerator))).
		Handle("/api/moderator", a.handleModeratorArea)
	authed.Group(a.RequireRole(auth.AnyOf(auth.RoleUser))).
		Handle("/api/user", a.handleUserArea)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the server handler with the ambient middleware applied.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = Chain(h, RequestID, LoggingJSON, SecurityHeaders)
	return obs.Instrument(h)
}
