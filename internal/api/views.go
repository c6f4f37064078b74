package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/portal/internal/listview"
	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
)

// Views holds the open list-view sessions by id.
type Views struct {
	mu       sync.Mutex
	sessions map[string]listview.Session
}

func NewViews() *Views {
	return &Views{sessions: make(map[string]listview.Session)}
}

func (v *Views) add(s listview.Session) string {
	id := uuid.NewString()
	v.mu.Lock()
	v.sessions[id] = s
	v.mu.Unlock()
	return id
}

func (v *Views) get(id string) (listview.Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[id]
	return s, ok
}

func (v *Views) remove(id string) (listview.Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[id]
	delete(v.sessions, id)
	return s, ok
}

func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.sessions)
}

// CloseAll closes every session.
func (v *Views) CloseAll() {
	v.mu.Lock()
	sessions := v.sessions
	v.sessions = make(map[string]listview.Session)
	v.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

type openViewRequest struct {
	Kind     string            `json:"kind"`
	Search   string            `json:"search"`
	Filter   map[string]string `json:"filter"`
	Sort     query.SortSpec    `json:"sort"`
	PageSize int               `json:"page_size"`
}

type patchViewRequest struct {
	Search *string            `json:"search"`
	Filter *map[string]string `json:"filter"`
	Sort   *query.SortSpec    `json:"sort"`
}

type viewResponse struct {
	ID string `json:"id"`
	listview.Page
}

func openView(ctx context.Context, deps Deps, req openViewRequest) (listview.Session, error) {
	kind, err := record.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	opts := listview.Options{
		PageSize:  deps.List.PageSize,
		PageDelay: deps.List.PageDelay,
		Debounce:  deps.List.Debounce,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}
	if req.PageSize > 0 {
		opts.PageSize = req.PageSize
	}
	p := query.Params{Search: req.Search, Filter: req.Filter, Sort: req.Sort}

	switch kind {
	case record.KindMeeting:
		v, err := listview.Meetings(ctx, deps.Meetings, p, deps.List.Dates, opts)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		v, err := listview.Tasks(ctx, deps.Tasks, p, deps.List.Dates, opts)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func handleOpenView(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openViewRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if _, err := record.ParseKind(req.Kind); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		s, err := openView(r.Context(), deps, req)
		if err != nil {
			writeError(w, err, "view")
			return
		}
		id := deps.Views.add(s)
		deps.Logger.Debug("list view opened", "id", id, "kind", s.Kind())
		writeJSON(w, http.StatusCreated, viewResponse{ID: id, Page: s.Page()})
	}
}

// withView resolves {id} or answers 404.
func withView(deps Deps, fn func(w http.ResponseWriter, r *http.Request, id string, s listview.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, ok := deps.Views.get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "view %s not found", id)
			return
		}
		fn(w, r, id, s)
	}
}

func handleGetView(deps Deps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, id string, s listview.Session) {
		writeJSON(w, http.StatusOK, viewResponse{ID: id, Page: s.Page()})
	})
}

func handlePatchView(deps Deps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, id string, s listview.Session) {
		var req patchViewRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		p := s.Page().Params
		if req.Search != nil {
			p.Search = *req.Search
		}
		if req.Filter != nil {
			p.Filter = *req.Filter
		}
		if req.Sort != nil {
			p.Sort = *req.Sort
		}
		if err := s.Apply(p); err != nil {
			writeError(w, err, "view")
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{ID: id, Page: s.Page()})
	})
}

// handleTypeSearch feeds keystrokes; the term is applied once typing settles.
func handleTypeSearch(deps Deps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, id string, s listview.Session) {
		var req struct {
			Term string `json:"term"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		s.SetSearch(req.Term)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})
}

func handleLoadMore(deps Deps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, id string, s listview.Session) {
		page, err := s.LoadMore(r.Context())
		if err != nil {
			writeError(w, err, "load more")
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{ID: id, Page: page})
	})
}

func handleToggleSort(deps Deps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, id string, s listview.Session) {
		page, err := s.ToggleSort(chi.URLParam(r, "key"))
		if err != nil {
			writeError(w, err, "sort")
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{ID: id, Page: page})
	})
}

func handleCloseView(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, ok := deps.Views.remove(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "view %s not found", id)
			return
		}
		s.Close()
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	}
}
