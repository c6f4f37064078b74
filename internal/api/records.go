package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/store"
)

// reserved query parameters of the list endpoints; every other parameter is
// a filter criterion.
var listReserved = map[string]bool{"q": true, "search": true, "sort": true, "dir": true, "limit": true, "offset": true}

type listResponse[E any] struct {
	Items    []E    `json:"items"`
	Total    int    `json:"total"`
	Revision uint64 `json:"revision"`
}

type recordRoutes[E store.Entity[E]] struct {
	store    *store.Store[E]
	catalog  *query.Catalog[E]
	validate func(E) error
}

func (rr recordRoutes[E]) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", rr.list)
	r.Post("/", rr.create)
	r.Get("/options/{field}", rr.options)
	r.Get("/{id}", rr.get)
	r.Put("/{id}", rr.update)
	return r
}

func listParams[E any](c *query.Catalog[E], v url.Values) (query.Params, error) {
	p := query.Params{
		Search: v.Get("q"),
		Sort:   query.SortSpec{Key: v.Get("sort"), Direction: query.Direction(v.Get("dir"))},
	}
	if p.Search == "" {
		p.Search = v.Get("search")
	}
	if p.Sort.Key == "" {
		p.Sort = c.DefaultSort
	}
	for key := range v {
		if listReserved[key] {
			continue
		}
		if p.Filter == nil {
			p.Filter = make(map[string]string)
		}
		p.Filter[key] = v.Get(key)
	}
	return p, c.Validate(p)
}

func (rr recordRoutes[E]) list(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(rr.catalog, r.URL.Query())
	if err != nil {
		writeError(w, err, "list")
		return
	}
	snap, err := rr.store.All(r.Context())
	if err != nil {
		writeError(w, err, "list")
		return
	}

	items := query.Run(rr.catalog, snap.Items, p)
	total := len(items)
	offset := min(parseIntParam(r, "offset", 0, 0), total)
	items = items[offset:]
	if limit := parseIntParam(r, "limit", 0, 0); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, listResponse[E]{Items: items, Total: total, Revision: snap.Revision})
}

func (rr recordRoutes[E]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok, err := rr.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "%s %s not found", rr.catalog.Kind, id)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// create validates the draft with defaults applied, so omitted fields are
// fine but invalid ones are not.
func (rr recordRoutes[E]) create(w http.ResponseWriter, r *http.Request) {
	var draft E
	if err := decodeBody(w, r, &draft); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if err := rr.validate(draft.WithDefaults().Normalized()); err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	e, err := rr.store.Add(r.Context(), draft)
	if err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// update merges the body over the stored entity and writes the result back
// as a whole.
func (rr recordRoutes[E]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur, ok, err := rr.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "%s %s not found", rr.catalog.Kind, id)
		return
	}
	if err := decodeBody(w, r, &cur); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	cur = cur.WithID(id)
	if err := rr.validate(cur.Normalized()); err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	e, err := rr.store.Update(r.Context(), cur)
	if err != nil {
		writeError(w, err, string(rr.catalog.Kind))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (rr recordRoutes[E]) options(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	snap, err := rr.store.All(r.Context())
	if err != nil {
		writeError(w, err, "options")
		return
	}
	values, err := query.Distinct(rr.catalog, snap.Items, field)
	if err != nil {
		writeError(w, err, "options")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "values": values})
}

func handleAppendMinute(s *store.Store[record.Meeting]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		m, err := store.AppendMinute(r.Context(), s, chi.URLParam(r, "id"), req.Text)
		if err != nil {
			writeError(w, err, "meeting")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleRemoveMinute(s *store.Store[record.Meeting]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "minute index must be an integer")
			return
		}
		m, err := store.RemoveMinute(r.Context(), s, chi.URLParam(r, "id"), index)
		if err != nil {
			writeError(w, err, "meeting")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// mergeJSON overlays the fields named in patch onto e.
func mergeJSON[E any](e E, patch []byte) (E, error) {
	if err := json.Unmarshal(patch, &e); err != nil {
		return e, err
	}
	return e, nil
}
