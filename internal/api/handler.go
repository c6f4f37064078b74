package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kalambet/portal/internal/metrics"
	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/store"
	"github.com/kalambet/portal/internal/viewmodel"
)

// ListSettings configures the list views opened through /views.
type ListSettings struct {
	PageSize  int
	PageDelay time.Duration
	Debounce  time.Duration
	Dates     viewmodel.DateFormat
}

type Deps struct {
	Tasks    *store.Store[record.Task]
	Meetings *store.Store[record.Meeting]
	Views    *Views
	List     ListSettings
	Token    string
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // optional; serves /metrics when set
	Logger   *slog.Logger
}

// NewHandler returns the portal HTTP API. /health and /metrics are open;
// everything else requires the bearer token when one is configured.
func NewHandler(deps Deps) http.Handler {
	if deps.Views == nil {
		deps.Views = NewViews()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Mount("/tasks", recordRoutes[record.Task]{
			store:    deps.Tasks,
			catalog:  query.TaskCatalog(),
			validate: record.ValidateTask,
		}.routes())

		meetings := recordRoutes[record.Meeting]{
			store:    deps.Meetings,
			catalog:  query.MeetingCatalog(),
			validate: record.ValidateMeeting,
		}.routes()
		meetings.Post("/{id}/minutes", handleAppendMinute(deps.Meetings))
		meetings.Delete("/{id}/minutes/{index}", handleRemoveMinute(deps.Meetings))
		r.Mount("/meetings", meetings)

		r.Post("/views", handleOpenView(deps))
		r.Get("/views/{id}", handleGetView(deps))
		r.Patch("/views/{id}", handlePatchView(deps))
		r.Put("/views/{id}/search", handleTypeSearch(deps))
		r.Post("/views/{id}/more", handleLoadMore(deps))
		r.Post("/views/{id}/sort/{key}", handleToggleSort(deps))
		r.Delete("/views/{id}", handleCloseView(deps))
	})

	return r
}
