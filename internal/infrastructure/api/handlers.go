package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"glance/internal/application"
	"glance/internal/domain"
	"glance/internal/infrastructure/pubsub"
	"glance/internal/infrastructure/repository/entity"
	"glance/internal/infrastructure/tabs"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TabMirror is the part of the tab mirror the extension feeds
type TabMirror interface {
	Apply(event domain.TabEvent) error
	Replace(tabs []domain.Tab)
	DrainCommands() []tabs.Command
}

// Handler serves the sidebar REST API
type Handler struct {
	state    *application.Coordinator
	widgets  *application.WidgetService
	accounts *application.AccountService
	prs      *application.PullRequestService
	tabs     *application.TabGroupService
	mirror   TabMirror
	events   *pubsub.StatePubSub
	logger   zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	state *application.Coordinator,
	widgets *application.WidgetService,
	accounts *application.AccountService,
	prs *application.PullRequestService,
	tabGroups *application.TabGroupService,
	mirror TabMirror,
	events *pubsub.StatePubSub,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		state:    state,
		widgets:  widgets,
		accounts: accounts,
		prs:      prs,
		tabs:     tabGroups,
		mirror:   mirror,
		events:   events,
		logger:   logger,
	}
}

// Routes mounts every endpoint on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/gallery", h.gallery)

	r.Route("/widgets", func(r chi.Router) {
		r.Get("/", h.listWidgets)
		r.Post("/", h.createWidget)
		r.Post("/reorder", h.reorderWidgets)
		r.Post("/refresh", h.refreshAll)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getWidget)
			r.Patch("/", h.patchWidget)
			r.Delete("/", h.deleteWidget)
			r.Post("/collapse", h.toggleCollapse)
			r.Post("/refresh", h.refreshWidget)
			r.Get("/data", h.widgetData)
			r.Get("/view", h.widgetView)
		})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.Post("/", h.createAccount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getAccount)
			r.Put("/", h.editAccount)
			r.Patch("/", h.patchAccount)
			r.Delete("/", h.deleteAccount)
			r.Post("/revalidate", h.revalidateAccount)
		})
	})

	r.Get("/ui", h.getUI)
	r.Patch("/ui", h.patchUI)

	r.Route("/tabs", func(r chi.Router) {
		r.Get("/groups", h.tabGroups)
		r.Put("/", h.replaceTabs)
		r.Post("/events", h.tabEvent)
		r.Get("/commands", h.tabCommands)
		r.Post("/open", h.openTab)
		r.Post("/{tabId}/activate", h.activateTab)
		r.Delete("/{tabId}", h.closeTab)
	})

	r.Get("/events", h.streamEvents)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if ve, ok := domain.IsValidationError(err); ok {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      ve.Error(),
			Reason:     string(ve.Reason),
			StatusCode: ve.StatusCode,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownWidgetType),
		errors.Is(err, domain.ErrUnknownIntegrationType),
		errors.Is(err, domain.ErrSettingsMismatch),
		errors.Is(err, domain.ErrInvalidWidget),
		errors.Is(err, domain.ErrInvalidIntegration):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (h *Handler) gallery(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.widgets.Gallery())
}

func (h *Handler) writeWidget(w http.ResponseWriter, status int, widget domain.Widget) {
	doc, err := entity.WidgetDocFromDomain(widget)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, status, doc)
}

func (h *Handler) writeWidgets(w http.ResponseWriter, widgets []domain.Widget) {
	docs := make([]entity.WidgetDoc, 0, len(widgets))
	for _, widget := range widgets {
		doc, err := entity.WidgetDocFromDomain(widget)
		if err != nil {
			h.writeError(w, err)
			return
		}
		docs = append(docs, doc)
	}
	h.writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("visible") == "true" {
		h.writeWidgets(w, h.widgets.Visible())
		return
	}
	h.writeWidgets(w, h.state.Widgets())
}

func (h *Handler) createWidget(w http.ResponseWriter, r *http.Request) {
	var req createWidgetRequest
	if !h.decode(w, r, &req) {
		return
	}
	widget, err := h.widgets.AddWidget(r.Context(), req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeWidget(w, http.StatusCreated, widget)
}

func (h *Handler) getWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widget, ok := h.state.Widget(id)
	if !ok {
		h.writeError(w, fmt.Errorf("widget %s: %w", id, domain.ErrNotFound))
		return
	}
	h.writeWidget(w, http.StatusOK, widget)
}

func (h *Handler) patchWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widget, ok := h.state.Widget(id)
	if !ok {
		h.writeError(w, fmt.Errorf("widget %s: %w", id, domain.ErrNotFound))
		return
	}
	var req widgetPatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	patch := domain.WidgetPatch{
		Name:      req.Name,
		Position:  req.Position,
		Size:      req.Size,
		Enabled:   req.Enabled,
		Collapsed: req.Collapsed,
	}
	if len(req.Settings) > 0 {
		settings, err := entity.DecodeSettings(widget.Type, req.Settings)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		patch.Settings = settings
	}

	updated, err := domain.ApplyWidgetPatch(widget, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.state.UpdateWidget(r.Context(), id, patch); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeWidget(w, http.StatusOK, updated)
}

func (h *Handler) deleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := h.widgets.DeleteWidget(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorderWidgets(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	// The store drops widgets left out of the order, so a partial list is refused here
	if missing := missingWidgetIDs(h.state.Widgets(), req.IDs); len(missing) > 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("order must list every widget, missing %s", strings.Join(missing, ", ")),
		})
		return
	}
	if err := h.widgets.Reorder(r.Context(), req.IDs); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeWidgets(w, h.state.Widgets())
}

func missingWidgetIDs(widgets []domain.Widget, ids []string) []string {
	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}
	var missing []string
	for _, w := range widgets {
		if !listed[w.ID] {
			missing = append(missing, w.ID)
		}
	}
	return missing
}

func (h *Handler) toggleCollapse(w http.ResponseWriter, r *http.Request) {
	widget, err := h.widgets.ToggleCollapse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeWidget(w, http.StatusOK, widget)
}

func (h *Handler) refreshWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Fetch failures are part of the view, not of the response status
	if err := h.prs.Refresh(r.Context(), id); err != nil {
		if _, ok := domain.IsValidationError(err); !ok {
			h.writeError(w, err)
			return
		}
	}
	h.widgetView(w, r)
}

func (h *Handler) refreshAll(w http.ResponseWriter, r *http.Request) {
	if err := h.prs.RefreshAll(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) widgetData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.state.Widget(id); !ok {
		h.writeError(w, fmt.Errorf("widget %s: %w", id, domain.ErrNotFound))
		return
	}
	data, _ := h.state.WidgetData(id)
	h.writeJSON(w, http.StatusOK, data)
}

func (h *Handler) widgetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.prs.View(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	list := h.accounts.List()
	out := make([]accountResponse, 0, len(list))
	for _, i := range list {
		out = append(out, toAccountResponse(i))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, ok := h.state.Integration(id)
	if !ok {
		h.writeError(w, fmt.Errorf("integration %s: %w", id, domain.ErrNotFound))
		return
	}
	h.writeJSON(w, http.StatusOK, toAccountResponse(i))
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !h.decode(w, r, &req) {
		return
	}
	acct, err := h.accounts.AddGitHubAccount(r.Context(), application.GitHubAccountInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (h *Handler) editAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !h.decode(w, r, &req) {
		return
	}
	acct, err := h.accounts.EditGitHubAccount(r.Context(), chi.URLParam(r, "id"), application.GitHubAccountInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) patchAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req accountPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Enabled != nil {
		if err := h.accounts.SetEnabled(r.Context(), id, *req.Enabled); err != nil {
			h.writeError(w, err)
			return
		}
	}
	h.getAccount(w, r)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revalidateAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.RevalidateAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if _, ok := domain.IsValidationError(err); !ok {
			h.writeError(w, err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) getUI(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.state.UIState())
}

func (h *Handler) patchUI(w http.ResponseWriter, r *http.Request) {
	var req uiPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SettingsTab != nil {
		if err := h.state.SetSettingsTab(*req.SettingsTab); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.EditMode != nil {
		h.state.SetEditMode(*req.EditMode)
	}
	if req.SettingsOpen != nil {
		h.state.SetSettingsOpen(*req.SettingsOpen)
	}
	h.writeJSON(w, http.StatusOK, h.state.UIState())
}

func (h *Handler) tabGroups(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tabs.Groups())
}

func (h *Handler) replaceTabs(w http.ResponseWriter, r *http.Request) {
	var req tabSnapshotRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mirror.Replace(req.Tabs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tabEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.TabEvent
	if !h.decode(w, r, &ev) {
		return
	}
	if err := h.mirror.Apply(ev); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tabCommands(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.mirror.DrainCommands())
}

func (h *Handler) openTab(w http.ResponseWriter, r *http.Request) {
	var req openTabRequest
	if !h.decode(w, r, &req) {
		return
	}
	tab, err := h.tabs.Open(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, tab)
}

func tabID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "tabId"))
	if err != nil {
		return 0, domain.NewInputError("tab id must be an integer")
	}
	return id, nil
}

func (h *Handler) activateTab(w http.ResponseWriter, r *http.Request) {
	id, err := tabID(r)
	if err == nil {
		err = h.tabs.Activate(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) closeTab(w http.ResponseWriter, r *http.Request) {
	id, err := tabID(r)
	if err == nil {
		err = h.tabs.Close(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// streamEvents relays coordinator state events as server-sent events
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := h.events.Subscribe(r.Context(), pubsub.StateEventFilter{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range sub.Events {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
			h.events.Unsubscribe(sub.ID)
			return
		}
		flusher.Flush()
	}
}
