package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	"finboard/internal/dashboard"
)

type indexView struct {
	ActiveTab     dashboard.Tab
	Today         string
	AnalyticsFrom string
	AnalyticsTo   string
	Items         *itemsView
	Analytics     *analyticsView
	Flash         string
}

// handleIndex renders the full page. The items list is always fetched for
// the first paint; the analytics summary is fetched alongside it when the
// analytics tab is active, over its default 30-day range.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Lock()
	defer sess.Unlock()

	if tab := r.URL.Query().Get("tab"); tab != "" {
		sess.State.SwitchTab(dashboard.Tab(tab))
	}

	view := indexView{
		ActiveTab:     sess.State.ActiveTab,
		Today:         dashboard.Today(),
		AnalyticsFrom: dashboard.DaysAgo(30),
		AnalyticsTo:   dashboard.Today(),
	}

	listFilter := sess.State.ListFilter("", "", "", "")
	var (
		items     []core.Item
		analytics *core.AnalyticsResult
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		fetched, err := s.backend.ListItems(ctx, listFilter)
		if err != nil {
			return err
		}
		items = fetched
		return nil
	})
	if view.ActiveTab == dashboard.TabAnalytics {
		query := core.AnalyticsQuery{From: view.AnalyticsFrom, To: view.AnalyticsTo}
		g.Go(func() error {
			res, err := s.backend.Analytics(ctx, query)
			if err != nil {
				return err
			}
			analytics = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logError(r.Context(), "Initial page fetch failed", err)
		view.Flash = err.Error()
	}

	sess.State.CacheItems(items)
	view.Items = &itemsView{
		Items: items,
		Sort:  sess.State.CurrentSort,
		Order: sess.State.CurrentOrder,
	}
	if analytics != nil {
		av := newAnalyticsView(*analytics)
		view.Analytics = &av
	}

	body, err := s.render("index.html", view)
	if err != nil {
		logError(r.Context(), "Index template execution failed", err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleListItems renders the items table partial. A sort query parameter is
// a column-header click and mutates the session sort state before the fetch;
// filter fields ride along on every request. On backend failure only a toast
// goes out, leaving the previously rendered table untouched.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Lock()
	defer sess.Unlock()

	q := r.URL.Query()
	if sort := q.Get("sort"); sort != "" {
		sess.State.SortBy(sort)
	}
	filters := filtersFromValues(q)
	filter := sess.State.ListFilter(filters.From, filters.To, filters.Category, filters.Type)

	items, err := s.backend.ListItems(r.Context(), filter)
	if err != nil {
		logError(r.Context(), "List items failed", err, "sort_by", filter.SortBy, "order", filter.Order)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}
	sess.State.CacheItems(items)

	body, err := s.render("items_table.html", itemsView{
		Items:   items,
		Sort:    sess.State.CurrentSort,
		Order:   sess.State.CurrentOrder,
		Filters: filters,
	})
	if err != nil {
		logError(r.Context(), "Items template execution failed", err, "template", "items_table.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	newUIResponse().Body(body).Write(w)
}

// handleCreateItem validates the create form before any backend call: a bad
// form costs a toast and nothing else. A backend failure keeps the form
// populated for correction; success resets it and reloads the list.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		newUIResponse().Status(http.StatusBadRequest).Toast(toastError, "invalid form submission").Write(w)
		return
	}

	form := dashboard.ParseItemForm(r.PostForm)
	item, err := form.ValidatedItem()
	if err != nil {
		newUIResponse().Status(http.StatusUnprocessableEntity).Toast(toastError, err.Error()).Write(w)
		return
	}

	created, err := s.backend.CreateItem(r.Context(), item)
	if err != nil {
		logError(r.Context(), "Create item failed", err, "category", item.Category)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Item created",
		"item_id", created.ID,
		"item_type", created.Type,
		"category", created.Category)
	newUIResponse().
		Toast(toastSuccess, "Item created").
		ResetForm().
		ReloadItems().
		Write(w)
}

// handleOpenEdit fetches the item by id from the backend; the cached list is
// never consulted here. Success populates and reveals the modal.
func (s *Server) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess := s.sessions.Get(w, r)
	sess.Lock()
	defer sess.Unlock()

	item, err := s.backend.GetItem(r.Context(), id)
	if err != nil {
		logError(r.Context(), "Fetch item for edit failed", err, "item_id", id)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}
	body, err := s.render("edit_modal.html", newModalView(item))
	if err != nil {
		logError(r.Context(), "Modal template execution failed", err, "template", "edit_modal.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	// Record the edit target only once the modal is actually going out.
	sess.State.BeginEdit(item)
	newUIResponse().Body(body).Write(w)
}

// handleUpdateItem submits the modal fields for the in-progress edit. Unlike
// create, no client-side validation applies here; the backend judges the
// payload. Without an edit in progress this is a no-op.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess := s.sessions.Get(w, r)
	sess.Lock()
	defer sess.Unlock()

	if !sess.State.Editing() || sess.State.EditingID != id {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := r.ParseForm(); err != nil {
		newUIResponse().Status(http.StatusBadRequest).Toast(toastError, "invalid form submission").Write(w)
		return
	}
	item := dashboard.ParseItemForm(r.PostForm).Item()
	item.ID = id

	if _, err := s.backend.UpdateItem(r.Context(), item); err != nil {
		// Modal stays open with the current edits intact.
		logError(r.Context(), "Update item failed", err, "item_id", id)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}
	sess.State.EndEdit()

	slog.InfoContext(r.Context(), "Item updated", "item_id", id)
	newUIResponse().
		Toast(toastSuccess, "Item updated").
		CloseModal().
		ReloadItems().
		Write(w)
}

// handleCloseModal discards any unsaved edits without confirmation.
func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Lock()
	defer sess.Unlock()

	sess.State.EndEdit()
	w.WriteHeader(http.StatusOK)
}

// handleDeleteItem performs the delete. The interactive confirmation lives
// on the row button (hx-confirm); a declined confirmation never reaches this
// handler.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.backend.DeleteItem(r.Context(), id); err != nil {
		logError(r.Context(), "Delete item failed", err, "item_id", id)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Item deleted", "item_id", id)
	newUIResponse().
		Toast(toastSuccess, "Item deleted").
		ReloadItems().
		Write(w)
}
