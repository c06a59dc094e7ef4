package http

import (
	"net/http"

	"finboard/internal/core"
)

// handleAnalytics renders the analytics partial. An incomplete date range is
// rejected here with a toast and never reaches the backend; the optional
// group_by and type refinements pass through as-is.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := core.AnalyticsQuery{
		From:    q.Get("from"),
		To:      q.Get("to"),
		GroupBy: q.Get("group_by"),
		Type:    q.Get("type"),
	}
	if query.From == "" || query.To == "" {
		newUIResponse().
			Status(http.StatusUnprocessableEntity).
			Toast(toastError, "Please select 'from' and 'to' dates for analytics.").
			Write(w)
		return
	}

	res, err := s.backend.Analytics(r.Context(), query)
	if err != nil {
		logError(r.Context(), "Analytics fetch failed", err, "from", query.From, "to", query.To, "group_by", query.GroupBy)
		newUIResponse().Status(errorStatus(err)).Toast(toastError, err.Error()).Write(w)
		return
	}

	body, err := s.render("analytics.html", newAnalyticsView(res))
	if err != nil {
		logError(r.Context(), "Analytics template execution failed", err, "template", "analytics.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	newUIResponse().Body(body).Write(w)
}
