package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"finboard/internal/backend"
)

// handleExportCSV hands the current filter off as a download. A backend that
// publishes its own export endpoint gets a redirect so the file streams from
// the source; otherwise the items are fetched and written out here. Sort
// state never travels with the export.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := filtersFromValues(r.URL.Query()).listFilter()

	if provider, ok := s.backend.(backend.URLProvider); ok {
		http.Redirect(w, r, provider.ExportURL(filter), http.StatusSeeOther)
		return
	}

	items, err := s.backend.ListItems(r.Context(), filter)
	if err != nil {
		logError(r.Context(), "Export fetch failed", err)
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	filename := fmt.Sprintf("items-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "type", "amount", "category", "description", "date"})
	for _, item := range items {
		_ = cw.Write([]string{
			item.ID,
			item.Type,
			item.Amount.StringFixed(2),
			item.Category,
			item.Description,
			item.DateOnly(),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logError(r.Context(), "CSV write failed", err)
	}
}
