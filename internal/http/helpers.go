package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"finboard/internal/backend/rest"
	"finboard/internal/core"
	"finboard/internal/dashboard"
)

// errorStatus picks the response status for a failed backend call. The
// backend's own status is passed through when it reported one; anything else
// counts as a bad gateway. Toasted error bodies are never swapped in, so the
// previous view stays put.
func errorStatus(err error) int {
	var apiErr *rest.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.StatusCode
	case errors.Is(err, core.ErrItemNotFound):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// render executes a template into a buffer so a mid-render failure never
// leaks a half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type filtersView struct {
	From     string
	To       string
	Category string
	Type     string
}

func filtersFromValues(v url.Values) filtersView {
	return filtersView{
		From:     v.Get("from"),
		To:       v.Get("to"),
		Category: v.Get("category"),
		Type:     v.Get("type"),
	}
}

func (f filtersView) listFilter() core.ListFilter {
	return core.ListFilter{From: f.From, To: f.To, Category: f.Category, Type: f.Type}
}

type itemsView struct {
	Items   []core.Item
	Sort    string
	Order   string
	Filters filtersView
}

type statRow struct {
	Key    string
	Count  string
	Sum    string
	Avg    string
	Median string
	P90    string
}

type analyticsView struct {
	Count  string
	Sum    string
	Avg    string
	Median string
	P90    string
	Groups []statRow
}

func newAnalyticsView(res core.AnalyticsResult) analyticsView {
	view := analyticsView{
		Count:  strconv.FormatInt(res.Count, 10),
		Sum:    dashboard.FormatAmount(res.TotalSum),
		Avg:    dashboard.FormatAmount(res.Avg),
		Median: dashboard.FormatAmount(res.Median),
		P90:    dashboard.FormatAmount(res.P90),
	}
	for _, g := range res.Groups {
		view.Groups = append(view.Groups, statRow{
			Key:    g.Key,
			Count:  strconv.FormatInt(g.Count, 10),
			Sum:    dashboard.FormatAmount(g.TotalSum),
			Avg:    dashboard.FormatAmount(g.Avg),
			Median: dashboard.FormatAmount(g.Median),
			P90:    dashboard.FormatAmount(g.P90),
		})
	}
	return view
}

type modalView struct {
	ID          string
	Type        string
	Amount      string
	Category    string
	Description string
	Date        string
}

func newModalView(item core.Item) modalView {
	return modalView{
		ID:          item.ID,
		Type:        item.Type,
		Amount:      item.Amount.String(),
		Category:    item.Category,
		Description: item.Description,
		Date:        item.DateOnly(),
	}
}
