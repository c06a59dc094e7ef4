package http

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/session"
)

// fakeBackend lets each test script exactly the calls it cares about.
// Unscripted calls return zero values.
type fakeBackend struct {
	listFn      func(ctx context.Context, filter core.ListFilter) ([]core.Item, error)
	getFn       func(ctx context.Context, id string) (core.Item, error)
	createFn    func(ctx context.Context, item core.Item) (core.Item, error)
	updateFn    func(ctx context.Context, item core.Item) (core.Item, error)
	deleteFn    func(ctx context.Context, id string) error
	analyticsFn func(ctx context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error)
}

func (f *fakeBackend) ListItems(ctx context.Context, filter core.ListFilter) ([]core.Item, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeBackend) GetItem(ctx context.Context, id string) (core.Item, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return core.Item{}, core.ErrItemNotFound
}

func (f *fakeBackend) CreateItem(ctx context.Context, item core.Item) (core.Item, error) {
	if f.createFn != nil {
		return f.createFn(ctx, item)
	}
	item.ID = "created"
	return item, nil
}

func (f *fakeBackend) UpdateItem(ctx context.Context, item core.Item) (core.Item, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, item)
	}
	return item, nil
}

func (f *fakeBackend) DeleteItem(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeBackend) Analytics(ctx context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error) {
	if f.analyticsFn != nil {
		return f.analyticsFn(ctx, query)
	}
	return core.AnalyticsResult{}, nil
}

// exportBackend additionally advertises a browser-navigable export URL.
type exportBackend struct {
	fakeBackend
	exportURL string
}

func (e *exportBackend) ExportURL(filter core.ListFilter) string { return e.exportURL }

func newTestServer(t *testing.T, be *fakeBackend) *Server {
	t.Helper()
	srv, err := NewServer(":0", be, session.NewStore(100, time.Hour))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func triggers(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	header := rr.Header().Get("HX-Trigger")
	if header == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(header), &out); err != nil {
		t.Fatalf("parse HX-Trigger %q: %v", header, err)
	}
	return out
}

func toastMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	tr := triggers(t, rr)
	toast, ok := tr["show-notification"].(map[string]any)
	if !ok {
		t.Fatalf("no show-notification trigger in %v", tr)
	}
	msg, _ := toast["message"].(string)
	return msg
}

func sampleItems() []core.Item {
	return []core.Item{
		{ID: "a1", Type: core.TypeExpense, Amount: decimal.NewFromFloat(12.5), Category: "Food", Description: "Lunch", Date: "2026-08-20"},
		{ID: "a2", Type: core.TypeIncome, Amount: decimal.NewFromInt(2500), Category: "Salary", Date: "2026-08-01"},
	}
}

func TestIndexAndHealth(t *testing.T) {
	be := &fakeBackend{
		listFn: func(_ context.Context, _ core.ListFilter) ([]core.Item, error) {
			return sampleItems(), nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Finboard") {
		t.Fatalf("index body missing heading")
	}
	if !strings.Contains(body, "12.50") {
		t.Fatalf("expected formatted amount 12.50 in body")
	}
	if rr.Header().Get("Set-Cookie") == "" {
		t.Fatalf("expected a session cookie on first visit")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestItemsTableEscapesDescriptions(t *testing.T) {
	be := &fakeBackend{
		listFn: func(_ context.Context, _ core.ListFilter) ([]core.Item, error) {
			return []core.Item{{
				ID:          "x",
				Type:        core.TypeExpense,
				Amount:      decimal.NewFromInt(1),
				Category:    "Misc",
				Description: `<script>alert(1)</script>`,
				Date:        "2026-08-20",
			}}, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("description rendered unescaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("expected escaped description in body: %s", body)
	}
}

func TestSortToggleAcrossRequests(t *testing.T) {
	var seen []core.ListFilter
	be := &fakeBackend{
		listFn: func(_ context.Context, filter core.ListFilter) ([]core.Item, error) {
			seen = append(seen, filter)
			return nil, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items?sort=date", nil))
	cookie := rr.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/ui/items?sort=date", nil)
	for _, c := range cookie {
		req.AddCookie(c)
	}
	srv.Handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/ui/items?sort=amount", nil)
	for _, c := range cookie {
		req.AddCookie(c)
	}
	srv.Handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(seen) != 3 {
		t.Fatalf("expected 3 list calls, got %d", len(seen))
	}
	// Default is date desc, so the first click flips to asc, the second back
	// to desc, and a new column starts ascending.
	if seen[0].SortBy != core.SortByDate || seen[0].Order != core.OrderAsc {
		t.Fatalf("first click: got %s/%s", seen[0].SortBy, seen[0].Order)
	}
	if seen[1].SortBy != core.SortByDate || seen[1].Order != core.OrderDesc {
		t.Fatalf("second click: got %s/%s", seen[1].SortBy, seen[1].Order)
	}
	if seen[2].SortBy != core.SortByAmount || seen[2].Order != core.OrderAsc {
		t.Fatalf("column switch: got %s/%s", seen[2].SortBy, seen[2].Order)
	}
}

func TestListItemsFailureLeavesNoBody(t *testing.T) {
	be := &fakeBackend{
		listFn: func(_ context.Context, _ core.ListFilter) ([]core.Item, error) {
			return nil, context.DeadlineExceeded
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("error response must carry no body, got %q", rr.Body.String())
	}
	if toastMessage(t, rr) == "" {
		t.Fatalf("expected an error toast")
	}
}

func TestCreateItemValidationBlocksBackend(t *testing.T) {
	called := false
	be := &fakeBackend{
		createFn: func(_ context.Context, item core.Item) (core.Item, error) {
			called = true
			return item, nil
		},
	}
	srv := newTestServer(t, be)

	for _, form := range []string{
		"type=expense&amount=0&category=Food&date=2026-08-20",
		"type=expense&amount=-5&category=Food&date=2026-08-20",
		"type=expense&amount=abc&category=Food&date=2026-08-20",
		"type=expense&amount=10&category=&date=2026-08-20",
		"type=expense&amount=10&category=Food&date=not-a-date",
		"type=transfer&amount=10&category=Food&date=2026-08-20",
	} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, formRequest(http.MethodPost, "/ui/items", form))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("form %q: status=%d", form, rr.Code)
		}
		if !strings.Contains(toastMessage(t, rr), "required fields") {
			t.Fatalf("form %q: unexpected toast %q", form, toastMessage(t, rr))
		}
	}
	if called {
		t.Fatalf("backend create must not run for an invalid form")
	}
}

func TestCreateItemSuccess(t *testing.T) {
	var got core.Item
	be := &fakeBackend{
		createFn: func(_ context.Context, item core.Item) (core.Item, error) {
			got = item
			item.ID = "new-id"
			return item, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, formRequest(http.MethodPost, "/ui/items",
		"type=expense&amount=45.50&category=Food&description=Dinner&date=2026-08-20"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got.Category != "Food" || !got.Amount.Equal(decimal.RequireFromString("45.50")) {
		t.Fatalf("backend received %+v", got)
	}
	tr := triggers(t, rr)
	for _, event := range []string{"show-notification", "form:reset", "items:reload"} {
		if _, ok := tr[event]; !ok {
			t.Fatalf("missing trigger %s in %v", event, tr)
		}
	}
	if toastMessage(t, rr) != "Item created" {
		t.Fatalf("toast=%q", toastMessage(t, rr))
	}
}

func TestCreateItemBackendError(t *testing.T) {
	be := &fakeBackend{
		createFn: func(_ context.Context, _ core.Item) (core.Item, error) {
			return core.Item{}, context.DeadlineExceeded
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, formRequest(http.MethodPost, "/ui/items",
		"type=expense&amount=10&category=Food&date=2026-08-20"))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
	tr := triggers(t, rr)
	if _, ok := tr["form:reset"]; ok {
		t.Fatalf("form must not reset on a failed create")
	}
}

func TestEditFlow(t *testing.T) {
	item := core.Item{
		ID:       "e1",
		Type:     core.TypeExpense,
		Amount:   decimal.RequireFromString("19.90"),
		Category: "Books",
		Date:     "2026-08-15T00:00:00Z",
	}
	var updated core.Item
	be := &fakeBackend{
		getFn: func(_ context.Context, id string) (core.Item, error) {
			if id != "e1" {
				return core.Item{}, core.ErrItemNotFound
			}
			return item, nil
		},
		updateFn: func(_ context.Context, it core.Item) (core.Item, error) {
			updated = it
			return it, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items/e1/edit", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("edit fetch status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `value="19.90"`) || !strings.Contains(body, `value="2026-08-15"`) {
		t.Fatalf("modal missing populated fields: %s", body)
	}
	cookies := rr.Result().Cookies()

	req := formRequest(http.MethodPut, "/ui/items/e1",
		"type=expense&amount=25&category=Books&date=2026-08-15")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d", rr.Code)
	}
	if updated.ID != "e1" || !updated.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("backend received %+v", updated)
	}
	tr := triggers(t, rr)
	for _, event := range []string{"show-notification", "modal:close", "items:reload"} {
		if _, ok := tr[event]; !ok {
			t.Fatalf("missing trigger %s in %v", event, tr)
		}
	}
}

func TestEditRenderFailureLeavesNoEditInProgress(t *testing.T) {
	be := &fakeBackend{
		getFn: func(_ context.Context, _ string) (core.Item, error) {
			return core.Item{ID: "e1", Type: core.TypeExpense, Amount: decimal.NewFromInt(5), Category: "X", Date: "2026-08-15"}, nil
		},
		updateFn: func(_ context.Context, _ core.Item) (core.Item, error) {
			t.Fatalf("backend update must not run after a failed modal render")
			return core.Item{}, nil
		},
	}
	srv := newTestServer(t, be)
	srv.templates = template.Must(template.New("index.html").Parse("x"))

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items/e1/edit", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("edit fetch status=%d", rr.Code)
	}
	cookies := rr.Result().Cookies()

	// No modal went out, so the session must not think an edit is open.
	req := formRequest(http.MethodPut, "/ui/items/e1",
		"type=expense&amount=25&category=X&date=2026-08-15")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status=%d, want 204 no-op", rr.Code)
	}
}

func TestUpdateWithoutEditInProgressIsNoOp(t *testing.T) {
	be := &fakeBackend{
		updateFn: func(_ context.Context, _ core.Item) (core.Item, error) {
			t.Fatalf("backend update must not run without an edit in progress")
			return core.Item{}, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, formRequest(http.MethodPut, "/ui/items/e1",
		"type=expense&amount=25&category=Books&date=2026-08-15"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestUpdateFailureKeepsEditOpen(t *testing.T) {
	be := &fakeBackend{
		getFn: func(_ context.Context, _ string) (core.Item, error) {
			return core.Item{ID: "e1", Type: core.TypeExpense, Amount: decimal.NewFromInt(5), Category: "X", Date: "2026-08-15"}, nil
		},
		updateFn: func(_ context.Context, _ core.Item) (core.Item, error) {
			return core.Item{}, context.DeadlineExceeded
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/items/e1/edit", nil))
	cookies := rr.Result().Cookies()

	req := formRequest(http.MethodPut, "/ui/items/e1",
		"type=expense&amount=25&category=X&date=2026-08-15")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
	tr := triggers(t, rr)
	if _, ok := tr["modal:close"]; ok {
		t.Fatalf("modal must stay open on a failed update")
	}

	// The edit target survives, so a retry still reaches the backend.
	req = formRequest(http.MethodPut, "/ui/items/e1",
		"type=expense&amount=30&category=X&date=2026-08-15")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code == http.StatusNoContent {
		t.Fatalf("retry treated as no-op; edit state was lost")
	}
}

func TestDeleteItem(t *testing.T) {
	var deleted string
	be := &fakeBackend{
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/ui/items/d1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if deleted != "d1" {
		t.Fatalf("deleted id=%q", deleted)
	}
	tr := triggers(t, rr)
	if _, ok := tr["items:reload"]; !ok {
		t.Fatalf("expected items:reload trigger, got %v", tr)
	}
}

func TestAnalyticsRequiresDateRange(t *testing.T) {
	called := false
	be := &fakeBackend{
		analyticsFn: func(_ context.Context, _ core.AnalyticsQuery) (core.AnalyticsResult, error) {
			called = true
			return core.AnalyticsResult{}, nil
		},
	}
	srv := newTestServer(t, be)

	for _, target := range []string{"/ui/analytics", "/ui/analytics?from=2026-08-01", "/ui/analytics?to=2026-08-28"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: status=%d", target, rr.Code)
		}
		if !strings.Contains(toastMessage(t, rr), "'from' and 'to'") {
			t.Fatalf("%s: toast=%q", target, toastMessage(t, rr))
		}
	}
	if called {
		t.Fatalf("backend analytics must not run without a complete range")
	}
}

func TestAnalyticsRender(t *testing.T) {
	var gotQuery core.AnalyticsQuery
	be := &fakeBackend{
		analyticsFn: func(_ context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error) {
			gotQuery = query
			return core.AnalyticsResult{
				Count:    3,
				TotalSum: decimal.NewFromInt(100),
				Avg:      decimal.RequireFromString("33.33"),
				Median:   decimal.NewFromInt(30),
				P90:      decimal.NewFromInt(90),
				Groups: []core.GroupStat{
					{Key: "Food", Count: 2, TotalSum: decimal.NewFromInt(40), Avg: decimal.NewFromInt(20), Median: decimal.NewFromInt(20), P90: decimal.NewFromInt(30)},
				},
			}, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/ui/analytics?from=2026-08-01&to=2026-08-28&group_by=category&type=expense", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if gotQuery.GroupBy != core.GroupByCategory || gotQuery.Type != core.TypeExpense {
		t.Fatalf("query passed through wrong: %+v", gotQuery)
	}
	body := rr.Body.String()
	for _, want := range []string{"100.00", "33.33", "30.00", "90.00", "Food"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestAnalyticsWithoutGroupsHidesTable(t *testing.T) {
	be := &fakeBackend{
		analyticsFn: func(_ context.Context, _ core.AnalyticsQuery) (core.AnalyticsResult, error) {
			return core.AnalyticsResult{Count: 1, TotalSum: decimal.NewFromInt(10), Avg: decimal.NewFromInt(10), Median: decimal.NewFromInt(10), P90: decimal.NewFromInt(10)}, nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/analytics?from=2026-08-01&to=2026-08-28", nil))
	if strings.Contains(rr.Body.String(), `class="groups"`) {
		t.Fatalf("group table rendered without groups")
	}
}

func TestExportRedirectsWhenBackendServesCSV(t *testing.T) {
	be := &exportBackend{exportURL: "http://api.example.com/api/export/csv?type=expense"}
	srv, err := NewServer(":0", be, session.NewStore(100, time.Hour))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.rateLimiter.stop()

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/csv?type=expense", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != be.exportURL {
		t.Fatalf("Location=%q", got)
	}
}

func TestExportStreamsCSVWithoutProvider(t *testing.T) {
	be := &fakeBackend{
		listFn: func(_ context.Context, filter core.ListFilter) ([]core.Item, error) {
			if filter.SortBy != "" || filter.Order != "" {
				t.Fatalf("sort state must not travel with the export, got %+v", filter)
			}
			return sampleItems(), nil
		},
	}
	srv := newTestServer(t, be)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export/csv", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type=%q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if lines[0] != "id,type,amount,category,description,date" {
		t.Fatalf("header=%q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected 2 data rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "12.50") {
		t.Fatalf("amount not fixed to two decimals: %q", lines[1])
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q", got)
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("missing Content-Security-Policy")
	}
}
