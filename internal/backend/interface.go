// Package backend defines the ports to the items API that owns all
// persistence and computation, plus a factory selecting an implementation.
package backend

import (
	"context"

	"finboard/internal/core"
)

// ItemLister fetches a filtered, sorted item list.
type ItemLister interface {
	ListItems(ctx context.Context, filter core.ListFilter) ([]core.Item, error)
}

// ItemReader fetches a single item by id. Used only by the edit flow; the
// cached list is never substituted for this read.
type ItemReader interface {
	GetItem(ctx context.Context, id string) (core.Item, error)
}

// ItemWriter mutates items.
type ItemWriter interface {
	CreateItem(ctx context.Context, item core.Item) (core.Item, error)
	UpdateItem(ctx context.Context, item core.Item) (core.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

// AnalyticsReader computes aggregate statistics over a date range.
type AnalyticsReader interface {
	Analytics(ctx context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error)
}

// Backend bundles every operation the dashboard needs.
type Backend interface {
	ItemLister
	ItemReader
	ItemWriter
	AnalyticsReader
}

// URLProvider is implemented by backends that expose a browser-navigable CSV
// export endpoint of their own. Backends without one (the in-process store)
// leave export to the UI server.
type URLProvider interface {
	ExportURL(filter core.ListFilter) string
}
