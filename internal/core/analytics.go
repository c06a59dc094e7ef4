package core

import "github.com/shopspring/decimal"

// AnalyticsResult holds aggregate statistics computed by the backend over a
// filtered date range. It is ephemeral: recomputed per query, never cached.
type AnalyticsResult struct {
	Count    int64           `json:"count"`
	TotalSum decimal.Decimal `json:"total_sum"`
	Avg      decimal.Decimal `json:"avg"`
	Median   decimal.Decimal `json:"median"`
	P90      decimal.Decimal `json:"p90"`
	Groups   []GroupStat     `json:"groups,omitempty"`
}

// GroupStat is one row of the optional grouped breakdown. Order is
// significant and preserved as received.
type GroupStat struct {
	Key      string          `json:"key"`
	Count    int64           `json:"count"`
	TotalSum decimal.Decimal `json:"total_sum"`
	Avg      decimal.Decimal `json:"avg"`
	Median   decimal.Decimal `json:"median"`
	P90      decimal.Decimal `json:"p90"`
}
