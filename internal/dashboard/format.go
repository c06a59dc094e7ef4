package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a statistic or amount with exactly two decimal
// places, regardless of input precision.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Today returns the current date as YYYY-MM-DD, the create-form default.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// DaysAgo returns the date n days back as YYYY-MM-DD. The analytics range
// defaults to the last 30 days.
func DaysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format("2006-01-02")
}
