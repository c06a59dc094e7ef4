package core

import "errors"

const (
	SortByDate     = "date"
	SortByAmount   = "amount"
	SortByCategory = "category"
	SortByType     = "type"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	GroupByDay      = "day"
	GroupByWeek     = "week"
	GroupByMonth    = "month"
	GroupByCategory = "category"
)

var (
	ErrInvalidSortBy  = errors.New("sort_by must be one of: date, amount, category, type")
	ErrInvalidOrder   = errors.New("order must be 'asc' or 'desc'")
	ErrInvalidGroupBy = errors.New("group_by must be one of: day, week, month, category")
	ErrMissingRange   = errors.New("'from' and 'to' dates are required")
)

var validationErrors = []error{
	ErrInvalidType,
	ErrInvalidAmount,
	ErrEmptyCategory,
	ErrEmptyDate,
	ErrInvalidSortBy,
	ErrInvalidOrder,
	ErrInvalidGroupBy,
	ErrMissingRange,
}

// IsValidationError reports whether err is one of the domain validation
// sentinels, as opposed to a not-found or transport failure.
func IsValidationError(err error) bool {
	for _, ve := range validationErrors {
		if errors.Is(err, ve) {
			return true
		}
	}
	return false
}

// ListFilter mirrors the query accepted by the backend list endpoint.
// Dates are YYYY-MM-DD strings; empty fields are omitted from the query.
type ListFilter struct {
	From     string
	To       string
	Category string
	Type     string
	SortBy   string
	Order    string
}

func (f ListFilter) Validate() error {
	if f.Type != "" && f.Type != TypeIncome && f.Type != TypeExpense {
		return ErrInvalidType
	}
	if f.SortBy != "" {
		switch f.SortBy {
		case SortByDate, SortByAmount, SortByCategory, SortByType:
		default:
			return ErrInvalidSortBy
		}
	}
	if f.Order != "" && f.Order != OrderAsc && f.Order != OrderDesc {
		return ErrInvalidOrder
	}
	return nil
}

// ExportFilter reduces a list filter to the fields the CSV export endpoint
// accepts: sort state is deliberately not part of the export query.
func (f ListFilter) ExportFilter() ListFilter {
	return ListFilter{
		From:     f.From,
		To:       f.To,
		Category: f.Category,
		Type:     f.Type,
	}
}

// AnalyticsQuery is the query for the backend analytics endpoint. From and To
// are mandatory; GroupBy and Type are optional refinements.
type AnalyticsQuery struct {
	From    string
	To      string
	GroupBy string
	Type    string
}

func (q AnalyticsQuery) Validate() error {
	if q.From == "" || q.To == "" {
		return ErrMissingRange
	}
	if q.GroupBy != "" {
		switch q.GroupBy {
		case GroupByDay, GroupByWeek, GroupByMonth, GroupByCategory:
		default:
			return ErrInvalidGroupBy
		}
	}
	if q.Type != "" && q.Type != TypeIncome && q.Type != TypeExpense {
		return ErrInvalidType
	}
	return nil
}
