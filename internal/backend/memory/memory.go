// Package memory is an in-process stand-in for the external items API, used
// for local development and tests. It mirrors the backend contract: filtered
// and sorted listing, CRUD by id, and count/sum/avg/median/p90 aggregation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Item
}

func NewStore() *Store {
	return &Store{items: make(map[string]core.Item)}
}

// Seed inserts items verbatim, assigning ids where missing. Test helper.
func (s *Store) Seed(items ...core.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		s.items[it.ID] = it
	}
}

func (s *Store) ListItems(_ context.Context, filter core.ListFilter) ([]core.Item, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]core.Item, 0, len(s.items))
	for _, it := range s.items {
		if matches(it, filter.From, filter.To, filter.Category, filter.Type) {
			matched = append(matched, it)
		}
	}
	s.mu.RUnlock()

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = core.SortByDate
	}
	desc := filter.Order == core.OrderDesc

	sort.SliceStable(matched, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		return lessBy(sortBy, matched[i], matched[j])
	})
	return matched, nil
}

func (s *Store) GetItem(_ context.Context, id string) (core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return core.Item{}, core.ErrItemNotFound
	}
	return it, nil
}

func (s *Store) CreateItem(_ context.Context, item core.Item) (core.Item, error) {
	if err := item.Validate(); err != nil {
		return core.Item{}, err
	}
	item.ID = uuid.NewString()

	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()
	return item, nil
}

func (s *Store) UpdateItem(_ context.Context, item core.Item) (core.Item, error) {
	if err := item.Validate(); err != nil {
		return core.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return core.Item{}, core.ErrItemNotFound
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return core.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Analytics(_ context.Context, query core.AnalyticsQuery) (core.AnalyticsResult, error) {
	if err := query.Validate(); err != nil {
		return core.AnalyticsResult{}, err
	}

	s.mu.RLock()
	var matched []core.Item
	for _, it := range s.items {
		if matches(it, query.From, query.To, "", query.Type) {
			matched = append(matched, it)
		}
	}
	s.mu.RUnlock()

	result := aggregate(matched)
	if query.GroupBy != "" {
		result.Groups = groupStats(matched, query.GroupBy)
	}
	return result, nil
}

func matches(it core.Item, from, to, category, itemType string) bool {
	date := it.DateOnly()
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	if category != "" && !strings.Contains(strings.ToLower(it.Category), strings.ToLower(category)) {
		return false
	}
	if itemType != "" && it.Type != itemType {
		return false
	}
	return true
}

func lessBy(field string, a, b core.Item) bool {
	switch field {
	case core.SortByAmount:
		return a.Amount.LessThan(b.Amount)
	case core.SortByCategory:
		return a.Category < b.Category
	case core.SortByType:
		return a.Type < b.Type
	default:
		return a.DateOnly() < b.DateOnly()
	}
}

func aggregate(items []core.Item) core.AnalyticsResult {
	result := core.AnalyticsResult{Count: int64(len(items))}
	if len(items) == 0 {
		return result
	}

	amounts := make([]decimal.Decimal, len(items))
	for i, it := range items {
		amounts[i] = it.Amount
		result.TotalSum = result.TotalSum.Add(it.Amount)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })

	count := decimal.NewFromInt(result.Count)
	result.Avg = result.TotalSum.Div(count)
	result.Median = median(amounts)
	result.P90 = percentile(amounts, 90)
	return result
}

func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

// percentile linearly interpolates between the two nearest ranks of an
// ascending-sorted slice, the continuous-percentile semantics SQL engines
// use for PERCENTILE_CONT.
func percentile(sorted []decimal.Decimal, p int) decimal.Decimal {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := (n - 1) * p
	lower := pos / 100
	frac := decimal.NewFromInt(int64(pos % 100)).Div(decimal.NewFromInt(100))
	if frac.IsZero() {
		return sorted[lower]
	}
	return sorted[lower].Add(sorted[lower+1].Sub(sorted[lower]).Mul(frac))
}

func groupStats(items []core.Item, groupBy string) []core.GroupStat {
	buckets := make(map[string][]core.Item)
	for _, it := range items {
		key := groupKey(it, groupBy)
		buckets[key] = append(buckets[key], it)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]core.GroupStat, 0, len(keys))
	for _, key := range keys {
		agg := aggregate(buckets[key])
		groups = append(groups, core.GroupStat{
			Key:      key,
			Count:    agg.Count,
			TotalSum: agg.TotalSum,
			Avg:      agg.Avg,
			Median:   agg.Median,
			P90:      agg.P90,
		})
	}
	return groups
}

func groupKey(it core.Item, groupBy string) string {
	switch groupBy {
	case core.GroupByCategory:
		return it.Category
	case core.GroupByDay:
		return it.DateOnly()
	case core.GroupByWeek:
		if t, err := time.Parse("2006-01-02", it.DateOnly()); err == nil {
			year, week := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", year, week)
		}
		return it.DateOnly()
	case core.GroupByMonth:
		date := it.DateOnly()
		if len(date) >= 7 {
			return date[:7]
		}
		return date
	default:
		return it.Category
	}
}
