package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

var (
	ErrInvalidType   = errors.New("type must be 'income' or 'expense'")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrEmptyCategory = errors.New("category must not be empty")
	ErrEmptyDate     = errors.New("date must not be empty")
	ErrItemNotFound  = errors.New("item not found")
)

// Item is a single income/expense record. The backend owns these; this
// process only ever holds transient copies fetched over the wire.
type Item struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"`
}

// DateOnly returns the YYYY-MM-DD portion of the item date. The backend may
// send a full timestamp; only the first 10 characters are relevant here.
func (it Item) DateOnly() string {
	if len(it.Date) > 10 {
		return it.Date[:10]
	}
	return it.Date
}

func (it Item) Validate() error {
	if it.Type != TypeIncome && it.Type != TypeExpense {
		return ErrInvalidType
	}
	if !it.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(it.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(it.Date) == "" {
		return ErrEmptyDate
	}
	return nil
}
