package dashboard

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

var validate = validator.New()

// ErrInvalidForm is the single message shown for any create-form precondition
// failure, matching the one-line toast the dashboard has always shown.
var ErrInvalidForm = errors.New("Please fill in all required fields (type, amount > 0, category, date).")

// ItemForm carries raw create/edit form fields. Amount stays a string until
// validation so a non-numeric entry is caught before any network call.
type ItemForm struct {
	Type        string `validate:"required,oneof=income expense"`
	Amount      string `validate:"required"`
	Category    string `validate:"required"`
	Description string
	Date        string `validate:"required,datetime=2006-01-02"`
}

// ParseItemForm reads the form fields, trimming free-text inputs the way the
// create form always has.
func ParseItemForm(form url.Values) ItemForm {
	return ItemForm{
		Type:        form.Get("type"),
		Amount:      strings.TrimSpace(form.Get("amount")),
		Category:    strings.TrimSpace(form.Get("category")),
		Description: strings.TrimSpace(form.Get("description")),
		Date:        form.Get("date"),
	}
}

// ValidatedItem enforces the create-path preconditions: category and date
// non-empty, amount a finite number strictly greater than zero. On failure no
// request may be sent.
func (f ItemForm) ValidatedItem() (core.Item, error) {
	if err := validate.Struct(f); err != nil {
		return core.Item{}, ErrInvalidForm
	}
	amount, err := decimal.NewFromString(f.Amount)
	if err != nil || !amount.IsPositive() {
		return core.Item{}, ErrInvalidForm
	}
	return core.Item{
		Type:        f.Type,
		Amount:      amount,
		Category:    f.Category,
		Description: f.Description,
		Date:        f.Date,
	}, nil
}

// Item converts the form without client-side validation. The update path
// keeps this asymmetry with create on purpose: the server is left to judge
// the payload. An unparseable amount degrades to zero, which the backend
// rejects with its own message.
func (f ItemForm) Item() core.Item {
	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return core.Item{
		Type:        f.Type,
		Amount:      amount,
		Category:    f.Category,
		Description: f.Description,
		Date:        f.Date,
	}
}
