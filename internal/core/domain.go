package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Category is one option of the category selector.
	Category struct {
		ID   string
		Name string
		Icon string // image resource, named after ID by convention
	}

	// Catalog is the fixed, ordered set of categories offered by the page.
	Catalog []Category

	Entry struct {
		ID           int64 // creation timestamp in milliseconds, strictly increasing per ledger
		Description  string
		CategoryID   string
		CategoryName string
		Amount       Money
		Display      string // BRL rendering of Amount, e.g. "R$ 150,00"
		CreatedAt    time.Time
	}
)

var (
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrAggregationParse  = errors.New("amount is not a number")
	ErrRendering         = errors.New("rendering failed")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrLedgerNotFound    = errors.New("ledger not found")
)

// DefaultCatalog returns the categories shown by the expense form.
func DefaultCatalog() Catalog {
	return Catalog{
		NewCategory("alimentacao", "Alimentação"),
		NewCategory("casa", "Casa"),
		NewCategory("lazer", "Lazer"),
		NewCategory("servicos", "Serviços"),
		NewCategory("transporte", "Transporte"),
		NewCategory("outros", "Outros"),
	}
}

func NewCategory(id, name string) Category {
	return Category{ID: id, Name: name, Icon: id + ".svg"}
}

// Lookup finds a category by id. Surrounding whitespace is ignored.
func (c Catalog) Lookup(id string) (Category, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Category{}, false
	}
	for _, cat := range c {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// NewEntry builds an entry from the submitted form fields. The amount text is
// normalised with the same rule the amount field uses while typing, so any
// text yields a (possibly zero) amount.
func NewEntry(id int64, description string, cat Category, amountText string, createdAt time.Time) Entry {
	amount := Money{Cents: DigitsToCents(amountText)}
	return Entry{
		ID:           id,
		Description:  description,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Amount:       amount,
		Display:      FormatBRL(amount),
		CreatedAt:    createdAt,
	}
}

// Icon returns the image resource for the entry's category.
func (e Entry) Icon() string {
	return e.CategoryID + ".svg"
}

// AmountParts splits the display string into the currency symbol and the
// remaining amount text.
func (e Entry) AmountParts() (symbol, amount string) {
	return SplitCurrency(e.Display)
}
