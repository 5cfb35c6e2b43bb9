package http

import (
	"bytes"
	"fmt"

	"despesas/internal/core"
)

const (
	tmplIndex       = "index.html"
	tmplExpenseItem = "expense_item"
	tmplExpenseList = "expense_list"
	tmplTotals      = "totals"
	tmplAmountInput = "amount_input"
)

type categoryView struct {
	ID   string
	Name string
}

type expenseItemView struct {
	LedgerID     string
	ID           int64
	Description  string
	CategoryID   string
	CategoryName string
	Icon         string
	RemoveIcon   string
	Symbol       string
	Amount       string
}

type totalsView struct {
	Count  int
	Label  string
	Symbol string
	Total  string
	OOB    bool
}

type amountInputView struct {
	Value string
}

type expenseListView struct {
	LedgerID string
	Items    []expenseItemView
}

type indexView struct {
	LedgerID   string
	Categories []categoryView
	List       expenseListView
	Totals     totalsView
	Amount     amountInputView
}

func newCategoryViews(c core.Catalog) []categoryView {
	out := make([]categoryView, 0, len(c))
	for _, cat := range c {
		out = append(out, categoryView{ID: cat.ID, Name: cat.Name})
	}
	return out
}

func newExpenseItemView(ledgerID string, e core.Entry) expenseItemView {
	symbol, amount := e.AmountParts()
	return expenseItemView{
		LedgerID:     ledgerID,
		ID:           e.ID,
		Description:  e.Description,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		Icon:         iconURL(e.Icon()),
		RemoveIcon:   iconURL("remove.svg"),
		Symbol:       symbol,
		Amount:       amount,
	}
}

func newExpenseListView(ledgerID string, entries []core.Entry) expenseListView {
	items := make([]expenseItemView, 0, len(entries))
	for _, e := range entries {
		items = append(items, newExpenseItemView(ledgerID, e))
	}
	return expenseListView{LedgerID: ledgerID, Items: items}
}

// newTotalsView renders the header; oob marks it for an out-of-band swap
// alongside another fragment.
func newTotalsView(sum core.Summary, oob bool) totalsView {
	symbol, total := sum.TotalParts()
	return totalsView{
		Count:  sum.Count,
		Label:  sum.Label(),
		Symbol: symbol,
		Total:  total,
		OOB:    oob,
	}
}

// render executes a named template into a buffer so nothing reaches the
// client when execution fails halfway.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("template %s: not loaded: %w", name, core.ErrRendering)
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("template %s: %v: %w", name, err, core.ErrRendering)
	}
	return buf.Bytes(), nil
}

// renderAll concatenates several fragments into one response body.
func (s *Server) renderAll(parts ...fragment) ([]byte, error) {
	var out []byte
	for _, p := range parts {
		b, err := s.render(p.name, p.data)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

type fragment struct {
	name string
	data any
}
