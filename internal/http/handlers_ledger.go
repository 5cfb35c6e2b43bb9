package http

import (
	"errors"
	"net/http"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/services"
)

const (
	msgPageFailed   = "Não foi possível carregar a página."
	msgFormatFailed = "Não foi possível formatar o valor."
)

// handleIndex starts a new page session: every load gets an empty ledger.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	l, err := s.ledgers.OpenLedger(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open ledger", applog.FieldError, err,
			applog.FieldOperation, applog.OpCreate)
		http.Error(w, msgPageFailed, http.StatusInternalServerError)
		return
	}

	data := indexView{
		LedgerID:   l.ID(),
		Categories: newCategoryViews(s.ledgers.Catalog()),
		List:       newExpenseListView(l.ID(), nil),
		Totals:     newTotalsView(l.Summary(), false),
	}
	body, err := s.render(tmplIndex, data)
	if err != nil {
		s.ledgers.DiscardLedger(l.ID())
		logger.ErrorContext(ctx, "Index template execution failed", applog.FieldError, err,
			"template", tmplIndex)
		http.Error(w, msgPageFailed, http.StatusInternalServerError)
		return
	}

	logger.DebugContext(ctx, "Page session started", applog.FieldLedgerID, l.ID())
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleFormatAmount re-renders the amount field with its value rewritten as
// a BRL string. It runs on every input event of the field.
func (s *Server) handleFormatAmount(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	formatted := core.FormatAmountInput(r.Form.Get("amount"))
	body, err := s.render(tmplAmountInput, amountInputView{Value: formatted})
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Amount field render failed",
			applog.FieldError, err, applog.FieldOperation, applog.OpFormat)
		InternalServerError(msgFormatFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleAddExpense appends a submitted expense and answers with the new list
// item plus an out-of-band totals header.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	ledgerID := r.PathValue("ledger")

	fields, err := readFormFields(r)
	if err != nil {
		logger.WarnContext(ctx, "Parse body error", applog.FieldError, err,
			applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	in := services.NewEntryInput{
		Description: fields.Get("description"),
		CategoryID:  fields.Get("category"),
		Amount:      fields.Raw("amount"),
	}

	entry, sum, err := s.ledgers.AddEntry(ctx, ledgerID, in)
	totalsStale := false
	switch {
	case errors.Is(err, core.ErrLedgerNotFound):
		NotFoundError(core.MsgLedgerNotFound).Write(w)
		return
	case errors.Is(err, core.ErrDuplicateCategory):
		ConflictError(core.MsgDuplicateCategory).Write(w)
		return
	case errors.Is(err, core.ErrUnknownCategory):
		UnprocessableEntityError(core.MsgUnknownCategory).Write(w)
		return
	case errors.Is(err, core.ErrAggregationParse):
		totalsStale = true
	case err != nil:
		logger.ErrorContext(ctx, "Failed to add expense", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldCategory, in.CategoryID,
			applog.FieldOperation, applog.OpAdd)
		InternalServerError(core.MsgListUpdateFailed).Write(w)
		return
	}

	parts := []fragment{{tmplExpenseItem, newExpenseItemView(ledgerID, entry)}}
	if !totalsStale {
		parts = append(parts, fragment{tmplTotals, newTotalsView(sum, true)})
	}
	body, err := s.renderAll(parts...)
	if err != nil {
		logger.ErrorContext(ctx, "Expense item render failed", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entry.ID,
			applog.FieldOperation, applog.OpRender)
		// The item never reached the page, so the ledger must not keep it.
		if _, rbErr := s.ledgers.RemoveEntry(ctx, ledgerID, entry.ID); rbErr != nil {
			logger.ErrorContext(ctx, "Rollback of unrendered expense failed", applog.FieldError, rbErr,
				applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entry.ID)
		}
		InternalServerError(core.MsgListUpdateFailed).Write(w)
		return
	}

	resp := NewHTMXResponse().TriggerFormReset().BodyHTML(body)
	if totalsStale {
		resp.TriggerAlert(core.MsgAggregationParse)
	}
	resp.Write(w)
}

// handleListExpenses renders the whole list, in insertion order.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ledgerID := r.PathValue("ledger")

	entries, err := s.ledgers.Entries(ctx, ledgerID)
	if errors.Is(err, core.ErrLedgerNotFound) {
		NotFoundError(core.MsgLedgerNotFound).Write(w)
		return
	}
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list expenses", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldOperation, applog.OpList)
		InternalServerError(core.MsgListUpdateFailed).Write(w)
		return
	}

	body, err := s.render(tmplExpenseList, newExpenseListView(ledgerID, entries))
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Expense list render failed", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldOperation, applog.OpRender)
		InternalServerError(core.MsgListUpdateFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleRemoveExpense deletes one entry. The empty body replaces the list
// item; the totals travel out of band.
func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	ledgerID := r.PathValue("ledger")

	entryID, resp := ParseEntryID(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	sum, err := s.ledgers.RemoveEntry(ctx, ledgerID, entryID)
	switch {
	case errors.Is(err, core.ErrLedgerNotFound):
		NotFoundError(core.MsgLedgerNotFound).Write(w)
		return
	case errors.Is(err, core.ErrAggregationParse):
		NewHTMXResponse().TriggerAlert(core.MsgAggregationParse).BodyHTML(nil).Write(w)
		return
	case err != nil && !errors.Is(err, core.ErrEntryNotFound):
		logger.ErrorContext(ctx, "Failed to remove expense", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldEntryID, entryID,
			applog.FieldOperation, applog.OpRemove)
		InternalServerError(core.MsgTotalsFailed).Write(w)
		return
	}

	body, err := s.render(tmplTotals, newTotalsView(sum, true))
	if err != nil {
		logger.ErrorContext(ctx, "Totals render failed", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldOperation, applog.OpRender)
		NewHTMXResponse().TriggerAlert(core.MsgTotalsFailed).BodyHTML(nil).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleSummary runs a totals pass without changing the list. Clicks inside
// the list that do not hit a remove control land here.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	ledgerID := r.PathValue("ledger")

	sum, err := s.ledgers.RecomputeTotals(ctx, ledgerID)
	switch {
	case errors.Is(err, core.ErrLedgerNotFound):
		NotFoundError(core.MsgLedgerNotFound).Write(w)
		return
	case errors.Is(err, core.ErrAggregationParse):
		AlertResponse(http.StatusOK, core.MsgAggregationParse).Write(w)
		return
	case err != nil:
		logger.ErrorContext(ctx, "Failed to recompute totals", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldOperation, applog.OpRecompute)
		InternalServerError(core.MsgTotalsFailed).Write(w)
		return
	}

	body, err := s.render(tmplTotals, newTotalsView(sum, false))
	if err != nil {
		logger.ErrorContext(ctx, "Totals render failed", applog.FieldError, err,
			applog.FieldLedgerID, ledgerID, applog.FieldOperation, applog.OpRender)
		InternalServerError(core.MsgTotalsFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}
