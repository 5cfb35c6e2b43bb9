// Package tui is a terminal front-end for one expense ledger. It offers the
// same form, list and totals header as the web page.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/services"
)

const (
	pageMain  = "main"
	pageAlert = "alert"

	labelDescription = "Nome da despesa"
	labelCategory    = "Categoria"
	labelAmount      = "Valor"

	helpText = "Tab: próximo campo | Esc: ir para a lista | Del: remover | Enter na lista: recalcular | Ctrl+C: sair"
)

type App struct {
	app    *tview.Application
	pages  *tview.Pages
	form   *tview.Form
	desc   *tview.InputField
	cat    *tview.DropDown
	amount *amountField
	table  *tview.Table
	header *tview.TextView
	footer *tview.TextView

	ctx      context.Context
	svc      *services.LedgerService
	catalog  core.Catalog
	ledgerID string
	logger   *applog.Logger
}

// New opens a fresh ledger and builds the screen around it.
func New(ctx context.Context, svc *services.LedgerService) (*App, error) {
	l, err := svc.OpenLedger(ctx)
	if err != nil {
		return nil, err
	}

	a := &App{
		app:      tview.NewApplication(),
		ctx:      ctx,
		svc:      svc,
		catalog:  svc.Catalog(),
		ledgerID: l.ID(),
		logger:   applog.WithComponent(applog.ComponentTUI).With(applog.FieldLedgerID, l.ID()),
	}
	a.build()
	a.renderTotals(l.Summary())
	a.renderList(nil)
	return a, nil
}

func (a *App) build() {
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBorder(true).SetTitle(" Minhas solicitações ")

	a.footer = tview.NewTextView().
		SetText(helpText).
		SetTextAlign(tview.AlignCenter)
	a.footer.SetTextColor(colorMuted)

	names := make([]string, 0, len(a.catalog))
	for _, c := range a.catalog {
		names = append(names, c.Name)
	}

	a.desc = tview.NewInputField().SetLabel(labelDescription).SetFieldWidth(32)
	a.cat = tview.NewDropDown().SetLabel(labelCategory).SetOptions(names, nil)
	a.cat.SetCurrentOption(-1)
	a.amount = newAmountField(labelAmount)

	a.form = tview.NewForm().
		AddFormItem(a.desc).
		AddFormItem(a.cat).
		AddFormItem(a.amount).
		AddButton("Adicionar despesa", a.submit)
	a.form.SetCancelFunc(func() { a.app.SetFocus(a.table) })
	a.form.SetBorder(true).SetTitle(" Nova despesa ")

	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetSelectedFunc(func(int, int) { a.recompute() })
	a.table.SetBorder(true).SetTitle(" Despesas ")
	a.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
			a.removeSelected()
			return nil
		case tcell.KeyTab, tcell.KeyEscape:
			a.app.SetFocus(a.form)
			return nil
		}
		return event
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 4, 0, false).
		AddItem(a.table, 0, 1, false)

	body := tview.NewFlex().
		AddItem(a.form, 0, 2, true).
		AddItem(right, 0, 3, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.footer, 1, 0, false)

	a.pages = tview.NewPages().AddPage(pageMain, root, true, true)
	a.app.SetRoot(a.pages, true).SetFocus(a.desc)
}

// Run blocks until the user quits.
func (a *App) Run() error {
	a.logger.Info("Terminal session started")
	return a.app.Run()
}

func (a *App) Stop() {
	a.app.Stop()
}

func (a *App) selectedCategory() string {
	idx, _ := a.cat.GetCurrentOption()
	if idx < 0 || idx >= len(a.catalog) {
		return ""
	}
	return a.catalog[idx].ID
}

func (a *App) submit() {
	in := services.NewEntryInput{
		Description: a.desc.GetText(),
		CategoryID:  a.selectedCategory(),
		Amount:      a.amount.GetText(),
	}

	_, sum, err := a.svc.AddEntry(a.ctx, a.ledgerID, in)
	stale := errors.Is(err, core.ErrAggregationParse)
	if err != nil && !stale {
		a.showAlert(core.AlertMessage(err))
		return
	}
	if !stale {
		a.renderTotals(sum)
	}

	if err := a.reloadList(); err != nil {
		a.logger.Error("Failed to reload expense list", applog.FieldError, err)
		a.showAlert(core.MsgListUpdateFailed)
		return
	}
	a.resetForm()
	if stale {
		a.showAlert(core.MsgAggregationParse)
	}
}

func (a *App) resetForm() {
	a.desc.SetText("")
	a.cat.SetCurrentOption(-1)
	a.amount.Clear()
	a.app.SetFocus(a.desc)
}

func (a *App) removeSelected() {
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	id, ok := cell.GetReference().(int64)
	if !ok {
		return
	}

	sum, err := a.svc.RemoveEntry(a.ctx, a.ledgerID, id)
	switch {
	case err == nil, errors.Is(err, core.ErrEntryNotFound):
		a.renderTotals(sum)
	case errors.Is(err, core.ErrAggregationParse):
		a.showAlert(core.MsgAggregationParse)
	default:
		a.logger.Error("Failed to remove expense", applog.FieldError, err, applog.FieldEntryID, id)
		a.showAlert(core.MsgTotalsFailed)
		return
	}
	if err := a.reloadList(); err != nil {
		a.logger.Error("Failed to reload expense list", applog.FieldError, err)
		a.showAlert(core.MsgTotalsFailed)
	}
}

func (a *App) recompute() {
	sum, err := a.svc.RecomputeTotals(a.ctx, a.ledgerID)
	switch {
	case err == nil:
		a.renderTotals(sum)
	case errors.Is(err, core.ErrAggregationParse):
		a.showAlert(core.MsgAggregationParse)
	default:
		a.logger.Error("Failed to recompute totals", applog.FieldError, err)
		a.showAlert(core.MsgTotalsFailed)
	}
}

func (a *App) reloadList() error {
	entries, err := a.svc.Entries(a.ctx, a.ledgerID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	a.renderList(entries)
	return nil
}

func (a *App) renderTotals(sum core.Summary) {
	symbol, total := sum.TotalParts()
	a.header.SetText(fmt.Sprintf("%d %s\n[::b]%s %s[::-]", sum.Count, sum.Label(), symbol, total))
}

func (a *App) renderList(entries []core.Entry) {
	a.table.Clear()
	if len(entries) == 0 {
		a.table.SetCell(0, 0, tview.NewTableCell("Nenhuma despesa").
			SetTextColor(colorMuted).
			SetSelectable(false))
		return
	}
	for row, e := range entries {
		symbol, amount := e.AmountParts()
		a.table.SetCell(row, 0, tview.NewTableCell(e.CategoryName).
			SetReference(e.ID).
			SetTextColor(colorMuted))
		a.table.SetCell(row, 1, tview.NewTableCell(tview.Escape(e.Description)).
			SetExpansion(1))
		a.table.SetCell(row, 2, tview.NewTableCell(symbol+" "+amount).
			SetAlign(tview.AlignRight))
	}
	a.table.Select(min(a.selectedRow(), len(entries)-1), 0)
}

func (a *App) selectedRow() int {
	row, _ := a.table.GetSelection()
	if row < 0 {
		return 0
	}
	return row
}

// showAlert blocks the screen with message until dismissed.
func (a *App) showAlert(message string) {
	if message == "" {
		return
	}
	previous := a.app.GetFocus()
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			a.pages.RemovePage(pageAlert)
			if previous != nil {
				a.app.SetFocus(previous)
			}
		})
	modal.SetBorderColor(colorDanger)
	a.pages.AddPage(pageAlert, modal, false, true)
	a.app.SetFocus(modal)
}
