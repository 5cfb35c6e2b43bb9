package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"despesas/internal/core"
)

// amountField is an input field whose text is rewritten as a BRL amount
// after every edit. The rewrite runs once the underlying handler has
// returned, never from inside tview's change notification.
type amountField struct {
	*tview.InputField
}

func newAmountField(label string) *amountField {
	return &amountField{
		InputField: tview.NewInputField().
			SetLabel(label).
			SetFieldWidth(20).
			SetPlaceholder("0,00"),
	}
}

// SetText stores text in its formatted form.
func (f *amountField) SetText(text string) *amountField {
	f.InputField.SetText(text)
	f.reformat()
	return f
}

// Clear empties the field without showing the zero amount.
func (f *amountField) Clear() {
	f.InputField.SetText("")
}

func (f *amountField) reformat() {
	text := f.GetText()
	if formatted := core.FormatAmountInput(text); formatted != text {
		f.InputField.SetText(formatted)
	}
}

func (f *amountField) InputHandler() func(*tcell.EventKey, func(tview.Primitive)) {
	handle := f.InputField.InputHandler()
	return func(event *tcell.EventKey, setFocus func(tview.Primitive)) {
		before := f.GetText()
		handle(event, setFocus)
		if f.GetText() != before {
			f.reformat()
		}
	}
}

func (f *amountField) PasteHandler() func(string, func(tview.Primitive)) {
	handle := f.InputField.PasteHandler()
	return func(pasted string, setFocus func(tview.Primitive)) {
		handle(pasted, setFocus)
		f.reformat()
	}
}
