package core

const (
	labelSingular = "despesa"
	labelPlural   = "despesas"
)

// Summary is the derived count and total of a ledger.
type Summary struct {
	Count int
	Total Money
}

// CountLabel is singular only for exactly one entry; zero reads as plural.
func CountLabel(count int) string {
	if count == 1 {
		return labelSingular
	}
	return labelPlural
}

func (s Summary) Label() string {
	return CountLabel(s.Count)
}

// TotalParts returns the total split like a list item amount.
func (s Summary) TotalParts() (symbol, amount string) {
	return SplitCurrency(FormatBRL(s.Total))
}
