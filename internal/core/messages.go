package core

import "errors"

// Alert texts shown to the user, in the page's language.
const (
	MsgDuplicateCategory = "Já existe uma despesa com essa categoria."
	MsgAggregationParse  = "Não foi possível calcular o total. O valor não parece ser um número"
	MsgListUpdateFailed  = "Não foi possível atualizar a lista de despesas."
	MsgTotalsFailed      = "Não foi possível atualizar os totais."
	MsgUnknownCategory   = "Selecione uma categoria."
	MsgLedgerNotFound    = "Sessão expirada. Recarregue a página."
)

// AlertMessage picks the alert text for a failed add. Errors without a
// dedicated text fall back to the generic list failure.
func AlertMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateCategory):
		return MsgDuplicateCategory
	case errors.Is(err, ErrAggregationParse):
		return MsgAggregationParse
	case errors.Is(err, ErrUnknownCategory):
		return MsgUnknownCategory
	case errors.Is(err, ErrLedgerNotFound):
		return MsgLedgerNotFound
	default:
		return MsgListUpdateFailed
	}
}
