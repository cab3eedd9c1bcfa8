package service

import "github.com/carson-networks/finance-ledger/internal/ledger"

// FailureKind tells callers why an operation did not succeed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureUnauthenticated
	FailureStore
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureUnauthenticated:
		return "unauthenticated"
	case FailureStore:
		return "store"
	case FailureValidation:
		return "validation"
	}
	return "unknown"
}

// Result is what every repository operation returns. Message is always set
// and is fit to show to the user. Errors is only set for FailureValidation.
type Result[T any] struct {
	Success bool
	Message string
	Data    T
	Kind    FailureKind
	Errors  ledger.FieldErrors
}

func succeeded[T any](message string, data T) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

func failed[T any](kind FailureKind, message string) Result[T] {
	return Result[T]{Kind: kind, Message: message}
}

const (
	MessageUnauthenticated = "Usuário não autenticado."

	MessageAdded        = "Transação adicionada com sucesso!"
	MessageAddFailed    = "Erro ao adicionar transação."
	MessageListed       = "Transações carregadas."
	MessageListFailed   = "Erro ao buscar transações."
	MessageUpdated      = "Transação atualizada com sucesso!"
	MessageUpdateFailed = "Erro ao atualizar transação."
	MessageRemoved      = "Transação excluída com sucesso!"
	MessageRemoveFailed = "Erro ao excluir transação."
	MessageDashboard    = "Painel carregado."
)
