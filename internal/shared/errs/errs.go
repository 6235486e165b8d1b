package errs

import (
	"errors"
	"fmt"
)

// Kind agrupa os códigos pela forma como o chamador deve reagir
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindPhase         Kind = "phase"
	KindAuthorization Kind = "authorization"
	KindArithmetic    Kind = "arithmetic"
	KindCapacity      Kind = "capacity"
	KindDoubleClaim   Kind = "double_claim"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindFunds         Kind = "funds"
)

// Error é um erro de domínio com código numérico estável
// Os valores são sentinelas: compare com errors.Is
type Error struct {
	Code    uint32
	Name    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// Códigos começam em 6000 e nunca são renumerados
const baseCode uint32 = 6000

var registry []*Error

func define(name string, kind Kind, msg string) *Error {
	e := &Error{Code: baseCode + uint32(len(registry)), Name: name, Kind: kind, Message: msg}
	registry = append(registry, e)
	return e
}

var (
	InvalidFeeConfig          = define("InvalidFeeConfig", KindConfiguration, "fee basis points exceed the configured cap")
	FeeCalculationFailed      = define("FeeCalculationFailed", KindArithmetic, "fee computation is degenerate")
	InvalidAddressDerivation  = define("InvalidAddressDerivation", KindValidation, "supplied address does not match the derived address")
	InvalidProgramReference   = define("InvalidProgramReference", KindValidation, "supplied currency reference is not the configured one")
	AlreadyInitialized        = define("AlreadyInitialized", KindConfiguration, "already initialized")
	NotInitialized            = define("NotInitialized", KindConfiguration, "game config is not initialized")
	Unauthorized              = define("Unauthorized", KindAuthorization, "caller is not allowed to perform this operation")
	InvalidAmount             = define("InvalidAmount", KindValidation, "amount is out of bounds")
	InsufficientBalance       = define("InsufficientBalance", KindFunds, "escrow balance is insufficient")
	InvalidTimeParameters     = define("InvalidTimeParameters", KindValidation, "round duration is out of bounds")
	StaleRoundID              = define("StaleRoundID", KindPhase, "expected round id does not match the round counter")
	RoundStillOpen            = define("RoundStillOpen", KindPhase, "previous round has not been wound down")
	InvalidPhase              = define("InvalidPhase", KindPhase, "round is not in the required phase")
	BetWindowClosed           = define("BetWindowClosed", KindPhase, "betting window has closed")
	CapacityExceeded          = define("CapacityExceeded", KindCapacity, "participant table is full")
	InvalidRevealedSeed       = define("InvalidRevealedSeed", KindValidation, "revealed seed does not match the commitment")
	NoParticipants            = define("NoParticipants", KindArithmetic, "round has no participants")
	NotWinner                 = define("NotWinner", KindAuthorization, "caller is not the round winner")
	AlreadyClaimed            = define("AlreadyClaimed", KindDoubleClaim, "already claimed")
	NotEntitled               = define("NotEntitled", KindAuthorization, "caller has no reward entitlement in this round")
	ArithmeticOverflow        = define("ArithmeticOverflow", KindArithmetic, "arithmetic overflow")
	AccountNotFound           = define("AccountNotFound", KindNotFound, "account not found")
	AccountExists             = define("AccountExists", KindConfiguration, "account already exists")
	TransferAmountLessThanFee = define("TransferAmountLessThanFee", KindValidation, "transfer amount does not cover the transfer fee")
	InsufficientFunds         = define("InsufficientFunds", KindFunds, "token account balance is insufficient")
	InvalidCapacity           = define("InvalidCapacity", KindValidation, "round capacity is out of bounds")
)

// All devolve os erros registrados em ordem de código
func All() []*Error {
	out := make([]*Error, len(registry))
	copy(out, registry)
	return out
}

// ByCode procura o erro pelo código numérico
func ByCode(code uint32) (*Error, bool) {
	if code < baseCode || int(code-baseCode) >= len(registry) {
		return nil, false
	}
	return registry[code-baseCode], true
}

// As extrai o erro de domínio de uma cadeia embrulhada com %w
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Wrap adiciona contexto mantendo o sentinela comparável
func Wrap(e *Error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), e)
}

// Is é um atalho para errors.Is com um sentinela de domínio
func Is(err error, target *Error) bool { return errors.Is(err, target) }
