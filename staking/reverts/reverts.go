// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert so callers can decide how to adjust and resubmit.
type Kind uint8

const (
	Unknown Kind = iota
	InsufficientBalance
	InvalidPool
	OperatorShareError
	OnlyCallableByPoolOperator
	OnlyCallableByAuthorizedCaller
	OnlyCallableByExchange
	ExchangeAlreadyRegistered
	ExchangeNotRegistered
	PreviousEpochNotFinalized
	PoolNotFinalized
	BlockTimestampTooLow
	IntervalInvalid
	InvalidParamValue
	PoolIDOverflow
	OnlyCallableIfNotInCatastrophicFailure
	OnlyCallableIfInCatastrophicFailure
)

var kindNames = map[Kind]string{
	Unknown:                        "Unknown",
	InsufficientBalance:            "InsufficientBalance",
	InvalidPool:                    "InvalidPool",
	OperatorShareError:             "OperatorShareError",
	OnlyCallableByPoolOperator:     "OnlyCallableByPoolOperator",
	OnlyCallableByAuthorizedCaller: "OnlyCallableByAuthorizedCaller",
	OnlyCallableByExchange:         "OnlyCallableByExchange",
	ExchangeAlreadyRegistered:      "ExchangeAlreadyRegistered",
	ExchangeNotRegistered:          "ExchangeNotRegistered",
	PreviousEpochNotFinalized:      "PreviousEpochNotFinalized",
	PoolNotFinalized:               "PoolNotFinalized",
	BlockTimestampTooLow:           "BlockTimestampTooLow",
	IntervalInvalid:                "IntervalInvalid",
	InvalidParamValue:              "InvalidParamValue",
	PoolIDOverflow:                 "PoolIDOverflow",

	OnlyCallableIfNotInCatastrophicFailure: "OnlyCallableIfNotInCatastrophicFailure",
	OnlyCallableIfInCatastrophicFailure:    "OnlyCallableIfInCatastrophicFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Error() string {
	return e.kind.String() + ": " + e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind == kind
	}
	return false
}
