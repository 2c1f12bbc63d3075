// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

const timeFormat = "2006-01-02T15:04:05-0700"

// Format selects how records are written.
type Format string

const (
	// FormatAuto writes logfmt to terminals and JSON elsewhere.
	FormatAuto   Format = "auto"
	FormatLogfmt Format = "logfmt"
	FormatJSON   Format = "json"
)

// ParseFormat accepts auto, logfmt or json, case-insensitively. Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatLogfmt, FormatJSON:
		return f, nil
	}
	return "", errors.Errorf("unknown log format %q", s)
}

// NewHandler returns a handler writing records at or above level to w.
func NewHandler(w io.Writer, format Format, level slog.Leveler) slog.Handler {
	if format == FormatAuto {
		format = FormatJSON
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = FormatLogfmt
		}
	}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{ReplaceAttr: replaceAttr(false), Level: level})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{ReplaceAttr: replaceAttr(true), Level: level})
}

// LogfmtHandler logs every level in logfmt.
func LogfmtHandler(w io.Writer) slog.Handler {
	return NewHandler(w, FormatLogfmt, levelMaxVerbosity)
}

// JSONHandler logs every level as JSON.
func JSONHandler(w io.Writer) slog.Handler {
	return NewHandler(w, FormatJSON, levelMaxVerbosity)
}

type discardHandler struct{}

// DiscardHandler drops everything.
func DiscardHandler() slog.Handler { return discardHandler{} }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }

// replaceAttr shortens the time and level keys and prints amounts in
// decimal. Ids and events go through their String method.
func replaceAttr(logfmt bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				if logfmt {
					return slog.String("t", attr.Value.Time().Format(timeFormat))
				}
				return slog.Attr{Key: "t", Value: attr.Value}
			}
		case slog.LevelKey:
			if l, ok := attr.Value.Any().(slog.Level); ok {
				return slog.String("lvl", LevelString(l))
			}
		}

		switch v := attr.Value.Any().(type) {
		case time.Time:
			if logfmt {
				attr.Value = slog.StringValue(v.Format(timeFormat))
			}
		case *big.Int:
			attr.Value = slog.StringValue(orNil(v == nil, v.String))
		case *uint256.Int:
			attr.Value = slog.StringValue(orNil(v == nil, v.Dec))
		case fmt.Stringer:
			rv := reflect.ValueOf(v)
			attr.Value = slog.StringValue(orNil(rv.Kind() == reflect.Pointer && rv.IsNil(), v.String))
		}
		return attr
	}
}

func orNil(isNil bool, str func() string) string {
	if isNil {
		return "<nil>"
	}
	return str()
}
