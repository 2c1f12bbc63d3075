// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(Logger)
}

// New returns a new logger with the given context, derived from the current root.
func New(ctx ...any) Logger {
	return Root().With(ctx...)
}

// WithContext returns a logger carrying ctx that always writes through the
// root installed at call time, so package level loggers declared before
// SetDefault still honour it.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

type contextLogger struct {
	ctx []any
}

func (c *contextLogger) current() Logger {
	return Root().With(c.ctx...)
}

func (c *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(c.ctx)+len(ctx))
	merged = append(merged, c.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}

func (c *contextLogger) Trace(msg string, ctx ...any) { c.current().Trace(msg, ctx...) }
func (c *contextLogger) Debug(msg string, ctx ...any) { c.current().Debug(msg, ctx...) }
func (c *contextLogger) Info(msg string, ctx ...any)  { c.current().Info(msg, ctx...) }
func (c *contextLogger) Warn(msg string, ctx ...any)  { c.current().Warn(msg, ctx...) }
func (c *contextLogger) Error(msg string, ctx ...any) { c.current().Error(msg, ctx...) }
func (c *contextLogger) Crit(msg string, ctx ...any)  { c.current().Crit(msg, ctx...) }

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Enabled(ctx, level)
}

func (c *contextLogger) Handler() slog.Handler {
	return c.current().Handler()
}
