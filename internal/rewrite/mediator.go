// Package rewrite turns a natural-language instruction into an
// all-or-nothing replacement of a SourceBundle using a generative text
// service.
package rewrite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/devplayground/playground/pkg/core"
)

// Completer sends a prompt to a generative text service and returns the
// raw text of its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Mediator validates instructions, prompts the completer and validates
// its reply. It never mutates the bundle it is given.
type Mediator struct {
	completer Completer
	logger    *slog.Logger
	timeout   time.Duration
}

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger sets the mediator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTimeout bounds each completer call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(m *Mediator) { m.timeout = d }
}

// NewMediator creates a mediator. A nil completer makes every valid
// request fail with "generation failed".
func NewMediator(completer Completer, opts ...Option) *Mediator {
	m := &Mediator{
		completer: completer,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether a completer is configured.
func (m *Mediator) Available() bool {
	return m != nil && m.completer != nil
}

// Rewrite applies instruction to bundle. The result carries either a
// complete new bundle or a failure reason, never a partial bundle.
func (m *Mediator) Rewrite(ctx context.Context, bundle core.SourceBundle, instruction string) core.RewriteResult {
	start := time.Now()
	req := core.RewriteRequest{Bundle: bundle, Instruction: instruction}

	instr, ok := req.TrimmedInstruction()
	if !ok {
		return m.finish(start, 0, core.RewriteFailure(core.RewriteRejected, core.ReasonInstructionRequired))
	}
	if m.completer == nil {
		return m.finish(start, len(instr), core.RewriteFailure(core.RewriteFailed, core.ReasonGenerationFailed))
	}

	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	raw, err := m.completer.Complete(callCtx, BuildPrompt(req.Bundle, instr))

	// A cancelled request never applies a late reply.
	if ctx.Err() != nil {
		return m.finish(start, len(instr), core.RewriteFailure(core.RewriteCancelled, core.ReasonCancelled))
	}
	if err != nil {
		m.logger.Warn("completer failed", slog.String("error", err.Error()))
		return m.finish(start, len(instr), core.RewriteFailure(core.RewriteFailed, core.ReasonGenerationFailed))
	}

	next, err := ParseResponse(raw)
	if err != nil {
		reason := core.ReasonInvalidFormat
		if errors.Is(err, ErrInvalidShape) {
			reason = core.ReasonInvalidShape
		}
		return m.finish(start, len(instr), core.RewriteFailure(core.RewriteFailed, reason))
	}

	return m.finish(start, len(instr), core.RewriteSuccess(next))
}

func (m *Mediator) finish(start time.Time, instructionLen int, res core.RewriteResult) core.RewriteResult {
	level := slog.LevelInfo
	if res.Status == core.RewriteFailed {
		level = slog.LevelWarn
	}
	m.logger.Log(context.Background(), level, "rewrite finished",
		slog.String("status", string(res.Status)),
		slog.String("reason", res.Reason),
		slog.Int("instruction_len", instructionLen),
		slog.Duration("duration", time.Since(start)))
	return res
}
