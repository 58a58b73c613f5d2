// Package dispatch maps tool names to handlers, validates arguments against
// each tool's declared shape, and runs every call inside its own transaction.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/internal/platform/db"
)

// Handler runs a tool with validated arguments. The context carries the
// call's transaction, so repositories pick it up via db.TxFromContext.
type Handler func(ctx context.Context, args Args) (any, error)

type Tool struct {
	Name        string
	Description string
	Params      []Param
	// ReadOnly tools run in a repeatable-read, read-only transaction.
	ReadOnly bool
	// Permission is the code an authenticated caller must hold. Empty means
	// any caller.
	Permission string
	Handler    Handler
}

var toolNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Observer is told about every finished call. outcome is "ok" or the
// apperr kind returned to the caller.
type Observer interface {
	ObserveCall(tool, outcome string, d time.Duration)
}

type Registry struct {
	tools    map[string]*Tool
	order    []string
	txs      db.TxBeginner
	timeout  time.Duration
	logger   zerolog.Logger
	observer Observer
}

func NewRegistry(txs db.TxBeginner, timeout time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		txs:     txs,
		timeout: timeout,
		logger:  logger.With().Str("component", "dispatch").Logger(),
	}
}

// SetObserver installs o; nil disables observation.
func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

// Register adds a tool. Names must be unique snake_case and every parameter
// must be named once with a known type.
func (r *Registry) Register(t Tool) error {
	if !toolNameRe.MatchString(t.Name) {
		return fmt.Errorf("tool name %q is not snake_case", t.Name)
	}
	if _, dup := r.tools[t.Name]; dup {
		return fmt.Errorf("tool %q registered twice", t.Name)
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}
	seen := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("tool %q: parameter %q is empty or duplicated", t.Name, p.Name)
		}
		seen[p.Name] = true
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate, TypeTimestamp:
		default:
			return fmt.Errorf("tool %q: parameter %q has unknown type %q", t.Name, p.Name, p.Type)
		}
	}
	r.tools[t.Name] = &t
	r.order = append(r.order, t.Name)
	return nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Call validates and runs one tool invocation. A non-nil error is always an
// *apperr.Error with a caller-safe message; the transaction has been rolled
// back by the time it is returned.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (result any, err error) {
	start := time.Now()
	callID := uuid.NewString()

	defer func() {
		elapsed := time.Since(start)
		outcome := "ok"
		evt := r.logger.Info()
		if err != nil {
			kind := apperr.KindOf(err)
			outcome = string(kind)
			evt = r.logger.Warn().Str("kind", string(kind))
			if kind == apperr.KindInternal {
				evt = r.logger.Error().Str("kind", string(kind)).Err(err)
			}
		}
		if p := auth.PrincipalFromContext(ctx); p != nil {
			evt = evt.Int64("user_id", p.UserID)
		}
		evt.Str("call_id", callID).
			Str("tool", name).
			Dur("duration", elapsed).
			Msg("tool call")
		if r.observer != nil {
			r.observer.ObserveCall(name, outcome, elapsed)
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("unknown tool %q", name))
	}
	if p := auth.PrincipalFromContext(ctx); p != nil && t.Permission != "" && !p.Can(t.Permission) {
		return nil, apperr.Forbidden(t.Permission)
	}

	args, err := Decode(t.Params, raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := db.ReadWrite
	if t.ReadOnly {
		opts = db.ReadOnly
	}

	err = r.run(ctx, t, opts, args, &result)
	if err != nil {
		return nil, db.Classify(err)
	}
	return result, nil
}

func (r *Registry) run(ctx context.Context, t *Tool, opts pgx.TxOptions, args Args, out *any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("tool", t.Name).Str("panic", fmt.Sprint(p)).Msg("tool handler panicked")
			err = apperr.New(apperr.KindInternal, "internal error")
		}
	}()
	return db.WithTx(ctx, r.txs, opts, func(ctx context.Context) error {
		res, err := t.Handler(ctx, args)
		if err != nil {
			return err
		}
		*out = res
		return nil
	})
}
