package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/rs/zerolog"
)

// MaxDispatchAttempts bounds the number of times one call is sent before a
// run of stale-location answers is reported as domain.ErrDispatchExhausted.
const MaxDispatchAttempts = 3

type DispatcherConfig struct {
	Self domain.NodeID
	// CallTimeout applies to each remote call. Zero leaves the caller's
	// context deadline as the only limit.
	CallTimeout time.Duration
}

type Dispatcher struct {
	cfg       DispatcherConfig
	tracker   *ReferenceTracker
	resolver  *LocationResolver
	heap      ports.HeapManager
	invoker   ports.Invoker
	codec     ports.ArgsCodec
	transport ports.Transport
	logger    zerolog.Logger
}

func NewDispatcher(
	cfg DispatcherConfig,
	tracker *ReferenceTracker,
	resolver *LocationResolver,
	heap ports.HeapManager,
	invoker ports.Invoker,
	codec ports.ArgsCodec,
	transport ports.Transport,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		tracker:   tracker,
		resolver:  resolver,
		heap:      heap,
		invoker:   invoker,
		codec:     codec,
		transport: transport,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) Self() domain.NodeID {
	return d.cfg.Self
}

// Execute runs operation on the object wherever it lives. The calling session
// is registered as a referrer before anything else, whatever the outcome.
// Errors returned by the operation itself are passed through unchanged.
func (d *Dispatcher) Execute(ctx context.Context, objectID domain.ObjectID, operation string, args []any, session domain.SessionID) (any, error) {
	d.tracker.AddSessionReference(objectID, session)

	owner, err := d.initialOwner(ctx, objectID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	for attempt := 1; ; attempt++ {
		if owner == d.cfg.Self {
			result, err := d.invoker.Invoke(ctx, objectID, operation, args)
			if err != nil {
				return nil, err
			}
			d.registerResult(result, session)
			return result, nil
		}

		if payload == nil {
			payload, err = d.codec.EncodeArgs(args)
			if err != nil {
				return nil, fmt.Errorf("encode arguments for %s: %w", operation, err)
			}
		}

		raw, err := d.callRemote(domain.WithSession(ctx, session), owner, objectID, operation, payload)
		if err == nil {
			result, err := d.codec.DecodeResult(raw)
			if err != nil {
				return nil, fmt.Errorf("decode result of %s: %w", operation, err)
			}
			d.registerResult(result, session)
			return result, nil
		}
		if !errors.Is(err, domain.ErrStaleLocation) {
			return nil, err
		}

		d.resolver.Invalidate(objectID)
		d.logger.Debug().
			Str("object", objectID.String()).
			Str("owner", owner.String()).
			Int("attempt", attempt).
			Msg("stale location")

		if attempt >= MaxDispatchAttempts {
			return nil, fmt.Errorf("dispatch %s on %s after %d attempts: %w (last: %v)", operation, objectID, attempt, domain.ErrDispatchExhausted, err)
		}

		owner, err = d.resolver.Resolve(ctx, objectID)
		if err != nil {
			return nil, err
		}
	}
}

// Serve handles a call forwarded by a peer. Objects that are not resident here
// are answered with a stale-location error so the caller re-resolves.
func (d *Dispatcher) Serve(ctx context.Context, objectID domain.ObjectID, operation string, payload []byte) ([]byte, error) {
	owned, err := d.ownsObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, &domain.RemoteError{Kind: domain.RemoteErrorStaleLocation, Node: d.cfg.Self, Message: "object not hosted here"}
	}

	session, hasSession := domain.SessionFromContext(ctx)
	if hasSession {
		d.tracker.AddSessionReference(objectID, session)
	}

	args, err := d.codec.DecodeArgs(payload)
	if err != nil {
		return nil, fmt.Errorf("decode arguments for %s: %w", operation, err)
	}

	result, err := d.invoker.Invoke(ctx, objectID, operation, args)
	if err != nil {
		return nil, err
	}
	if hasSession {
		d.registerResult(result, session)
	}

	encoded, err := d.codec.EncodeResult(result)
	if err != nil {
		return nil, fmt.Errorf("encode result of %s: %w", operation, err)
	}
	return encoded, nil
}

// ownsObject reports whether this node hosts objectID: either it is resident
// in the local heap or the naming service lists this node as its owner.
func (d *Dispatcher) ownsObject(ctx context.Context, objectID domain.ObjectID) (bool, error) {
	resident, err := d.heap.IsResident(ctx, objectID)
	if err != nil {
		return false, fmt.Errorf("check residency of %s: %w", objectID, err)
	}
	if resident {
		return true, nil
	}

	owner, err := d.resolver.Resolve(ctx, objectID)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return owner == d.cfg.Self, nil
}

func (d *Dispatcher) initialOwner(ctx context.Context, objectID domain.ObjectID) (domain.NodeID, error) {
	if d.heap != nil {
		if hint, ok := d.heap.OwnerHint(ctx, objectID); ok && !hint.IsZero() {
			return hint, nil
		}
	}
	return d.resolver.Resolve(ctx, objectID)
}

func (d *Dispatcher) callRemote(ctx context.Context, owner domain.NodeID, objectID domain.ObjectID, operation string, payload []byte) ([]byte, error) {
	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	raw, err := d.transport.Call(callCtx, owner, objectID, operation, payload)
	if err == nil {
		return raw, nil
	}

	if errors.Is(err, domain.ErrRemoteTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("call %s on %s at %s: %w", operation, objectID, owner, domain.ErrRemoteTimeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("call %s on %s at %s: %w", operation, objectID, owner, ctxErr)
	}

	return nil, err
}

func (d *Dispatcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, d.cfg.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// registerResult makes the caller a referrer of every object handed back to it.
func (d *Dispatcher) registerResult(result any, session domain.SessionID) {
	switch v := result.(type) {
	case domain.ObjectID:
		d.tracker.AddSessionReference(v, session)
	case []domain.ObjectID:
		for _, id := range v {
			d.tracker.AddSessionReference(id, session)
		}
	case []any:
		for _, item := range v {
			if id, ok := item.(domain.ObjectID); ok {
				d.tracker.AddSessionReference(id, session)
			}
		}
	}
}
