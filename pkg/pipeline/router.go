package pipeline

import (
	"context"
	"sync"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

// Handler processes a routed message for one action type. rules holds the
// matching rules that requested the action, in rule order.
type Handler func(ctx context.Context, msg *models.Message, rules []*models.AlertRule) error

// Router dispatches messages to action handlers based on their matching
// rules. Handlers for distinct actions run concurrently; Route waits for
// all of them before returning. A handler error is logged and does not
// affect the other handlers or the message's path to storage.
type Router struct {
	mu       sync.RWMutex
	handlers map[models.ActionType]Handler
	metrics  Metrics
}

// NewRouter returns a Router with no handlers registered.
func NewRouter() *Router {
	return &Router{handlers: make(map[models.ActionType]Handler)}
}

// SetMetrics wires dispatch instrumentation.
func (r *Router) SetMetrics(m Metrics) {
	r.metrics = m
}

// RegisterHandler installs h for action, replacing any previous handler.
func (r *Router) RegisterHandler(action models.ActionType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = h
	logger.Debug("Registered action handler", "action", string(action))
}

// HasHandler reports whether a handler is registered for action.
func (r *Router) HasHandler(action models.ActionType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[action]
	return ok
}

// Route invokes the registered handlers for every action the matching
// rules request and reports whether the message should be dropped from
// persistence. Dropping happens only when a DISCARD handler is registered
// and a matching rule requested DISCARD; an unhandled action is a no-op.
// With no matching rules the message passes through untouched.
func (r *Router) Route(ctx context.Context, msg *models.Message, rules []*models.AlertRule) bool {
	if len(rules) == 0 {
		return false
	}

	rulesByAction := make(map[models.ActionType][]*models.AlertRule)
	for _, rule := range rules {
		for _, action := range rule.Actions {
			rulesByAction[action] = append(rulesByAction[action], rule)
		}
	}

	type dispatch struct {
		action  models.ActionType
		handler Handler
		rules   []*models.AlertRule
	}

	r.mu.RLock()
	dispatches := make([]dispatch, 0, len(rulesByAction))
	for action, actionRules := range rulesByAction {
		if h, ok := r.handlers[action]; ok {
			dispatches = append(dispatches, dispatch{action: action, handler: h, rules: actionRules})
		}
	}
	_, discardHandled := r.handlers[models.ActionDiscard]
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, d := range dispatches {
		wg.Add(1)
		go func(d dispatch) {
			defer wg.Done()
			if err := d.handler(ctx, msg, d.rules); err != nil {
				logger.Error("Action handler failed",
					"action", string(d.action),
					"message_id", msg.ID,
					"error", err)
			}
			if r.metrics != nil {
				r.metrics.RecordActionDispatch(string(d.action))
			}
		}(d)
	}
	wg.Wait()

	_, discardRequested := rulesByAction[models.ActionDiscard]
	return discardHandled && discardRequested
}
