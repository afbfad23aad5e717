package vio

import (
	"fmt"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/errors"
)

// Batch operation actions.
const (
	BatchSetState        = "setState"
	BatchDispatch        = "dispatch"
	BatchRemoveComponent = "removeComponent"
	BatchNavigate        = "navigate"
)

// Bus events bracketing a batch.
const (
	BatchStartEvent = "batch:start"
	BatchEndEvent   = "batch:end"
)

// BatchOp is one operation of a batch.
//
//   - setState: Target is the instance id, Payload the partial state map.
//   - dispatch: Payload is {"action": name, "value": payload}.
//   - removeComponent: Target is the instance id.
//   - navigate: Target is the path.
type BatchOp struct {
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Batch applies ops in order between "batch:start" and "batch:end" events.
// It stops at the first failing operation and returns its error; the end
// event is emitted either way.
func (a *App) Batch(ops []BatchOp) error {
	a.bus.Emit(BatchStartEvent, map[string]any{"operations": len(ops)})
	defer a.bus.Emit(BatchEndEvent, map[string]any{"operations": len(ops)})

	for i, op := range ops {
		if err := a.apply(op); err != nil {
			return fmt.Errorf("batch operation %d (%s): %w", i, op.Action, err)
		}
	}
	return nil
}

func (a *App) apply(op BatchOp) error {
	switch op.Action {
	case BatchSetState:
		partial, err := asMap(op.Payload)
		if err != nil {
			return err
		}
		return a.SetState(op.Target, partial)
	case BatchDispatch:
		p, err := asMap(op.Payload)
		if err != nil {
			return err
		}
		action, _ := p["action"].(string)
		if action == "" {
			return errors.New("vio.Batch", errors.KindProtocol, "dispatch operation without an action name")
		}
		return a.Dispatch(action, p["value"])
	case BatchRemoveComponent:
		a.RemoveComponent(op.Target)
		return nil
	case BatchNavigate:
		_, err := a.Navigate(op.Target)
		return err
	default:
		return errors.New("vio.Batch", errors.KindProtocol, "unknown batch action %q", op.Action)
	}
}

func asMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	case core.State:
		return m, nil
	}
	return nil, errors.New("vio.Batch", errors.KindProtocol, "payload must be an object, got %T", v)
}
