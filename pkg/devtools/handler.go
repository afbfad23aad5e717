package devtools

import (
	"encoding/json"
	"fmt"

	"github.com/go-drift/vio/pkg/errors"
	"github.com/go-drift/vio/pkg/events"
	"github.com/go-drift/vio/pkg/navigation"
	"github.com/go-drift/vio/pkg/vio"
)

// Controller is the app surface a bridge drives. *vio.App implements it.
type Controller interface {
	GetState(id string) map[string]any
	SetState(id string, partial map[string]any) error
	GetStore() map[string]any
	Dispatch(action string, payload any) error
	Navigate(path string) (*navigation.Match, error)
	ComponentTree() vio.TreeNode
	RegisteredComponents() []string
	RemoveComponent(id string)
	Batch(ops []vio.BatchOp) error
	Emit(eventType string, payload map[string]any)
	EventHistory() []events.Event
}

var _ Controller = (*vio.App)(nil)

type method func(c Controller, params json.RawMessage) (any, error)

var methods = map[string]method{
	MethodGetState: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			InstanceID string `json:"instanceId"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return c.GetState(p.InstanceID), nil
	},
	MethodSetState: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			InstanceID string         `json:"instanceId"`
			State      map[string]any `json:"state"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.State == nil {
			p.State = map[string]any{}
		}
		return Success{true}, c.SetState(p.InstanceID, p.State)
	},
	MethodGetStore: func(c Controller, _ json.RawMessage) (any, error) {
		return c.GetStore(), nil
	},
	MethodDispatch: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			Action  string `json:"action"`
			Payload any    `json:"payload"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return Success{true}, c.Dispatch(p.Action, p.Payload)
	},
	MethodNavigate: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		m, err := c.Navigate(p.Path)
		return navigateResult{Success: true, Matched: m != nil}, err
	},
	MethodGetComponentTree: func(c Controller, _ json.RawMessage) (any, error) {
		return c.ComponentTree(), nil
	},
	MethodGetRegisteredComponents: func(c Controller, _ json.RawMessage) (any, error) {
		names := c.RegisteredComponents()
		if names == nil {
			names = []string{}
		}
		return names, nil
	},
	MethodRemoveComponent: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			InstanceID string `json:"instanceId"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		c.RemoveComponent(p.InstanceID)
		return Success{true}, nil
	},
	MethodBatch: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			Operations []vio.BatchOp `json:"operations"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return Success{true}, c.Batch(p.Operations)
	},
	MethodEmit: func(c Controller, raw json.RawMessage) (any, error) {
		var p struct {
			Event   string         `json:"event"`
			Payload map[string]any `json:"payload"`
		}
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Event == "" {
			return nil, errors.New("devtools.emit", errors.KindProtocol, "missing event type")
		}
		c.Emit(p.Event, p.Payload)
		return Success{true}, nil
	},
	MethodGetEventHistory: func(c Controller, _ json.RawMessage) (any, error) {
		history := c.EventHistory()
		if history == nil {
			history = []events.Event{}
		}
		return history, nil
	},
}

type navigateResult struct {
	Success bool `json:"success"`
	Matched bool `json:"matched"`
}

// Handle runs one request against c. Unknown methods, decode failures,
// operation errors and panics all become error responses.
func Handle(c Controller, req Request) (resp Response) {
	fn, ok := methods[req.Method]
	if !ok {
		return NewErrorResponse(req.ID, "Unknown method: "+req.Method)
	}

	defer errors.RecoverWithCallback("devtools."+req.Method, func(r any) {
		resp = NewErrorResponse(req.ID, fmt.Sprintf("panic: %v", r))
	})

	result, err := fn(c, req.Params)
	if err != nil {
		return NewErrorResponse(req.ID, err.Error())
	}
	return NewResponse(req.ID, result)
}

// Methods returns the names Handle understands.
func Methods() []string {
	names := make([]string, 0, len(Tools))
	for _, t := range Tools {
		names = append(names, t.Method)
	}
	return names
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("devtools.decode", errors.KindProtocol, "invalid params: %v", err)
	}
	return nil
}
