// Package devtools lets an external controller drive a running vio app over
// a WebSocket.
//
// The controller side runs a Bridge: an HTTP listener that accepts a single
// app connection on /ws and forwards calls to it. The app side dials the
// bridge with Connect and answers each request through a Controller,
// normally a *vio.App:
//
//	// controller process
//	b := devtools.NewBridge(devtools.WithAddr("localhost:3100"))
//	go b.Run(ctx)
//	raw, err := b.Call(ctx, devtools.MethodGetStore, nil)
//
//	// app process
//	conn, err := devtools.Connect(ctx, "ws://localhost:3100/ws", app,
//	    devtools.WithExecutor(loop.Post))
//
// Messages are JSON. A request is {"id", "method", "params"}; the response
// carries the same id and either "result" or "error": {"message"}.
package devtools

import (
	"encoding/json"
	"fmt"
)

// Methods understood by Handle.
const (
	MethodGetState                = "getState"
	MethodSetState                = "setState"
	MethodGetStore                = "getStore"
	MethodDispatch                = "dispatch"
	MethodNavigate                = "navigate"
	MethodGetComponentTree        = "getComponentTree"
	MethodGetRegisteredComponents = "getRegisteredComponents"
	MethodRemoveComponent         = "removeComponent"
	MethodBatch                   = "batch"
	MethodEmit                    = "emit"
	MethodGetEventHistory         = "getEventHistory"
)

// Request is sent by the bridge to the app.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Message string `json:"message"`
}

// RemoteError is returned by Bridge.Call when the app answers with an error.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// Success is the result of methods that return nothing else.
type Success struct {
	Success bool `json:"success"`
}

// NewResponse encodes result into a response for id.
func NewResponse(id uint64, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(id, fmt.Sprintf("encode result: %v", err))
	}
	return Response{ID: id, Result: data}
}

// NewErrorResponse builds an error response for id.
func NewErrorResponse(id uint64, message string) Response {
	return Response{ID: id, Error: &ErrorBody{Message: message}}
}

// Tool describes a bridge method for command-line and assistant front ends.
type Tool struct {
	Name        string
	Method      string
	Description string
	// Params lists the parameter names the method reads.
	Params []string
}

// Tools is the catalog of bridge methods.
var Tools = []Tool{
	{"vio_get_state", MethodGetState, "Get the local state of a component by its instance ID", []string{"instanceId"}},
	{"vio_set_state", MethodSetState, "Update the local state of a component (partial merge)", []string{"instanceId", "state"}},
	{"vio_get_store", MethodGetStore, "Get the global store state", nil},
	{"vio_dispatch", MethodDispatch, "Dispatch an action to the global store", []string{"action", "payload"}},
	{"vio_navigate", MethodNavigate, "Navigate to a route path", []string{"path"}},
	{"vio_get_component_tree", MethodGetComponentTree, "Get the component tree with IDs, names, and state", nil},
	{"vio_get_registered_components", MethodGetRegisteredComponents, "List all registered component names", nil},
	{"vio_remove_component", MethodRemoveComponent, "Unmount and remove a component by instance ID", []string{"instanceId"}},
	{"vio_batch", MethodBatch, "Execute several operations in order. Actions: setState, dispatch, removeComponent, navigate", []string{"operations"}},
	{"vio_emit", MethodEmit, "Emit an event on the event bus", []string{"event", "payload"}},
	{"vio_get_event_history", MethodGetEventHistory, "Get recent event bus history", nil},
}

// LookupTool finds a catalog entry by tool name or method name.
func LookupTool(name string) (Tool, bool) {
	for _, t := range Tools {
		if t.Name == name || t.Method == name {
			return t, true
		}
	}
	return Tool{}, false
}
