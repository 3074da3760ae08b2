// Package envelope implements the JSON task envelope pub/sub and queue
// transports exchange with a broker (spec.md §6): {"task_id":"METHOD@path",
// "metadata":{...}, "parameters":{...}}.
package envelope

import (
	"encoding/json"
	"fmt"

	"taskgrid/internal/task"
	"taskgrid/internal/taskid"
)

// wireMetadata is task.Metadata's wire shape.
type wireMetadata struct {
	AuthScheme     string         `json:"auth_scheme,omitempty"`
	AuthCredential string         `json:"auth_credential,omitempty"`
	TraceID        string         `json:"trace_id,omitempty"`
	ClientID       string         `json:"client_id,omitempty"`
	State          map[string]any `json:"state,omitempty"`
}

// Envelope is the broker wire format for a Task (§6).
type Envelope struct {
	TaskID     string         `json:"task_id"`
	Metadata   wireMetadata   `json:"metadata"`
	Parameters map[string]any `json:"parameters"`
}

// FromTask serializes t into its wire envelope.
func FromTask(t *task.Task) Envelope {
	return Envelope{
		TaskID: t.ID.DumpToStr(),
		Metadata: wireMetadata{
			AuthScheme:     t.Metadata.AuthScheme,
			AuthCredential: t.Metadata.AuthCredential,
			TraceID:        t.Metadata.TraceID,
			ClientID:       t.Metadata.ClientID,
			State:          t.Metadata.State,
		},
		Parameters: t.Parameters,
	}
}

// Marshal serializes t as the JSON bytes a broker message carries.
func Marshal(t *task.Task) ([]byte, error) {
	return json.Marshal(FromTask(t))
}

// ToTask reconstructs a Task from a decoded Envelope. Only static TaskIDs
// round-trip through the "METHOD@path" form (§8), matching the envelope's
// use as a dispatch target rather than a route pattern.
func (e Envelope) ToTask() (*task.Task, error) {
	id, err := taskid.LoadFromStr(e.TaskID)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	meta := task.Metadata{
		AuthScheme:     e.Metadata.AuthScheme,
		AuthCredential: e.Metadata.AuthCredential,
		TraceID:        e.Metadata.TraceID,
		ClientID:       e.Metadata.ClientID,
		State:          e.Metadata.State,
	}
	return task.New(id, meta, e.Parameters), nil
}

// Unmarshal parses a broker message's raw bytes into a Task.
func Unmarshal(raw []byte) (*task.Task, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("envelope: invalid json: %w", err)
	}
	return env.ToTask()
}
