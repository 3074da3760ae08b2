package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/task"
	"taskgrid/internal/taskid"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	id := taskid.New(taskid.POST, "/widgets")
	meta := task.Metadata{AuthScheme: "Bearer", AuthCredential: "tok", TraceID: "t1", ClientID: "c1"}
	params := map[string]any{"name": "gadget"}
	tk := task.New(id, meta, params)

	raw, err := Marshal(tk)
	require.NoError(t, err)

	got, err := Unmarshal(raw)
	require.NoError(t, err)

	assert.Equal(t, "POST@/widgets", got.ID.DumpToStr())
	assert.Equal(t, "Bearer", got.Metadata.AuthScheme)
	assert.Equal(t, "tok", got.Metadata.AuthCredential)
	assert.Equal(t, "t1", got.Metadata.TraceID)
	assert.Equal(t, "gadget", got.Parameters["name"])
}

func TestUnmarshalRejectsMalformedJSON(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestUnmarshalRejectsMalformedTaskID(t *testing.T) {
	_, err := Unmarshal([]byte(`{"task_id":"no-at-sign","metadata":{},"parameters":{}}`))
	assert.Error(t, err)
}
