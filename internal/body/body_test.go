package body

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyBytes(t *testing.T) {
	b, err := Empty{}.Bytes("utf-8")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestJsonBytes(t *testing.T) {
	j := Json{Value: map[string]any{"a": 1}}
	b, err := j.Bytes("utf-8")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, float64(1), decoded["a"])
}

func TestStreamingDrains(t *testing.T) {
	chunks := []Body{
		Json{Value: map[string]any{"x": 1}},
		Json{Value: map[string]any{"y": 2}},
	}
	i := 0
	cleanedUp := false
	s := Streaming{
		Next: func(ctx context.Context) (Chunk, bool, error) {
			if i >= len(chunks) {
				return nil, true, nil
			}
			c := chunks[i]
			i++
			return c, false, nil
		},
		Cleanup: func() { cleanedUp = true },
	}

	b, err := s.Bytes("utf-8")
	require.NoError(t, err)
	assert.NotEmpty(t, b)
	assert.False(t, cleanedUp, "cleanup should only run on error/disconnect, not normal completion")
}
