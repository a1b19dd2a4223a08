package command

import (
	"testing"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSegment тестирует разбор одного сегмента команды
func TestParseSegment(t *testing.T) {
	tests := []struct {
		name       string
		segment    string
		wantOp     string
		wantParams map[string]string
	}{
		{
			name:       "full thumbnail",
			segment:    "thumbnail,w_128,h_128,m_n",
			wantOp:     "thumbnail",
			wantParams: map[string]string{"w": "128", "h": "128", "m": "n"},
		},
		{
			name:       "value keeps later underscores",
			segment:    "resize,w_1_0",
			wantOp:     "resize",
			wantParams: map[string]string{"w": "1_0"},
		},
		{
			name:       "percent encoded",
			segment:    "fit%2Cw_10%2Ch_20",
			wantOp:     "fit",
			wantParams: map[string]string{"w": "10", "h": "20"},
		},
		{
			name:       "unknown operation still parses structurally",
			segment:    "rotate,w_10,h_10",
			wantOp:     "rotate",
			wantParams: map[string]string{"w": "10", "h": "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, params, err := ParseSegment(tt.segment)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, op)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestParseSegmentErrors(t *testing.T) {
	_, _, err := ParseSegment("thumbnail")
	assert.ErrorIs(t, err, entity.ErrMalformedSegment)

	_, _, err = ParseSegment("thumbnail,")
	assert.ErrorIs(t, err, entity.ErrMalformedParameter)

	_, _, err = ParseSegment("thumbnail,w_1,h")
	assert.ErrorIs(t, err, entity.ErrMalformedParameter)

	_, _, err = ParseSegment("fit%zz,w_1")
	assert.ErrorIs(t, err, entity.ErrMalformedSegment)
}

func TestNewOperationRejectsUnknownKind(t *testing.T) {
	_, err := NewOperation("rotate", map[string]string{"w": "10", "h": "10"})
	assert.ErrorIs(t, err, entity.ErrUnknownOperation)

	_, err = NewOperation("Thumbnail", map[string]string{"w": "10", "h": "10"})
	assert.ErrorIs(t, err, entity.ErrUnknownOperation)
}
