package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOnePerLine(t *testing.T) {
	out, err := NewCSVExporter().Render([]string{"a@example.edu", "b@example.edu"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.edu\nb@example.edu\n", string(out))
}

func TestRenderEmpty(t *testing.T) {
	out, err := NewCSVExporter().Render(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
