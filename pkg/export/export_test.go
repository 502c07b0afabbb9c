package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderIncludesFooterRow(t *testing.T) {
	data := Dataset{
		Headers: []string{"Item", "Amount"},
		Rows: []map[string]string{
			{"Item": "Upkeep", "Amount": "150.00"},
			{"Item": "Travel", "Amount": "80.00"},
		},
		Footer: map[string]string{"Item": "TOTAL", "Amount": "230.00"},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Item,Amount\nUpkeep,150.00\nTravel,80.00\nTOTAL,230.00\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data := Dataset{
		Headers: []string{"Item", "Amount"},
		Rows:    []map[string]string{{"Item": "Upkeep", "Amount": "150.00"}},
		Footer:  map[string]string{"Item": "TOTAL", "Amount": "150.00"},
	}

	out, err := NewPDFExporter().Render(data, "Allowance Statement")
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestCSVRenderLeavesCallerRowsUntouched(t *testing.T) {
	backing := []map[string]string{
		{"Item": "Upkeep", "Amount": "150.00"},
		{"Item": "Travel", "Amount": "80.00"},
		{"Item": "Lodging", "Amount": "40.00"},
	}
	data := Dataset{
		Headers: []string{"Item", "Amount"},
		Rows:    backing[:2],
		Footer:  map[string]string{"Item": "TOTAL", "Amount": "230.00"},
	}

	_, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Lodging", backing[2]["Item"], "rendering must not write through the caller's slice")
}
