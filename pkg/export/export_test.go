package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoster() Roster {
	return Roster{
		Title:   "MATH-7 - Mathematics 7",
		Headers: []string{"Student Number", "Last Name", "First Name"},
		Rows: [][]string{
			{"26-0001", "Reyes", "Ana"},
			{"26-0002", "Cruz, Jr.", "Ben"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	content, err := NewCSVExporter().Render(sampleRoster())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student Number,Last Name,First Name", lines[0])
	// Cells containing commas are quoted.
	assert.Contains(t, lines[2], `"Cruz, Jr."`)
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	roster := sampleRoster()
	roster.Rows = append(roster.Rows, []string{"only-one-cell"})
	_, err := NewCSVExporter().Render(roster)
	assert.Error(t, err)
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Roster{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	content, err := NewPDFExporter().Render(sampleRoster())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	assert.Greater(t, len(content), 500)
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Roster{})
	assert.Error(t, err)
}
