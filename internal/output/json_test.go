package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/rosterfmt/internal/pipeline"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitSystemError, ExitCode(errors.New("inbox request failed (503)")))
	assert.Equal(t, ExitUserError, ExitCode(Usage(errors.New("no report matches"))))

	wrapped := fmt.Errorf("convert: %w", Usage(errors.New("bad profile")))
	assert.Equal(t, ExitUserError, ExitCode(wrapped))
	assert.Nil(t, Usage(nil))
}

func TestUsageUnwraps(t *testing.T) {
	sentinel := errors.New("report not found")
	err := Usage(fmt.Errorf("report %q: %w", "roster", sentinel))
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, `report "roster": report not found`, err.Error())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "inspect", map[string]int{"sheets": 3}))

	var got struct {
		OK      bool           `json:"ok"`
		Command string         `json:"command"`
		Version string         `json:"version"`
		Data    map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.OK)
	assert.Equal(t, "inspect", got.Command)
	assert.NotEmpty(t, got.Version)
	assert.Equal(t, 3, got.Data["sheets"])
}

func TestPrintResult(t *testing.T) {
	color.NoColor = true
	res := &pipeline.Result{
		Output: "roster.xlsx",
		Sheets: []pipeline.SheetResult{
			{Name: "Roster", Report: "roster", DataRows: 3, Table: "A6:E9"},
			{Name: "Overstayed", Report: "roster", View: true},
		},
		Duration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "Wrote roster.xlsx (2 sheets, 1.5s)")
	assert.Regexp(t, `Roster\s+report\s+3 rows\s+A6:E9`, out)
	assert.Regexp(t, `Overstayed\s+view\s+0 rows\s+-`, out)
}
