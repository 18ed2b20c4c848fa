package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Resolve(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
		{ModeMarkdown, true, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.Resolve(tt.isTTY))
		})
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestRenderer_Markdown(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeAuto)

	require.Equal(t, ModeMarkdown, r.EffectiveMode())
	r.Header(2, "Summary")
	r.KeyValue("Rows", "3")
	r.CellHeader(1, "per genre", "SELECT 1")
	r.Warning("careful")

	assert.Equal(t, "## Summary\n- **Rows:** 3\n### [1] per genre\n```sql\nSELECT 1\n```\n", out.String())
	assert.Equal(t, "! careful\n", errOut.String())
}

func TestRenderer_TextWithoutTTYHasNoANSI(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeText)

	r.Header(1, "Title")
	r.Success("done")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Title")
	assert.Contains(t, out.String(), "✓ done")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"rows": 3}))
	assert.JSONEq(t, `{"rows":3}`, out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "### A", FormatHeader(3, "A"))
	assert.Equal(t, "- **k:** v", FormatKeyValue("k", "v"))
	assert.Equal(t, "```\nx\n```", FormatCodeBlock("", "x\n"))
}
