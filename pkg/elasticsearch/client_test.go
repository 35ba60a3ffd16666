package elasticsearch

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBulkBody(t *testing.T) {
	body, err := BuildBulkBody([]BulkOperation{
		{Action: "index", Index: "trades", ID: "1", Document: map[string]interface{}{"status": "success"}},
		{Action: "delete", Index: "trades", ID: "2", Document: map[string]interface{}{"ignored": true}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(body.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var action map[string]map[string]string
	require.NoError(t, sonic.UnmarshalString(lines[0], &action))
	assert.Equal(t, "trades", action["index"]["_index"])
	assert.Equal(t, "1", action["index"]["_id"])
	assert.JSONEq(t, `{"status":"success"}`, lines[1])

	require.NoError(t, sonic.UnmarshalString(lines[2], &action))
	assert.Equal(t, "2", action["delete"]["_id"])
}
