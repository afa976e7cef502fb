package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpad/internal/cli/testutil"
	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

func TestCompleteCommand(t *testing.T) {
	cfg := testutil.SQLiteConfig(testutil.SetupTestDatabase(t), "table")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "lowercase keyword",
			args: []string{"select * fr"},
			want: "from: 9\nfrom\n",
		},
		{
			name: "shouted keyword",
			args: []string{"SELECT * FR"},
			want: "from: 9\nFROM\n",
		},
		{
			name: "catalog names",
			args: []string{"SELECT * FROM ci"},
			want: "from: 14\ncities\ncity\n",
		},
		{
			name: "cursor inside the text",
			args: []string{"select popu from cities", "--cursor", "11"},
			want: "from: 7\npopulation\n",
		},
		{
			name: "nothing typed",
			args: []string{""},
			want: "from: 0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestCommand(t, NewCompleteCommand(), cfg)
			require.NoError(t, tc.Run(tt.args...))
			assert.Equal(t, tt.want, tc.Output())
		})
	}
}

func TestCompleteCommand_JSON(t *testing.T) {
	cfg := testutil.SQLiteConfig(testutil.SetupTestDatabase(t), "json")
	tc := testutil.NewTestCommand(t, NewCompleteCommand(), cfg)

	require.NoError(t, tc.Run("select * from big"))
	assert.JSONEq(t, `{"from": 14, "options": ["big_cities"]}`, tc.Output())
}

func TestRenderCompletion_NoOptionsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderCompletion(&buf, completion.Result{From: 3}, "json"))
	assert.JSONEq(t, `{"from": 3, "options": []}`, buf.String())
}
