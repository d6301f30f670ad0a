package expr_test

import (
	"testing"

	"github.com/dialflow/dialflow/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBool(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		vars      map[string]any
		want      bool
		wantErr   bool
	}{
		{
			name:      "string equality",
			condition: `intent == "sales"`,
			vars:      map[string]any{"intent": "sales"},
			want:      true,
		},
		{
			name:      "numeric comparison",
			condition: `attempts >= 3`,
			vars:      map[string]any{"attempts": 3},
			want:      true,
		},
		{
			name:      "false comparison",
			condition: `attempts >= 3`,
			vars:      map[string]any{"attempts": 1},
			want:      false,
		},
		{
			name:      "compound",
			condition: `vip && region == "emea"`,
			vars:      map[string]any{"vip": true, "region": "emea"},
			want:      true,
		},
		{
			name:      "syntax error",
			condition: `== nope`,
			vars:      map[string]any{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expr.EvalBool(tt.condition, tt.vars)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval(t *testing.T) {
	got, err := expr.Eval(`attempts + 1`, map[string]any{"attempts": 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, got)

	got, err = expr.Eval(`name.toUpperCase()`, map[string]any{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "ALICE", got)
}

func TestRender(t *testing.T) {
	vars := map[string]any{
		"name":   "Alice",
		"count":  2,
		"nested": map[string]any{"city": "Lisbon"},
	}

	assert.Equal(t, "Hello Alice", expr.Render("Hello {{name}}", vars))
	assert.Equal(t, "You have 2 items", expr.Render("You have {{count}} items", vars))
	assert.Equal(t, "From Lisbon", expr.Render("From {{nested.city}}", vars))

	// Unresolved placeholders render as empty, never error.
	assert.Equal(t, "Hello ", expr.Render("Hello {{missing}}", vars))
	assert.Equal(t, "plain text", expr.Render("plain text", vars))
}
