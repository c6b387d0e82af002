package templating_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpilotio/node_agent_init/templating"
)

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		path    string
		content string
		valid   bool
	}{
		{"json", "/etc/node_agent/tasks.json", `{"a": [1, 2]}`, true},
		{"json upper ext", "TASKS.JSON", `[]`, true},
		{"bad json", "tasks.json", `{"a": }`, false},
		{"yaml", "cfg.yaml", "a:\n  - 1\n", true},
		{"yml", "cfg.yml", "a: b\n", true},
		{"bad yaml", "cfg.yaml", "a: [1, 2\n", false},
		{"unknown ext", "cfg.conf", `{{{`, true},
	}

	for _, tc := range testcases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := templating.ValidateDocument(
				tc.path, []byte(tc.content),
			)
			if tc.valid {
				assert.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, templating.ErrInvalidDocument)
		})
	}
}
