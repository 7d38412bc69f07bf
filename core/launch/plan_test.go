package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlan(t *testing.T) {
	const pid = 4507

	cases := map[string]struct {
		args     []string
		expected Plan
	}{
		"empty": {
			args:     nil,
			expected: Plan{Args: []string{}},
		},
		"plain": {
			args:     []string{"-la", "/tmp"},
			expected: Plan{Args: []string{"-la", "/tmp"}},
		},
		"background": {
			args:     []string{"10", "&"},
			expected: Plan{Args: []string{"10"}, Background: true},
		},
		"only-background": {
			args:     []string{"&"},
			expected: Plan{Args: []string{}, Background: true},
		},
		"ampersand-not-last": {
			args:     []string{"&", "x"},
			expected: Plan{Args: []string{"&", "x"}},
		},
		"pid": {
			args:     []string{"$$", "a$$", "$$b", "$", "$$"},
			expected: Plan{Args: []string{"4507", "a$$", "$$b", "$", "4507"}},
		},
		"input": {
			args:     []string{"-n", "<", "in.txt"},
			expected: Plan{Args: []string{"-n"}, Input: "in.txt"},
		},
		"output": {
			args:     []string{">", "out.txt", "-n"},
			expected: Plan{Args: []string{"-n"}, Output: "out.txt"},
		},
		"input-output-background": {
			args:     []string{"<", "in.txt", ">", "out.txt", "&"},
			expected: Plan{Args: []string{}, Input: "in.txt", Output: "out.txt", Background: true},
		},
		"output-before-input": {
			args:     []string{">", "out.txt", "<", "in.txt"},
			expected: Plan{Args: []string{}, Input: "in.txt", Output: "out.txt"},
		},
		"last-marker-wins": {
			args:     []string{"<", "a", "<", "b"},
			expected: Plan{Args: []string{"<", "a"}, Input: "b"},
		},
		"dangling-marker": {
			args:     []string{"x", "<"},
			expected: Plan{Args: []string{"x"}},
		},
		"pid-in-path": {
			args:     []string{">", "out.$$", ">", "$$"},
			expected: Plan{Args: []string{">", "out.$$"}, Output: "4507"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual := ParsePlan(tc.args, pid)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestParsePlan_doesNotModifyInput(t *testing.T) {
	args := []string{"$$", "<", "in", ">", "out", "&"}
	before := append([]string{}, args...)

	ParsePlan(args, 1)
	assert.Equal(t, before, args)
}

func TestParsePlan_properties(t *testing.T) {
	inputs := [][]string{
		{"a", "$$", "<", "f", "&"},
		{"$$", "$$", ">", "g"},
		{"<", "path", "x", "y", "z", "&"},
		{"q", "<", "p", ">", "o", "$$", "&"},
	}

	for _, args := range inputs {
		plan := ParsePlan(args, 99)

		if args[len(args)-1] == BackgroundToken {
			assert.True(t, plan.Background)
		}
		assert.NotContains(t, plan.Args, BackgroundToken)
		assert.NotContains(t, plan.Args, PIDToken)
		assert.NotContains(t, plan.Args, InputMarker)
		if plan.Input != "" {
			assert.NotContains(t, plan.Args, plan.Input)
		}
	}
}
