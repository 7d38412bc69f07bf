package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"not escaped", "not escaped"},
		{`newline\n`, "newline\n"},
		{`double-escape\\n`, `double-escape\n`},
		// Octal
		{`\07`, string(rune(7))},
		{`\011`, "\t"},
		{`\0101`, "A"},
		{`\033[1m`, "\x1b[1m"},
		// Hex
		{`\x7`, string(rune(07))},
		{`\x9`, "\t"},
		{`\x4A`, "J"},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual := unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestPrompt(t *testing.T) {
	cases := map[string]struct {
		prompt   string
		cwd      string
		expected string
	}{
		"default":        {prompt: ": ", cwd: "/tmp", expected: ": "},
		"cwd":            {prompt: `\w\$ `, cwd: "/tmp", expected: "/tmp$ "},
		"home":           {prompt: `\w\$ `, cwd: testHome, expected: "~$ "},
		"under-home":     {prompt: `[\w] `, cwd: testHome + "/src", expected: "[~/src] "},
		"color-escape":   {prompt: `\033[01;34m\w\033[00m: `, cwd: "/tmp", expected: "\x1b[01;34m/tmp\x1b[00m: "},
		"escapes-in-cwd": {prompt: `\w> `, cwd: `/tmp/a\n\033\$`, expected: `/tmp/a\n\033\$> `},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s := newTestShell(t)
			s.Prompt = tc.prompt
			s.Getwd = func() (string, error) { return tc.cwd, nil }

			assert.Equal(t, tc.expected, s.prompt())
		})
	}
}
