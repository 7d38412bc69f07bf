package commands

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-7]{1,3}`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F]{1,2}`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\a`, "\a", // alert
	)
)

// unescape decodes backslash escapes, octal escapes start with \0 like \033.
func unescape(s string) string {
	decode := func(base int) func(string) string {
		return func(arg string) string {
			out, err := strconv.ParseUint(arg[2:], base, 8)
			if err != nil {
				return arg
			}
			return string(rune(out))
		}
	}

	s = unescapeOctal.ReplaceAllStringFunc(s, decode(8))
	s = unescapeHex.ReplaceAllStringFunc(s, decode(16))
	return unescapeReplace.Replace(s)
}

// prompt expands the configured prompt. Escapes are decoded and \$ becomes a
// literal $ before \w is replaced by the working directory, with the home
// directory abbreviated to ~.
func (s *Shell) prompt() string {
	prompt := strings.ReplaceAll(unescape(s.Prompt), `\$`, "$")

	if strings.Contains(prompt, `\w`) {
		pwd, err := s.Getwd()
		if err != nil {
			pwd = "?"
		}
		if home, err := s.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(pwd, home) {
			pwd = "~" + strings.TrimPrefix(pwd, home)
		}
		prompt = strings.ReplaceAll(prompt, `\w`, pwd)
	}

	return prompt
}
