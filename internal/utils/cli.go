package utils

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrEmptyLine = errors.New("empty command line")

// SplitStringIntoCommandAndArguments splits a REPL line the way a shell
// would, so quoted keys and values may contain spaces:
//
//	set city "new york"  ->  ("set", "city", "new york")
//
// Words after the value are joined to it with single spaces.
func SplitStringIntoCommandAndArguments(line string) (cmd, key, value string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", "", "", err
	}

	if len(words) == 0 {
		return "", "", "", ErrEmptyLine
	}

	cmd = strings.ToLower(words[0])
	if len(words) > 1 {
		key = words[1]
	}
	if len(words) > 2 {
		value = strings.Join(words[2:], " ")
	}

	return cmd, key, value, nil
}
