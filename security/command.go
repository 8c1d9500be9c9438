// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// ValidateCommandArgument checks a single value destined for a subprocess
// argument vector. name identifies the parameter in failure messages.
//
// The argument must be non-empty, at most MaxArgumentLength characters, and
// free of shell metacharacters (; | & ` $( ${ < >), line breaks, NUL bytes and
// ".." sequences. Arguments that parse as shell syntax containing expansions,
// substitutions, redirections or command lists are rejected the same way.
func ValidateCommandArgument(arg, name string) error {
	if arg == "" {
		return argumentError(KindInvalidInput, arg, name, fmt.Sprintf("%s must be a non-empty string", name))
	}

	if utf8.RuneCountInString(arg) > MaxArgumentLength {
		err := argumentError(KindTooLong, arg, name, fmt.Sprintf("%s too long (maximum %d characters)", name, MaxArgumentLength))
		err.Limit = MaxArgumentLength
		return err
	}

	for _, seq := range dangerousArgumentSequences {
		if strings.Contains(arg, seq) {
			return argumentError(KindDangerousPattern, arg, name, fmt.Sprintf("%s contains dangerous characters", name))
		}
	}

	if hasShellConstructs(arg) {
		return argumentError(KindDangerousPattern, arg, name, fmt.Sprintf("%s contains dangerous characters", name))
	}

	return nil
}

// ValidateCommandArgumentValue validates a decoded, untyped argument.
// Values that are not strings fail as invalid input.
func ValidateCommandArgumentValue(v any, name string) error {
	s, ok := v.(string)
	if !ok {
		return argumentError(KindInvalidInput, "", name, fmt.Sprintf("%s must be a non-empty string", name))
	}
	return ValidateCommandArgument(s, name)
}

func argumentError(kind Kind, value, name, reason string) *Error {
	err := newError(kind, value, reason)
	err.Param = name
	return err
}

// hasShellConstructs reports whether arg, read as bash source, contains
// anything beyond plain words. Input the parser rejects is not flagged here;
// the denylist has already run and arguments never reach a shell.
func hasShellConstructs(arg string) bool {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(arg), "")
	if err != nil {
		return false
	}

	if len(file.Stmts) > 1 {
		return true
	}

	found := false
	syntax.Walk(file, func(node syntax.Node) bool {
		if found {
			return false
		}
		switch n := node.(type) {
		case *syntax.Stmt:
			if n.Background || n.Coprocess || len(n.Redirs) > 0 {
				found = true
			}
		case *syntax.CmdSubst, *syntax.ProcSubst, *syntax.ParamExp, *syntax.ArithmExp,
			*syntax.Redirect, *syntax.BinaryCmd, *syntax.Subshell, *syntax.Block,
			*syntax.FuncDecl, *syntax.CoprocClause:
			found = true
		}
		return !found
	})
	return found
}
