// Package script splits text into runs of a single Unicode script.
package script

import (
	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
)

// Run is a range of characters written in one script.
type Run struct {
	Start  int
	End    int
	Script language.Script
}

// Classifier splits text[start:end] into script runs that partition the range.
type Classifier interface {
	Runs(text []rune, start, end int) []Run
}

// Default classifies characters with language.LookupScript. Inherited
// characters (combining marks) take the script of the preceding character
// and Common characters (punctuation, digits, spaces) take the script of
// their neighbours.
type Default struct{}

// Runs implements Classifier.
func (Default) Runs(text []rune, start, end int) []Run {
	if start >= end {
		return nil
	}
	scripts := make([]language.Script, end-start)
	for i, r := range text[start:end] {
		scripts[i] = language.LookupScript(r)
	}
	resolve(scripts)

	var runs []Run
	for i := 0; i < len(scripts); {
		j := i + 1
		for j < len(scripts) && scripts[j] == scripts[i] {
			j++
		}
		runs = append(runs, Run{Start: start + i, End: start + j, Script: scripts[i]})
		i = j
	}
	return runs
}

func concrete(s language.Script) bool {
	return s != language.Common && s != language.Inherited
}

func resolve(scripts []language.Script) {
	last := language.Common
	for i, s := range scripts {
		if s == language.Inherited {
			scripts[i] = last
		} else if s != language.Common {
			last = s
		}
	}

	last = language.Common
	for i, s := range scripts {
		if concrete(s) {
			last = s
			continue
		}
		scripts[i] = resolveCommon(last, nextConcrete(scripts, i+1))
	}
}

func nextConcrete(scripts []language.Script, from int) language.Script {
	for _, s := range scripts[from:] {
		if concrete(s) {
			return s
		}
	}
	return language.Common
}

// resolveCommon prefers the preceding script so punctuation stays with the
// word it ends.
func resolveCommon(prev, next language.Script) language.Script {
	switch {
	case prev != language.Common:
		return prev
	case next != language.Common:
		return next
	default:
		return language.Common
	}
}

// IsRightToLeft reports whether the default direction of text[start:end] is
// right-to-left: true when its first strong character is R or AL.
func IsRightToLeft(text []rune, start, end int) bool {
	for _, r := range text[start:end] {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.L:
			return false
		case bidi.R, bidi.AL:
			return true
		}
	}
	return false
}
