// Package arbiter decides whether a provider answer is worth returning
// to the visitor, or whether the deterministic knowledge base should
// answer instead.
//
// Arbitrate is a pure function of its inputs — no I/O, no clock — so the
// fallback heuristics stay independently testable instead of living as
// inline branches in the request handler.
package arbiter

import (
	"strings"
	"unicode/utf8"
)

// Knowledge is the subset of the knowledge base the arbiter consults.
// Defined here, by the consumer.
type Knowledge interface {
	Respond(message, language string) string
	IdentityResponse(language string) string
}

// Length thresholds, in runes. Rune counts keep the zh and en templates
// comparable; byte counts would triple-weight Chinese text.
const (
	// minUsefulLength is the floor below which a provider answer is
	// discarded outright as too thin to be useful.
	minUsefulLength = 50

	// suspectLength is the ceiling below which a provider answer is
	// compared against the knowledge base alternative.
	suspectLength = 100

	// preferAlternativeRatio: the knowledge base alternative wins when it
	// is materially longer than the provider answer.
	preferAlternativeRatio = 1.5
)

// boilerplateMarkers are phrases typical of a generic assistant that has
// lost the site persona. Matched case-insensitively.
var boilerplateMarkers = []string{
	"i am an ai",
	"i'm an ai",
	"as an ai assistant",
	"as a language model",
	"i don't have specific information",
	"i do not have specific information",
	"我是一個ai",
	"我是一个ai",
	"我是ai助理",
	"我是ai助手",
	"作為一個ai",
	"作为一个ai",
	"我沒有具體的資訊",
	"我没有具体的信息",
}

// Arbitrate picks the final reply text. answer is the provider's output;
// an empty string means the provider produced nothing (timeout
// exhaustion or degraded mode).
//
// Decision order:
//  1. no answer → knowledge base response
//  2. answer shorter than 50 runes → knowledge base self-introduction
//  3. boilerplate markers or shorter than 100 runes → knowledge base
//     alternative, kept only when materially longer (>1.5×)
//  4. otherwise → answer unchanged
func Arbitrate(kb Knowledge, answer, message, language string) string {
	if answer == "" {
		return kb.Respond(message, language)
	}

	length := utf8.RuneCountInString(answer)
	if length < minUsefulLength {
		return kb.IdentityResponse(language)
	}

	if containsBoilerplate(answer) || length < suspectLength {
		alternative := kb.Respond(message, language)
		altLength := utf8.RuneCountInString(alternative)
		if float64(altLength) > preferAlternativeRatio*float64(length) {
			return alternative
		}
		return answer
	}

	return answer
}

// containsBoilerplate reports whether the answer reads like a generic
// assistant rather than the site persona.
func containsBoilerplate(answer string) bool {
	lower := strings.ToLower(answer)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
