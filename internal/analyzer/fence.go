package analyzer

import (
	"errors"
	"strings"
)

const (
	fenceDelimiter = "```"
	fenceLangTag   = "json"
)

var (
	errUnclosedFence  = errors.New("code fence is not closed")
	errMultipleFences = errors.New("more than one fenced block")
	errEmptyPayload   = errors.New("empty payload")
)

// ExtractJSON unwraps a completion that may carry its JSON inside a single
// markdown code fence. Text without a fence is returned trimmed. With one
// fenced block the content between the delimiters is returned, minus a
// leading "json" tag. An unclosed fence or several blocks are errors.
func ExtractJSON(text string) (string, error) {
	switch strings.Count(text, fenceDelimiter) {
	case 0:
	case 1:
		return "", errUnclosedFence
	case 2:
		start := strings.Index(text, fenceDelimiter) + len(fenceDelimiter)
		end := start + strings.Index(text[start:], fenceDelimiter)
		text = strings.TrimPrefix(text[start:end], fenceLangTag)
	default:
		return "", errMultipleFences
	}

	payload := strings.TrimSpace(text)
	if payload == "" {
		return "", errEmptyPayload
	}
	return payload, nil
}
