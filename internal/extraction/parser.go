package extraction

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"waras/internal/sales"
)

// Envelope names the reply shape an item array was found in.
type Envelope string

const (
	EnvelopeBare   Envelope = "bare"
	EnvelopeFenced Envelope = "fenced"
	EnvelopeProse  Envelope = "prose"
)

// ParseResult is the outcome of parsing a model reply. Exactly one of Items
// and Err is meaningful: Err is non-nil when the reply holds no item array.
type ParseResult struct {
	Items    []sales.RawItem
	Envelope Envelope
	Err      error
}

// Ok reports whether the reply yielded an item array.
func (r ParseResult) Ok() bool {
	return r.Err == nil
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// ParseReply reads the item array out of a model reply. The accepted shapes,
// tried in order, are: the whole reply is an array; a fenced code block
// holds an array; prose holds an array spanning the first '[' to the last ']'.
func ParseReply(content string) ParseResult {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ParseResult{Err: malformedError("empty reply", nil)}
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		return decodeItems(trimmed, EnvelopeBare)
	}

	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "[") {
			return decodeItems(body, EnvelopeFenced)
		}
	}

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end < start {
		return ParseResult{Err: malformedError("no JSON array in reply", nil)}
	}
	return decodeItems(trimmed[start:end+1], EnvelopeProse)
}

func decodeItems(s string, env Envelope) ParseResult {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	var items []sales.RawItem
	if err := dec.Decode(&items); err != nil {
		return ParseResult{Envelope: env, Err: malformedError("reply array is not a list of items", err)}
	}
	if dec.More() {
		return ParseResult{Envelope: env, Err: malformedError("unexpected content after item array", nil)}
	}
	if items == nil {
		items = []sales.RawItem{}
	}
	return ParseResult{Items: items, Envelope: env}
}
