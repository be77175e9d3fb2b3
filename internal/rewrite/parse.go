package rewrite

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/devplayground/playground/pkg/core"
)

// Response parsing errors. Their messages are the failure reasons.
var (
	ErrInvalidFormat = errors.New(core.ReasonInvalidFormat)
	ErrInvalidShape  = errors.New(core.ReasonInvalidShape)
)

// ParseResponse extracts a bundle from raw model output. The output may
// be wrapped in a markdown fence. It must contain exactly one JSON
// object whose markup, style and script fields are all strings. Extra
// fields are ignored.
//
// Text that is not a single JSON object is ErrInvalidFormat; an object
// with a missing or non-string field is ErrInvalidShape.
func ParseResponse(raw string) (core.SourceBundle, error) {
	err := ErrInvalidFormat
	for _, text := range candidates(raw) {
		bundle, cerr := parseObject(text)
		if cerr == nil {
			return bundle, nil
		}
		if errors.Is(cerr, ErrInvalidShape) {
			err = cerr
		}
	}
	return core.SourceBundle{}, err
}

func parseObject(text string) (core.SourceBundle, error) {
	if !strings.HasPrefix(text, "{") {
		return core.SourceBundle{}, ErrInvalidFormat
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return core.SourceBundle{}, ErrInvalidFormat
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return core.SourceBundle{}, ErrInvalidFormat
	}

	fields := [3]string{}
	for i, key := range [3]string{KeyMarkup, KeyStyle, KeyScript} {
		s, ok := obj[key].(string)
		if !ok {
			return core.SourceBundle{}, ErrInvalidShape
		}
		fields[i] = s
	}

	return core.SourceBundle{Markup: fields[0], Style: fields[1], Script: fields[2]}, nil
}

// candidates returns the texts that may hold the JSON object, in the
// order they are tried. A response that already starts with "{" is used
// as is so fences inside string values survive. Otherwise the body of
// the first fence is cut at the first closing fence, then at the last one
// for bodies whose values contain a fence themselves.
func candidates(raw string) []string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") {
		return []string{s}
	}

	start := strings.Index(s, "```")
	if start < 0 {
		return []string{s}
	}
	rest := s[start+3:]

	// Language tag, e.g. ```json
	tag := 0
	for tag < len(rest) && isTagByte(rest[tag]) {
		tag++
	}
	rest = rest[tag:]

	first := strings.Index(rest, "```")
	last := strings.LastIndex(rest, "```")
	if first < 0 {
		return []string{strings.TrimSpace(rest)}
	}
	out := []string{strings.TrimSpace(rest[:first])}
	if last != first {
		out = append(out, strings.TrimSpace(rest[:last]))
	}
	return out
}

func isTagByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}
