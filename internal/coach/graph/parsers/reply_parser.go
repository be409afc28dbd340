package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxOptions    = 3          // candidates offered per disambiguation round
)

// ErrUnparsable signals that no valid JSON object could be recovered from the
// model reply. Callers degrade to a raw-text advice reply, never crash.
var ErrUnparsable = errors.New("no recoverable json object in model reply")

// ParseReply extracts the single JSON object a classifier reply is expected
// to carry, tolerating markdown fencing and // or /* */ comments. A reply
// whose object lacks an intent field counts as unparsable: ambiguous content
// must not be routed.
func ParseReply(content string) (resp *model.ParsedReply, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "reply_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("reply parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "reply_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	candidate := stripFence(content)
	candidate = stripComments(candidate)
	candidate = strings.TrimSpace(candidate)

	// narrow to the outermost object so stray prose around it doesn't break
	// the decoder
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no object braces", ErrUnparsable)
	}
	candidate = candidate[start : end+1]

	var parsed model.ParsedReply
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if strings.TrimSpace(string(parsed.Intent)) == "" {
		return nil, fmt.Errorf("%w: missing intent", ErrUnparsable)
	}
	return &parsed, nil
}

// ParseFoodOptions extracts AI-proposed food candidates from a constrained
// option-generation reply. Accepts either a bare array or an object with an
// "options" field, with the same fence/comment tolerance as ParseReply.
// Invalid candidates are dropped; an empty result is an error so the caller
// can fall back to a terminal reply.
func ParseFoodOptions(content string) ([]model.FoodOption, error) {
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}
	candidate := stripComments(stripFence(content))
	candidate = strings.TrimSpace(candidate)

	var raw []model.FoodOption
	if i := strings.Index(candidate, "["); i >= 0 && (strings.Index(candidate, "{") < 0 || i < strings.Index(candidate, "{")) {
		end := strings.LastIndex(candidate, "]")
		if end <= i {
			return nil, fmt.Errorf("%w: unterminated array", ErrUnparsable)
		}
		if err := json.Unmarshal([]byte(candidate[i:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	} else {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no object braces", ErrUnparsable)
		}
		var wrapper struct {
			Options []model.FoodOption `json:"options"`
		}
		if err := json.Unmarshal([]byte(candidate[start:end+1]), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		raw = wrapper.Options
	}

	options := make([]model.FoodOption, 0, len(raw))
	for _, opt := range raw {
		if strings.TrimSpace(opt.Name) == "" || opt.ServingSize <= 0 || opt.Calories < 0 {
			continue
		}
		if strings.TrimSpace(opt.ServingUnit) == "" {
			continue
		}
		options = append(options, opt)
		if len(options) == maxOptions {
			break
		}
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no valid food options", ErrUnparsable)
	}
	return options, nil
}

// stripFence unwraps a ```json ... ``` (or bare ```) block when present.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	idx := strings.Index(trimmed, "```")
	if idx < 0 {
		return s
	}
	rest := trimmed[idx+3:]
	// drop an optional language tag on the fence line
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "json" || firstLine == "JSON" || firstLine == "" {
			rest = rest[nl+1:]
		}
	}
	if closing := strings.Index(rest, "```"); closing >= 0 {
		rest = rest[:closing]
	}
	return rest
}

// stripComments removes // line comments and /* */ block comments outside of
// string literals. Models frequently emit commented JSON despite instructions
// not to.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	i := 0
	for i < len(s) {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			if i+1 < len(s) {
				i += 2
			} else {
				i = len(s)
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
