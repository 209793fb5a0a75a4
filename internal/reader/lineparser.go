package reader

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrorCallback is invoked with the raw line when it cannot be parsed as
// JSON, even after a repair attempt (spec §7: "Malformed JSON line").
type ErrorCallback func(rawLine []byte, err error)

// lineParser accumulates a byte buffer, splits on '\n', and holds the
// last partial line for the next chunk (spec §4.2). Each complete line is
// trimmed, skipped if empty or not starting with '{', and parsed as JSON.
type lineParser struct {
	buf      []byte
	onParsed func(line []byte, obj map[string]any)
	onError  ErrorCallback
}

func newLineParser(onParsed func(line []byte, obj map[string]any), onError ErrorCallback) *lineParser {
	return &lineParser{onParsed: onParsed, onError: onError}
}

// Feed appends chunk to the internal buffer and processes every complete
// line it now contains, retaining any trailing partial line for the next
// Feed call.
func (p *lineParser) Feed(chunk []byte) {
	p.buf = append(p.buf, chunk...)
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := p.buf[:idx]
		p.buf = p.buf[idx+1:]
		p.processLine(line)
	}
}

// Flush drops any buffered partial line without attempting to parse it
// (it is, by definition, not terminated and therefore not a complete
// JSONL record).
func (p *lineParser) Flush() {
	p.buf = nil
}

func (p *lineParser) processLine(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}
	if trimmed[0] != '{' {
		return
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		p.onParsed(trimmed, obj)
		return
	}

	// One repair attempt before giving up (SPEC_FULL §4.2.3), the same
	// two-step strategy alex's tool_executor.go uses for malformed
	// tool-call arguments: try jsonrepair, then a conservative manual
	// fixer, else surface the error via the callback. The documented
	// policy (spec §7) is unchanged: on failure the line is still
	// skipped and the callback still receives the *original* line.
	repaired, err := jsonrepair.JSONRepair(string(trimmed))
	if err == nil {
		if err2 := json.Unmarshal([]byte(repaired), &obj); err2 == nil {
			p.onParsed([]byte(repaired), obj)
			return
		}
	}
	if fixed, ok := conservativeFix(string(trimmed)); ok {
		if err2 := json.Unmarshal([]byte(fixed), &obj); err2 == nil {
			p.onParsed([]byte(fixed), obj)
			return
		}
	}

	if p.onError != nil {
		var reportErr error = err
		if reportErr == nil {
			reportErr = errParseFailed
		}
		p.onError(trimmed, reportErr)
	}
}

var errParseFailed = parseError("line did not parse as JSON, even after repair")

type parseError string

func (e parseError) Error() string { return string(e) }

// conservativeFix repairs a common truncation artifact: a line cut off
// mid-write by an editor or crash. It trims trailing whitespace and a
// dangling comma and appends as many closing braces as are missing;
// anything more exotic (such as an unterminated string) is left to the
// caller's error callback.
func conservativeFix(s string) (string, bool) {
	trimmed := strings.TrimRight(s, " \t\r")
	trimmed = strings.TrimRight(trimmed, ",")
	opens := strings.Count(trimmed, "{")
	closes := strings.Count(trimmed, "}")
	if opens <= closes {
		return "", false
	}
	return trimmed + strings.Repeat("}", opens-closes), true
}
