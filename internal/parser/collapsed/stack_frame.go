// Package collapsed implements parsing of collapsed stack format data.
// Collapsed format example: main (b.c:20);foo (a.c:10) 30
package collapsed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/perf-annotate/pkg/model"
)

// ThreadInfo represents extracted thread information from a stack trace.
type ThreadInfo struct {
	ThreadName string `json:"thread_name"`
	TID        int    `json:"tid"`
	PID        int    `json:"pid,omitempty"`
}

// APM format regex: [Thread-7 tid=1060369]
var apmFormatRegex = regexp.MustCompile(`^\[(.+)\s+tid=(\d+)\]$`)

// Invalid data pattern: 5_2175795_[002]_83367.826506:-?/10101010
var invalidDataRegex = regexp.MustCompile(`^\d+_\d+_`)

// SplitFuncAndModule splits a function name with module information.
// e.g., "funcName(module)" => ("funcName", "module")
// e.g., "funcName" => ("funcName", "")
func SplitFuncAndModule(funcModule string) (function, module string) {
	lastParen := strings.LastIndex(funcModule, "(")
	if lastParen == -1 {
		return funcModule, ""
	}

	if !strings.HasSuffix(funcModule, ")") {
		return funcModule, ""
	}

	function = funcModule[:lastParen]
	module = funcModule[lastParen+1 : len(funcModule)-1]
	return function, module
}

// SplitFileAndLine splits "file:line". ok is false unless the text after
// the last colon is a positive line number and a file precedes it.
func SplitFileAndLine(s string) (file string, line uint32, ok bool) {
	colon := strings.LastIndex(s, ":")
	if colon <= 0 || colon == len(s)-1 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(s[colon+1:], 10, 32)
	if err != nil || n == 0 {
		return "", 0, false
	}
	return s[:colon], uint32(n), true
}

// ParseFrame parses one frame. Accepted forms:
//
//	symbol (file:line)
//	symbol(module)
//	file:line
//	symbol
//
// A parenthesised suffix that is not a file:line is a module and dropped.
func ParseFrame(raw string) model.Frame {
	raw = strings.TrimSpace(raw)

	function, inner := SplitFuncAndModule(raw)
	if inner != "" {
		if file, line, ok := SplitFileAndLine(inner); ok {
			return model.Frame{Symbol: strings.TrimSpace(function), File: file, Line: line}
		}
		return model.Frame{Symbol: strings.TrimSpace(function)}
	}

	if !strings.ContainsAny(raw, " ()") {
		if file, line, ok := SplitFileAndLine(raw); ok && strings.ContainsAny(file, "./") {
			return model.Frame{File: file, Line: line}
		}
	}
	return model.Frame{Symbol: raw}
}

// ExtractThreadInfo extracts thread name and TID from the first frame.
// Supports two formats:
// 1. Standard perf format: "process_name-pid/tid" e.g., "sap1009-?/1088670"
// 2. APM format: "[Thread-7 tid=1060369]"
func ExtractThreadInfo(threadFrame string) *ThreadInfo {
	info := &ThreadInfo{
		ThreadName: threadFrame,
		TID:        -1,
		PID:        -1,
	}

	if strings.HasPrefix(threadFrame, "[") && strings.HasSuffix(threadFrame, "]") {
		matches := apmFormatRegex.FindStringSubmatch(threadFrame)
		if len(matches) == 3 {
			info.ThreadName = matches[1]
			if tid, err := strconv.Atoi(matches[2]); err == nil {
				info.TID = tid
			}
			return info
		}
	}

	lastDash := strings.LastIndex(threadFrame, "-")
	if lastDash > 0 {
		info.ThreadName = threadFrame[:lastDash]
	}

	lastSlash := strings.LastIndex(threadFrame, "/")
	if lastSlash > 0 && lastSlash < len(threadFrame)-1 {
		if tid, err := strconv.Atoi(threadFrame[lastSlash+1:]); err == nil {
			info.TID = tid
		}
	}

	return info
}

// IsSwapperThread checks if the thread is the swapper (idle) thread.
func IsSwapperThread(threadFrame string) bool {
	return strings.HasPrefix(threadFrame, "swapper-") || threadFrame == "swapper"
}

// IsInvalidData checks if the line matches invalid data pattern.
// e.g., "5_2175795_[002]_83367.826506:-?/10101010"
func IsInvalidData(firstFrame string) bool {
	return invalidDataRegex.MatchString(firstFrame)
}

// ParseCallStack parses a semicolon-separated root-to-leaf stack. When
// threadPrefix is set the first part names the thread and is returned as
// ThreadInfo instead of a frame.
func ParseCallStack(stack string, threadPrefix bool) (*ThreadInfo, []model.Frame) {
	parts := strings.Split(stack, ";")

	var info *ThreadInfo
	start := 0
	if threadPrefix {
		info = ExtractThreadInfo(parts[0])
		start = 1
		// APM traces repeat the thread as a bracketed frame.
		if start < len(parts) && apmFormatRegex.MatchString(parts[start]) {
			start++
		}
	}

	frames := make([]model.Frame, 0, len(parts)-start)
	for _, part := range parts[start:] {
		if part == "" || part == "[]" {
			continue
		}
		frames = append(frames, ParseFrame(part))
	}

	return info, frames
}
