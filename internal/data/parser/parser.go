// Package parser decodes raw pointer events captured as JSON lines.
package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// Line is one captured input line: a raw event plus an optional pause, in
// milliseconds, to wait before emitting it.
type Line struct {
	model.RawEvent
	DelayMs int64 `json:"delayMs,omitempty"`
}

// Stats counts the outcome of a Stream call.
type Stats struct {
	Lines   int
	Emitted int
	Skipped int
}

// Options configures a Parser.
type Options struct {
	// Realtime honours per-line delayMs pauses.
	Realtime bool
	// Sleep waits for d or until ctx is done. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Parser reads JSON-lines event captures.
type Parser struct {
	realtime bool
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewParser creates a new Parser instance.
func NewParser(opts Options) *Parser {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Parser{realtime: opts.Realtime, sleep: sleep}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return scanner
}

// ParseLine decodes a single line.
func ParseLine(data []byte) (Line, error) {
	var line Line
	if err := sonic.Unmarshal(data, &line); err != nil {
		return Line{}, err
	}
	if line.Type == "" {
		return Line{}, fmt.Errorf("missing event type")
	}
	return line, nil
}

// ParseFile reads every valid line of the file at path.
func (p *Parser) ParseFile(path string) ([]Line, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	file, err := os.Open(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", path, err))
		return nil, err
	}
	defer file.Close()

	var lines []Line
	scanner := newScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		line, err := ParseLine(scanner.Bytes())
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %s:%d - %v", path, lineCount, err))
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		util.LogDebug(fmt.Sprintf("Error scanning file: %s - %v", path, err))
		return nil, err
	}
	return lines, nil
}

// Stream decodes r line by line and hands each raw event to emit. Invalid
// lines and events emit rejects are skipped. It stops at end of input, on a
// read error or when ctx is done.
func (p *Parser) Stream(ctx context.Context, r io.Reader, emit func(model.RawEvent) error) (Stats, error) {
	var stats Stats
	scanner := newScanner(r)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		stats.Lines++

		line, err := ParseLine(scanner.Bytes())
		if err != nil {
			stats.Skipped++
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %d - %v", stats.Lines, err))
			continue
		}

		if p.realtime && line.DelayMs > 0 {
			if err := p.sleep(ctx, time.Duration(line.DelayMs)*time.Millisecond); err != nil {
				return stats, err
			}
		}

		if err := emit(line.RawEvent); err != nil {
			stats.Skipped++
			util.LogDebug(fmt.Sprintf("Skip event on line %d - %v", stats.Lines, err))
			continue
		}
		stats.Emitted++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	return stats, nil
}
