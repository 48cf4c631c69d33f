// Package webvtt reads the WebVTT caption files produced by the large-audio
// transcription workflow.
package webvtt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Header is the literal the first line of a WebVTT file must start with.
const Header = "WEBVTT"

var ErrInvalidHeader = errors.New("not a WebVTT file")

// Cue is one timed caption block.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Validate checks that the stream begins with the WEBVTT header line. It
// reads only the first line.
func Validate(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read header line: %w", err)
		}
		return ErrInvalidHeader
	}
	return validateHeader(scanner.Text())
}

func validateHeader(line string) error {
	line = strings.TrimPrefix(line, "\ufeff")
	if line == Header {
		return nil
	}
	// the header line may carry trailing text after a space or tab
	if strings.HasPrefix(line, Header+" ") || strings.HasPrefix(line, Header+"\t") {
		return nil
	}
	return ErrInvalidHeader
}

// Parse reads a whole WebVTT stream and returns its cues. Cue identifiers,
// NOTE blocks and cue settings are skipped; only timings and caption text
// are kept.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header line: %w", err)
		}
		return nil, ErrInvalidHeader
	}
	if err := validateHeader(scanner.Text()); err != nil {
		return nil, err
	}

	var cues []Cue
	var cue *Cue
	inNote := false

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			if cue != nil {
				cues = append(cues, *cue)
				cue = nil
			}
			inNote = false
			continue
		}
		if inNote {
			continue
		}
		if strings.HasPrefix(line, "NOTE") && cue == nil {
			inNote = true
			continue
		}

		if strings.Contains(line, "-->") {
			start, end, err := parseTiming(line)
			if err != nil {
				return nil, err
			}
			cue = &Cue{Start: start, End: end}
			continue
		}

		if cue != nil {
			if cue.Text != "" {
				cue.Text += "\n"
			}
			cue.Text += line
		}
		// anything else is a cue identifier, dropped
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cues: %w", err)
	}
	if cue != nil {
		cues = append(cues, *cue)
	}

	return cues, nil
}

func parseTiming(line string) (start, end time.Duration, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed cue timing line %q", line)
	}

	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}

	// cue settings may follow the end timestamp
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("malformed cue timing line %q", line)
	}
	end, err = parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

// parseTimestamp reads HH:MM:SS.mmm or MM:SS.mmm.
func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed cue timestamp %q", s)
	}

	var hours int64
	if len(parts) == 3 {
		h, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed cue timestamp %q: %w", s, err)
		}
		hours = h
		parts = parts[1:]
	}

	minutes, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cue timestamp %q: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cue timestamp %q: %w", s, err)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d, nil
}
