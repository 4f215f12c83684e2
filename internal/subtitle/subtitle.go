package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cue is one timed caption.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// ParseSRT reads SubRip text into cues. Sequence numbers are ignored on the
// way in; serialization renumbers from 1.
func ParseSRT(data string) []Cue {
	var cues []Cue
	for _, block := range splitBlocks(data) {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}
		// The first line is the sequence number when it parses as one.
		timeLine := 0
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			timeLine = 1
		}
		if timeLine >= len(lines) {
			continue
		}
		start, end, ok := parseTimeLine(lines[timeLine], ",")
		if !ok {
			continue
		}
		text := strings.Join(lines[timeLine+1:], "\n")
		cues = append(cues, Cue{Start: start, End: end, Text: strings.TrimSpace(text)})
	}
	return cues
}

// ParseVTT reads WebVTT text into cues. Header, NOTE and STYLE blocks and cue
// identifiers are dropped.
func ParseVTT(data string) []Cue {
	var cues []Cue
	for _, block := range splitBlocks(data) {
		lines := strings.Split(block, "\n")
		first := strings.TrimSpace(lines[0])
		if first == "WEBVTT" || strings.HasPrefix(first, "WEBVTT ") ||
			strings.HasPrefix(first, "NOTE") || first == "STYLE" || first == "REGION" {
			continue
		}
		timeLine := 0
		if !strings.Contains(first, "-->") {
			// Cue identifier line.
			timeLine = 1
		}
		if timeLine >= len(lines) {
			continue
		}
		start, end, ok := parseTimeLine(lines[timeLine], ".")
		if !ok {
			continue
		}
		text := strings.Join(lines[timeLine+1:], "\n")
		cues = append(cues, Cue{Start: start, End: end, Text: strings.TrimSpace(text)})
	}
	return cues
}

// FormatSRT serializes cues as SubRip with 1-based sequence numbers. No cues
// yields an empty document.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(cue.Start, ","), formatTimestamp(cue.End, ","))
		b.WriteString(cue.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatVTT serializes cues as WebVTT. No cues yields just the header.
func FormatVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, cue := range cues {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(cue.Start, "."), formatTimestamp(cue.End, "."))
		b.WriteString(cue.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// PlainText joins cue texts with single spaces, for text-only output formats.
func PlainText(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		if cue.Text != "" {
			parts = append(parts, cue.Text)
		}
	}
	return strings.Join(parts, " ")
}

func splitBlocks(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.TrimPrefix(data, "\ufeff")
	var blocks []string
	for _, block := range strings.Split(data, "\n\n") {
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, strings.Trim(block, "\n"))
		}
	}
	return blocks
}

func parseTimeLine(line, msSep string) (time.Duration, time.Duration, bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := parseTimestamp(strings.TrimSpace(parts[0]), msSep)
	if !ok {
		return 0, 0, false
	}
	// VTT allows cue settings after the end timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, false
	}
	end, ok := parseTimestamp(endField[0], msSep)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

func parseTimestamp(s, msSep string) (time.Duration, bool) {
	ms := 0
	if idx := strings.LastIndex(s, msSep); idx >= 0 {
		var err error
		if ms, err = strconv.Atoi(s[idx+1:]); err != nil {
			return 0, false
		}
		s = s[:idx]
	}
	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, false
	}
	// VTT timestamps may omit the hour field.
	if len(fields) == 2 {
		fields = append([]string{"0"}, fields...)
	}
	h, err1 := strconv.Atoi(fields[0])
	m, err2 := strconv.Atoi(fields[1])
	sec, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond
	return d, true
}

func formatTimestamp(d time.Duration, msSep string) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, msSep, ms)
}
