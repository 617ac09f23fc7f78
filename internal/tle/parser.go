package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads NORAD TLE text from r. Both the 3-line form (name line first)
// and bare 2-line pairs are accepted; unnamed entries are named after their
// catalog id. Malformed entries are skipped with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]TLEEntry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []TLEEntry
	for i := 0; i < len(lines); {
		var name string
		if !strings.HasPrefix(lines[i], "1 ") {
			name = strings.TrimSpace(lines[i])
			i++
		}
		if i+1 >= len(lines) {
			break
		}
		line1, line2 := lines[i], lines[i+1]
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			if name == "" {
				i++
			}
			continue
		}
		i += 2

		entry, err := ParseLines(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "name", name, "error", err)
			continue
		}
		if !checksumOK(line1) || !checksumOK(line2) {
			logger.Debug("TLE checksum mismatch", "norad_id", entry.NORADID, "name", entry.Name)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ParseLines builds an entry from a name and the two element lines.
func ParseLines(name, line1, line2 string) (TLEEntry, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if len(line1) < 32 || len(line2) < 7 {
		return TLEEntry{}, fmt.Errorf("short element lines (%d, %d chars)", len(line1), len(line2))
	}

	// Catalog number: columns 3-7 of both lines, which must agree.
	id, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return TLEEntry{}, fmt.Errorf("invalid NORAD id %q: %w", line1[2:7], err)
	}
	if id2, err := strconv.Atoi(strings.TrimSpace(line2[2:7])); err != nil || id2 != id {
		return TLEEntry{}, fmt.Errorf("line2 catalog number %q does not match %d", line2[2:7], id)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return TLEEntry{}, err
	}

	if name == "" {
		name = strconv.Itoa(id)
	}
	return TLEEntry{NORADID: id, Name: name, Epoch: epoch, Line1: line1, Line2: line2}, nil
}

// Find returns the entry with the given catalog id.
func Find(entries []TLEEntry, catalogID int) (TLEEntry, bool) {
	for _, e := range entries {
		if e.NORADID == catalogID {
			return e, true
		}
	}
	return TLEEntry{}, false
}

// Checksum computes the modulo-10 checksum over the first 68 columns: digits
// count their value, minus signs count one.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < 68; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func checksumOK(line string) bool {
	if len(line) != 69 {
		return false
	}
	c := line[68]
	return c >= '0' && c <= '9' && int(c-'0') == Checksum(line)
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD form.
// Years 00-56 are 20xx, 57-99 are 19xx.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Day 1 is Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))).Round(time.Microsecond), nil
}
