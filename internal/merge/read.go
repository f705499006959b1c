package merge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// table is one parsed source file before projection onto the merged
// schema.
type table struct {
	header    []string
	records   [][]string
	lines     []int
	malformed int
}

// readTable parses a comma-separated file with a header row. Header names
// are trimmed (and a leading byte-order mark removed); empty names become
// "Unnamed: <i>" and repeats get a ".<n>" suffix. Records with more fields
// than the header are counted as malformed and left out. Any syntax error
// fails the whole file.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTable(f)
}

func parseTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &table{header: cleanHeader(header)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(t.header) {
			t.malformed++
			continue
		}
		line, _ := cr.FieldPos(0)
		t.records = append(t.records, record)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

func cleanHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	next := make(map[string]int)
	for i, name := range raw {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] {
			// Skip suffixes already taken by a literal header, as in A,A.1,A.
			base, n := name, next[name]
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if !seen[name] {
					break
				}
			}
			next[base] = n
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
