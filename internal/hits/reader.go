// Package hits streams per-event telescope hits from CSV files.
//
// Each record is "event,plane,x,y,z,good,source". Records of one event
// must be contiguous; an optional header row starting with "event" and
// lines starting with '#' are skipped.
package hits

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/teletrack/internal/telescope"
)

const fieldsPerRecord = 7

// Reader decodes events from a CSV stream.
type Reader struct {
	r       *csv.Reader
	line    int
	pending *record
	done    bool
}

type record struct {
	event int
	hit   telescope.Hit
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = fieldsPerRecord
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{r: cr}
}

// Next returns the next event. It returns io.EOF after the last event.
func (rd *Reader) Next() (telescope.Event, error) {
	var ev telescope.Event
	if rd.pending == nil {
		rec, err := rd.read()
		if err != nil {
			return ev, err
		}
		rd.pending = rec
	}

	ev.Number = rd.pending.event
	ev.Hits = append(ev.Hits, rd.pending.hit)
	rd.pending = nil

	for {
		rec, err := rd.read()
		if errors.Is(err, io.EOF) {
			return ev, nil
		}
		if err != nil {
			return ev, err
		}
		if rec.event != ev.Number {
			rd.pending = rec
			return ev, nil
		}
		ev.Hits = append(ev.Hits, rec.hit)
	}
}

// ForEach calls fn for every remaining event, stopping at the first error.
func (rd *Reader) ForEach(fn func(telescope.Event) error) error {
	for {
		ev, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (rd *Reader) read() (*record, error) {
	if rd.done {
		return nil, io.EOF
	}
	for {
		fields, err := rd.r.Read()
		if errors.Is(err, io.EOF) {
			rd.done = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read hits: %w", err)
		}
		rd.line++
		if rd.line == 1 && strings.EqualFold(strings.TrimSpace(fields[0]), "event") {
			continue
		}
		rec, err := parseRecord(fields)
		if err != nil {
			line, _ := rd.r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		return rec, nil
	}
}

func parseRecord(fields []string) (*record, error) {
	ints := [3]int{}
	for k, idx := range [3]int{0, 1, 6} {
		v, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", fields[idx], err)
		}
		ints[k] = v
	}
	floats := [3]float64{}
	for k, idx := range [3]int{2, 3, 4} {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", fields[idx], err)
		}
		floats[k] = v
	}
	good, err := strconv.ParseBool(strings.TrimSpace(fields[5]))
	if err != nil {
		return nil, fmt.Errorf("invalid good-region flag %q: %w", fields[5], err)
	}
	return &record{
		event: ints[0],
		hit: telescope.Hit{
			Plane:      ints[1],
			X:          floats[0],
			Y:          floats[1],
			Z:          floats[2],
			GoodRegion: good,
			SourceID:   ints[2],
		},
	}, nil
}
