package treasury

import (
	"encoding/json"
	"iter"
	"slices"
	"time"
)

// Point a daily closing rate.
type Point struct {
	Date time.Time `json:"date"`
	Rate Rate      `json:"rate"`
}

// Series stores a chronological series of daily rates.
// Dates are unique (truncated to the UTC day) and the series is always sorted.
type Series struct {
	points []Point
}

// Day truncates t to the start of its UTC day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Append adds a point to the series.
//
// An existing value at that date is overwritten.
func (s *Series) Append(on time.Time, r Rate) *Series {
	on = Day(on)
	i, found := slices.BinarySearchFunc(s.points, on, func(p Point, t time.Time) int {
		return p.Date.Compare(t)
	})
	if found {
		s.points[i].Rate = r
		return s
	}
	s.points = slices.Insert(s.points, i, Point{Date: on, Rate: r})
	return s
}

// Len returns the number of points in the series.
func (s *Series) Len() int { return len(s.points) }

// Latest returns the most recent point, or the zero Point if the series is empty.
func (s *Series) Latest() Point {
	if len(s.points) == 0 {
		return Point{}
	}
	return s.points[len(s.points)-1]
}

// Trim keeps at most the n most recent points.
func (s *Series) Trim(n int) *Series {
	if n < 0 {
		n = 0
	}
	if len(s.points) > n {
		s.points = slices.Clone(s.points[len(s.points)-n:])
	}
	return s
}

// Points returns an iterator over all points, in chronological order.
func (s *Series) Points() iter.Seq2[time.Time, Rate] {
	return func(yield func(time.Time, Rate) bool) {
		for _, p := range s.points {
			if !yield(p.Date, p.Rate) {
				return
			}
		}
	}
}

// Slice returns a copy of the points.
func (s *Series) Slice() []Point {
	return slices.Clone(s.points)
}

// Rates returns the rates only, in chronological order.
func (s *Series) Rates() []Rate {
	rates := make([]Rate, len(s.points))
	for i, p := range s.points {
		rates[i] = p.Rate
	}
	return rates
}

// Clone returns a series that does not share storage with s.
func (s *Series) Clone() Series {
	return Series{points: slices.Clone(s.points)}
}

// MarshalJSON encodes the series as an array of points, never null.
func (s Series) MarshalJSON() ([]byte, error) {
	if s.points == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.points)
}
