// Package kpi aggregates daily peak-shaving indicators per site.
package kpi

import (
	"sort"
	"sync"
	"time"
)

// Record holds the daily totals for one site.
type Record struct {
	Site          string    `json:"site"`
	Date          time.Time `json:"date"`
	SavingsRupees float64   `json:"savings_rupees"`
	PenaltyRupees float64   `json:"penalty_rupees"`
	CO2AvoidedKg  float64   `json:"co2_avoided_kg"`
	Breaches      int       `json:"breaches"`
	Evaluations   int       `json:"evaluations"`
}

// Store persists daily KPI records.
type Store interface {
	Add(Record) error
	Query(site string, start, end time.Time) ([]Record, error)
}

// Day aligns a timestamp to the start of its day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MemoryStore stores records in memory; KPIs reset with the session like the
// rest of the controller state.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day and site.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.Site] == nil {
		s.data[r.Site] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.Site][d]
	if rec == nil {
		rec = &Record{Site: r.Site, Date: d}
		s.data[r.Site][d] = rec
	}
	rec.SavingsRupees += r.SavingsRupees
	rec.PenaltyRupees += r.PenaltyRupees
	rec.CO2AvoidedKg += r.CO2AvoidedKg
	rec.Breaches += r.Breaches
	rec.Evaluations += r.Evaluations
	return nil
}

// Query returns records between start and end inclusive, ordered by date.
func (s *MemoryStore) Query(site string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[site] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
