package history

import (
	"sync"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// RecordSet holds the unfiltered history and the teacher options derived from
// it. Options are recomputed only when the records change.
type RecordSet struct {
	mu        sync.RWMutex
	records   []models.EvaluationRecord
	teachers  []string
	version   uint64
	fetchedAt time.Time
	// epoch counts changes made outside a fetch. A fetch started in an older
	// epoch may predate them.
	epoch uint64
}

func NewRecordSet() *RecordSet {
	return &RecordSet{teachers: []string{}}
}

// Replace swaps in a freshly fetched list.
func (s *RecordSet) Replace(records []models.EvaluationRecord, fetchedAt time.Time) {
	copied := make([]models.EvaluationRecord, len(records))
	copy(copied, records)
	teachers := TeacherOptions(copied)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = copied
	s.teachers = teachers
	s.fetchedAt = fetchedAt
	s.version++
}

// ReplaceAt swaps in records fetched during epoch. It refuses, and reports
// false, when the set was invalidated or edited since the fetch began.
func (s *RecordSet) ReplaceAt(records []models.EvaluationRecord, fetchedAt time.Time, epoch uint64) bool {
	copied := make([]models.EvaluationRecord, len(records))
	copy(copied, records)
	teachers := TeacherOptions(copied)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.records = copied
	s.teachers = teachers
	s.fetchedAt = fetchedAt
	s.version++
	return true
}

// Epoch is read before a fetch and handed back to ReplaceAt.
func (s *RecordSet) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Remove drops the record with the given ID and reports whether it was present.
func (s *RecordSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		rest := make([]models.EvaluationRecord, 0, len(s.records)-1)
		rest = append(rest, s.records[:i]...)
		rest = append(rest, s.records[i+1:]...)
		s.records = rest
		s.teachers = TeacherOptions(rest)
		s.version++
		return true
	}
	return false
}

func (s *RecordSet) Get(id string) (models.EvaluationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.EvaluationRecord{}, false
}

func (s *RecordSet) Records() []models.EvaluationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EvaluationRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *RecordSet) TeacherOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.teachers))
	copy(out, s.teachers)
	return out
}

// Filter applies criteria to the current records.
func (s *RecordSet) Filter(criteria Criteria, now time.Time) []models.EvaluationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.records, criteria, now)
}

// Loaded reports whether Replace has been called at least once.
func (s *RecordSet) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version > 0
}

// Invalidate marks the set as stale so the next read refetches it.
func (s *RecordSet) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchedAt = time.Time{}
	s.epoch++
}

// Fresh reports whether the records were fetched within maxAge of now.
func (s *RecordSet) Fresh(now time.Time, maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version > 0 && !s.fetchedAt.IsZero() && now.Sub(s.fetchedAt) < maxAge
}

func (s *RecordSet) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
