package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// DateBucket is a relative time window for the history date filter.
type DateBucket string

const (
	BucketAll        DateBucket = "all"
	BucketToday      DateBucket = "today"
	BucketLast7Days  DateBucket = "last-7-days"
	BucketLast30Days DateBucket = "last-30-days"
)

// AllTeachers disables the teacher filter.
const AllTeachers = "all"

// ParseDateBucket accepts the canonical names plus "week" and "month".
// An empty string means BucketAll.
func ParseDateBucket(s string) (DateBucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return BucketAll, nil
	case "today":
		return BucketToday, nil
	case "last-7-days", "week":
		return BucketLast7Days, nil
	case "last-30-days", "month":
		return BucketLast30Days, nil
	default:
		return "", fmt.Errorf("unknown date filter %q", s)
	}
}

// Criteria are independent predicates combined with AND.
type Criteria struct {
	StudentName string     `json:"student_name" form:"student"`
	RollNumber  string     `json:"roll_number" form:"roll"`
	Teacher     string     `json:"teacher" form:"teacher"`
	Date        DateBucket `json:"date" form:"date"`
}

// MatchAll is the criteria value that keeps every record.
func MatchAll() Criteria {
	return Criteria{Teacher: AllTeachers, Date: BucketAll}
}

func (c Criteria) normalized() Criteria {
	c.StudentName = strings.ToLower(strings.TrimSpace(c.StudentName))
	c.RollNumber = strings.TrimSpace(c.RollNumber)
	if c.Teacher == "" {
		c.Teacher = AllTeachers
	}
	if c.Date == "" {
		c.Date = BucketAll
	}
	return c
}

// DateLowerBound returns the earliest instant a record may have to pass the
// bucket. ok is false for BucketAll and unknown buckets, meaning no bound.
func DateLowerBound(bucket DateBucket, now time.Time) (bound time.Time, ok bool) {
	switch bucket {
	case BucketToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case BucketLast7Days:
		return now.AddDate(0, 0, -7), true
	case BucketLast30Days:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

// Filter returns the records that satisfy every criterion, in input order.
// The input is never modified and the result is never nil.
func Filter(records []models.EvaluationRecord, criteria Criteria, now time.Time) []models.EvaluationRecord {
	c := criteria.normalized()
	bound, bounded := DateLowerBound(c.Date, now)

	out := make([]models.EvaluationRecord, 0, len(records))
	for i := range records {
		if matches(&records[i], c, bound, bounded) {
			out = append(out, records[i])
		}
	}
	return out
}

// matches checks name, roll, teacher and date in that order and stops at the
// first failing predicate. c must be normalized.
func matches(rec *models.EvaluationRecord, c Criteria, bound time.Time, bounded bool) bool {
	if c.StudentName != "" && !strings.Contains(strings.ToLower(rec.StudentName), c.StudentName) {
		return false
	}
	if c.RollNumber != "" && !strings.Contains(rec.StudentRollNo, c.RollNumber) {
		return false
	}
	if c.Teacher != AllTeachers && rec.TeacherName != c.Teacher {
		return false
	}
	if bounded && (rec.CreatedAt == nil || rec.CreatedAt.Before(bound)) {
		return false
	}
	return true
}

// TeacherOptions lists the distinct non-empty teacher names in first-seen order.
func TeacherOptions(records []models.EvaluationRecord) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range records {
		name := records[i].TeacherName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
