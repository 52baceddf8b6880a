package history

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

var now = time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func sampleRecords() []models.EvaluationRecord {
	return []models.EvaluationRecord{
		{ID: "1", StudentName: "Asha Kumar", StudentRollNo: "1201", TeacherName: "Ms. Rao", CreatedAt: at(2 * time.Hour)},
		{ID: "2", StudentName: "Ravi", StudentRollNo: "1302", TeacherName: "Mr. Iyer", CreatedAt: at(3 * 24 * time.Hour)},
		{ID: "3", StudentName: "asha patel", StudentRollNo: "2201", TeacherName: "Ms. Rao", CreatedAt: at(20 * 24 * time.Hour)},
		{ID: "4", StudentName: "", StudentRollNo: "", TeacherName: "", CreatedAt: nil},
		{ID: "5", StudentName: "Meera", StudentRollNo: "1203", TeacherName: "Mr. Iyer", CreatedAt: at(60 * 24 * time.Hour)},
	}
}

func ids(records []models.EvaluationRecord) []string {
	out := []string{}
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "match all", criteria: MatchAll(), want: []string{"1", "2", "3", "4", "5"}},
		{name: "zero value matches all", criteria: Criteria{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "name is case-insensitive substring", criteria: Criteria{StudentName: "ASHA"}, want: []string{"1", "3"}},
		{name: "name criterion is trimmed", criteria: Criteria{StudentName: "  ravi "}, want: []string{"2"}},
		{name: "roll substring", criteria: Criteria{RollNumber: "120"}, want: []string{"1", "5"}},
		{name: "teacher exact", criteria: Criteria{Teacher: "Ms. Rao"}, want: []string{"1", "3"}},
		{name: "teacher is not substring", criteria: Criteria{Teacher: "Rao"}, want: []string{}},
		{name: "today", criteria: Criteria{Date: BucketToday}, want: []string{"1"}},
		{name: "last 7 days", criteria: Criteria{Date: BucketLast7Days}, want: []string{"1", "2"}},
		{name: "last 30 days", criteria: Criteria{Date: BucketLast30Days}, want: []string{"1", "2", "3"}},
		{name: "combined", criteria: Criteria{StudentName: "asha", Teacher: "Ms. Rao", Date: BucketLast7Days}, want: []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleRecords(), tt.criteria, now))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_IdentityReturnsInputUnchanged(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, MatchAll(), now)
	if !reflect.DeepEqual(got, records) {
		t.Error("match-all criteria changed the record set")
	}
}

func TestFilter_SubsetPreservingOrder(t *testing.T) {
	records := sampleRecords()
	criteriaSet := []Criteria{
		{StudentName: "a"},
		{RollNumber: "2"},
		{Teacher: "Mr. Iyer", Date: BucketLast30Days},
		{Date: BucketToday, RollNumber: "9"},
	}
	for _, c := range criteriaSet {
		got := Filter(records, c, now)
		j := 0
		for _, rec := range got {
			for j < len(records) && records[j].ID != rec.ID {
				j++
			}
			if j == len(records) {
				t.Fatalf("criteria %+v: %s is not an in-order element of the input", c, rec.ID)
			}
			j++
		}
	}
}

func TestFilter_Commutative(t *testing.T) {
	records := sampleRecords()
	a := Criteria{StudentName: "asha"}
	b := Criteria{Date: BucketLast7Days}

	ab := Filter(Filter(records, a, now), b, now)
	ba := Filter(Filter(records, b, now), a, now)
	both := Filter(records, Criteria{StudentName: "asha", Date: BucketLast7Days}, now)

	if !reflect.DeepEqual(ids(ab), ids(ba)) || !reflect.DeepEqual(ids(ab), ids(both)) {
		t.Errorf("ab=%v ba=%v both=%v", ids(ab), ids(ba), ids(both))
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := ids(records)
	_ = Filter(records, Criteria{StudentName: "ravi"}, now)
	if !reflect.DeepEqual(ids(records), before) {
		t.Error("input slice was modified")
	}
}

func TestDateLowerBound(t *testing.T) {
	local := time.FixedZone("IST", 5*3600+1800)
	ref := time.Date(2025, 3, 31, 10, 30, 0, 0, local)

	tests := []struct {
		bucket DateBucket
		want   time.Time
		ok     bool
	}{
		{BucketAll, time.Time{}, false},
		{BucketToday, time.Date(2025, 3, 31, 0, 0, 0, 0, local), true},
		{BucketLast7Days, time.Date(2025, 3, 24, 10, 30, 0, 0, local), true},
		{BucketLast30Days, time.Date(2025, 3, 3, 10, 30, 0, 0, local), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			got, ok := DateLowerBound(tt.bucket, ref)
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Errorf("DateLowerBound = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseDateBucket(t *testing.T) {
	tests := map[string]DateBucket{
		"":             BucketAll,
		"all":          BucketAll,
		"today":        BucketToday,
		"week":         BucketLast7Days,
		"last-7-days":  BucketLast7Days,
		"Month":        BucketLast30Days,
		"last-30-days": BucketLast30Days,
	}
	for in, want := range tests {
		got, err := ParseDateBucket(in)
		if err != nil || got != want {
			t.Errorf("ParseDateBucket(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDateBucket("yesterday"); err == nil {
		t.Error("expected error for unknown bucket")
	}
}

func TestTeacherOptions(t *testing.T) {
	got := TeacherOptions(sampleRecords())
	want := []string{"Ms. Rao", "Mr. Iyer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TeacherOptions = %v, want %v", got, want)
	}
	if got := TeacherOptions(nil); got == nil || len(got) != 0 {
		t.Errorf("TeacherOptions(nil) = %v", got)
	}
}

func TestRecordSet_OptionsFollowRecordsNotCriteria(t *testing.T) {
	set := NewRecordSet()
	set.Replace(sampleRecords(), now)

	_ = set.Filter(Criteria{Teacher: "Ms. Rao"}, now)
	if got := set.TeacherOptions(); len(got) != 2 {
		t.Errorf("filtering changed teacher options: %v", got)
	}

	set.Remove("2")
	set.Remove("5")
	if got := set.TeacherOptions(); !reflect.DeepEqual(got, []string{"Ms. Rao"}) {
		t.Errorf("options after removal = %v", got)
	}
	if set.Remove("missing") {
		t.Error("Remove of unknown id reported true")
	}
}

func TestRecordSet_Freshness(t *testing.T) {
	set := NewRecordSet()
	if set.Fresh(now, time.Minute) || set.Loaded() {
		t.Error("empty set should not be fresh")
	}
	set.Replace(sampleRecords(), now)
	if !set.Fresh(now.Add(30*time.Second), time.Minute) {
		t.Error("set should be fresh")
	}
	set.Invalidate()
	if set.Fresh(now, time.Minute) {
		t.Error("invalidated set should not be fresh")
	}
	if _, ok := set.Get("3"); !ok {
		t.Error("Get after invalidate should still find records")
	}
}

func TestRecordSet_ReplaceAtRejectsOlderEpoch(t *testing.T) {
	tests := []struct {
		name   string
		change func(set *RecordSet)
		want   bool
	}{
		{name: "untouched", change: func(*RecordSet) {}, want: true},
		{name: "invalidated", change: func(set *RecordSet) { set.Invalidate() }, want: false},
		{name: "record removed", change: func(set *RecordSet) { set.Remove("1") }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewRecordSet()
			set.Replace(sampleRecords(), now)
			epoch := set.Epoch()
			tt.change(set)

			if got := set.ReplaceAt(sampleRecords()[:1], now, epoch); got != tt.want {
				t.Fatalf("ReplaceAt = %v, want %v", got, tt.want)
			}
			if tt.want && len(set.Records()) != 1 {
				t.Errorf("records = %d after accepted replace", len(set.Records()))
			}
			if !tt.want && len(set.Records()) == 1 {
				t.Error("rejected replace swapped the records")
			}
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	marks, pct, max := 7.0, 70.0, 10
	records := []models.EvaluationRecord{
		{ID: "1", StudentName: "Asha", StudentRollNo: "12", TeacherName: "Ms. Rao", MarksAwarded: &marks, MaxMarks: &max, Percentage: &pct, Grade: "B", StudentAnswer: "answer.pdf", CreatedAt: at(time.Hour)},
		{ID: "2", StudentName: "Ravi"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records, time.UTC); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Date" || rows[1][1] != "Asha" || rows[1][8] != "B" || rows[1][11] != "answer.pdf" {
		t.Errorf("unexpected rows %v", rows[:2])
	}
	if rows[2][0] != "N/A" {
		t.Errorf("missing date cell = %q", rows[2][0])
	}
}
