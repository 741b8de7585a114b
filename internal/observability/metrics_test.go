package observability

import "testing"

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordObserved()
	m.RecordObserved()
	m.RecordRejected()
	m.SetEntryCounts(10, 3, 1)
	m.RecordWarning("type_conflict")
	m.RecordWarning("type_conflict")
	m.RecordWarning("mode_conflict")

	snap := m.Snapshot()
	if snap.RecordsObserved != 2 {
		t.Errorf("RecordsObserved = %d, want 2", snap.RecordsObserved)
	}
	if snap.RecordsRejected != 1 {
		t.Errorf("RecordsRejected = %d, want 1", snap.RecordsRejected)
	}
	if snap.HardCount != 10 || snap.SoftCount != 3 || snap.IgnoreCount != 1 {
		t.Errorf("entry counts = %+v, want 10/3/1", snap)
	}
	if snap.WarningsByKind["type_conflict"] != 2 {
		t.Errorf("type_conflict warnings = %d, want 2", snap.WarningsByKind["type_conflict"])
	}
}

func TestMetricsTopIgnoredPaths(t *testing.T) {
	m := NewMetrics()
	m.RecordIgnoredPath("a.b")
	m.RecordIgnoredPath("a.b")
	m.RecordIgnoredPath("a.b")
	m.RecordIgnoredPath("c.d")

	top := m.TopIgnoredPaths(1)
	if len(top) != 1 || top[0].Path != "a.b" || top[0].Count != 3 {
		t.Errorf("TopIgnoredPaths(1) = %+v, want [{a.b 3}]", top)
	}
}

func TestMetricsMerge(t *testing.T) {
	a := NewMetrics()
	a.RecordObserved()
	a.SetEntryCounts(5, 1, 0)
	a.RecordWarning("type_conflict")

	b := NewMetrics()
	b.RecordObserved()
	b.SetEntryCounts(3, 2, 1)
	b.RecordWarning("type_conflict")

	a.Merge(b)
	snap := a.Snapshot()
	if snap.RecordsObserved != 2 {
		t.Errorf("RecordsObserved after merge = %d, want 2", snap.RecordsObserved)
	}
	if snap.HardCount != 8 || snap.SoftCount != 3 || snap.IgnoreCount != 1 {
		t.Errorf("entry counts after merge = %+v", snap)
	}
	if snap.WarningsByKind["type_conflict"] != 2 {
		t.Errorf("warnings after merge = %d, want 2", snap.WarningsByKind["type_conflict"])
	}
}
