package store

import (
	"bytes"
	"strings"
	"testing"
)

func sampleRun() (RunMetadata, []float64, [][]float64) {
	meta := RunMetadata{
		Scene:      "boxstack",
		Dt:         1.0 / 60,
		Duration:   2,
		Iterations: 10,
		Alpha:      0.99,
		Beta:       1e5,
		Gamma:      0.99,
		Metrics:    map[string]float64{"elastic_energy": 1.5},
	}
	times := []float64{1.0 / 60, 2.0 / 60}
	poses := [][]float64{
		{0, 10, 0, 0, -5, 0},
		{0, 9.9, 0, 0, -5, 0},
	}
	return meta, times, poses
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	meta, times, poses := sampleRun()
	runID, err := st.Save(meta, times, poses)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scene != "boxstack" || loaded.Iterations != 10 {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Metrics["elastic_energy"] != 1.5 {
		t.Errorf("metrics mismatch: %v", loaded.Metrics)
	}

	gotPoses, gotTimes, err := st.LoadPoses(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotPoses) != 2 || len(gotTimes) != 2 {
		t.Fatalf("round trip lost rows: %d poses, %d times", len(gotPoses), len(gotTimes))
	}
	if gotPoses[1][1] != 9.9 {
		t.Errorf("pose value = %f, want 9.9", gotPoses[1][1])
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("list = %+v, want the saved run", runs)
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportCSV(t *testing.T) {
	_, times, poses := sampleRun()
	var buf bytes.Buffer
	if err := ExportCSV(&buf, times, poses); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "time,x0,y0,theta0,x1,y1,theta1") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestExportJSON(t *testing.T) {
	meta, times, poses := sampleRun()
	meta.ID = "boxstack_1"
	var buf bytes.Buffer
	if err := ExportJSON(&buf, &meta, times, poses); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"scene": "boxstack"`) || !strings.Contains(out, `"steps": 2`) {
		t.Errorf("json missing fields: %s", out)
	}
}
