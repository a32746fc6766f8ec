package health

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDetails_OrderPreservedInJSON(t *testing.T) {
	details := Details{
		D("zeta", 1),
		D("alpha", "two"),
		D("mid", 3.5),
	}

	data, err := json.Marshal(details)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"zeta":1,"alpha":"two","mid":3.5}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestDetails_Empty(t *testing.T) {
	data, err := json.Marshal(Details{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal() = %s, want {}", data)
	}
}

func TestDetails_Lookups(t *testing.T) {
	details := Details{
		D("count", 42),
		D("ratio", 0.75),
		D("mount", "/var"),
	}

	if v, ok := details.Float("count"); !ok || v != 42 {
		t.Errorf("Float(count) = %v, %v, want 42, true", v, ok)
	}
	if v, ok := details.Float("ratio"); !ok || v != 0.75 {
		t.Errorf("Float(ratio) = %v, %v, want 0.75, true", v, ok)
	}
	if _, ok := details.Float("mount"); ok {
		t.Error("Float(mount) ok = true, want false for string value")
	}
	if v, ok := details.String("mount"); !ok || v != "/var" {
		t.Errorf("String(mount) = %q, %v, want /var, true", v, ok)
	}
	if _, ok := details.Get("absent"); ok {
		t.Error("Get(absent) ok = true, want false")
	}
}

func TestSeconds_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Seconds(1500 * time.Millisecond))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "1.5" {
		t.Errorf("Marshal() = %s, want 1.5", data)
	}
}

func TestReport_JSON(t *testing.T) {
	report := Report{
		OverallStatus: StatusDegraded,
		Level:         LevelReadiness,
		Checks: []CheckResult{
			{
				Name:           "queue_depth",
				Status:         StatusDegraded,
				Level:          LevelReadiness,
				Message:        "queue elevated",
				Details:        Details{D("depth", 120), D("max", 100)},
				Timestamp:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				RecoveryAction: "drain-queue",
			},
		},
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:  Seconds(250 * time.Millisecond),
	}

	data, err := report.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"overall_status": "degraded"`,
		`"level": "readiness"`,
		`"recovery_action": "drain-queue"`,
		`"duration": 0.25`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON() missing %s in:\n%s", want, out)
		}
	}

	// Detail insertion order survives.
	if strings.Index(out, `"depth"`) > strings.Index(out, `"max"`) {
		t.Errorf("details order not preserved in:\n%s", out)
	}
}

func TestCheckResult_OmitsEmptyRecoveryAction(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "pid", Status: StatusHealthy})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "recovery_action") {
		t.Errorf("Marshal() includes recovery_action for empty value: %s", data)
	}
}
