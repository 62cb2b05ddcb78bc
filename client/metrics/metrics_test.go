package metrics

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestThroughput(t *testing.T) {
	if got := Throughput(1_000_000_000, 8); got != 1.0 {
		t.Errorf("Expected 1.0 Gbps, got %f", got)
	}
	if got := Throughput(100, 0); got != 0 {
		t.Errorf("Expected 0 for zero elapsed time, got %f", got)
	}
}

func TestSampler(t *testing.T) {
	var s Sampler
	if s.AvgLatencyUs() != 0 {
		t.Errorf("Expected 0 latency without samples")
	}
	s.Add(100, 10*time.Microsecond)
	s.Add(100, 20*time.Microsecond)
	s.Add(100, 30*time.Microsecond)
	s.AddBytes(40)
	if s.Bytes() != 340 || s.Count() != 3 {
		t.Errorf("Expected 340 bytes in 3 sends, got %d in %d", s.Bytes(), s.Count())
	}
	if s.AvgLatencyUs() != 20 {
		t.Errorf("Expected 20 us average, got %f", s.AvgLatencyUs())
	}
}

// TestAggregate sums bytes, keeps the slowest worker and averages latencies unweighted.
func TestAggregate(t *testing.T) {
	results := []Result{
		{Worker: 0, BytesTransferred: 600_000_000, ElapsedSeconds: 7.5, AvgLatencyUs: 10, Connected: true},
		{Worker: 1, BytesTransferred: 400_000_000, ElapsedSeconds: 8, AvgLatencyUs: 30, Connected: true},
		{Worker: 2},
	}
	report := Aggregate("one_copy", 1024, results)
	if report.TotalBytes != 1_000_000_000 {
		t.Errorf("Expected 1e9 bytes, got %d", report.TotalBytes)
	}
	if report.ElapsedSeconds != 8 {
		t.Errorf("Expected 8 s elapsed, got %f", report.ElapsedSeconds)
	}
	if math.Abs(report.AvgLatencyUs-40.0/3) > 1e-9 {
		t.Errorf("Expected unweighted mean latency, got %f", report.AvgLatencyUs)
	}
	if report.ThroughputGbps != 1.0 || report.Connected != 2 || report.Workers != 3 {
		t.Errorf("Unexpected report %+v", report)
	}
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate("two_copy", 64, nil)
	if report.TotalBytes != 0 || report.ThroughputGbps != 0 || report.AvgLatencyUs != 0 {
		t.Errorf("Expected zero report, got %+v", report)
	}
}

func TestResultLine(t *testing.T) {
	report := Report{
		Strategy:       "zero_copy",
		PayloadSize:    65536,
		Workers:        4,
		TotalBytes:     1_000_000_000,
		ElapsedSeconds: 8,
		AvgLatencyUs:   12.5,
		ThroughputGbps: 1,
	}
	want := "RESULT,zero_copy,65536,4,1.0000,12.50,1000000000,8.0000"
	if got := report.ResultLine(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSummary(t *testing.T) {
	report := Report{Strategy: "two_copy", Workers: 2, Connected: 1, TotalBytes: 1234567}
	summary := report.Summary()
	if !strings.Contains(summary, "1,234,567 bytes") || !strings.Contains(summary, "1/2 workers") {
		t.Errorf("Unexpected summary %q", summary)
	}
}
