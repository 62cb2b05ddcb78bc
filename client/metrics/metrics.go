package metrics

import (
	"fmt"
	"go_copy_bench/constants"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the outcome of one worker. It is written once by its worker and
// read only after the pool has joined.
type Result struct {
	Worker           int
	BytesTransferred int64
	ElapsedSeconds   float64
	AvgLatencyUs     float64
	Messages         int64
	Connected        bool
	Err              error
}

// Report is the reduction of all worker results
type Report struct {
	Strategy       string
	PayloadSize    int
	Workers        int
	TotalBytes     int64
	ElapsedSeconds float64
	AvgLatencyUs   float64
	ThroughputGbps float64
	Connected      int
}

// Sampler accumulates per send latency for one worker
type Sampler struct {
	bytes   int64
	count   int64
	latency time.Duration
}

// Add records one logical send
func (s *Sampler) Add(bytes int, latency time.Duration) {
	s.bytes += int64(bytes)
	s.count++
	s.latency += latency
}

// AddBytes counts bytes of a send that did not complete
func (s *Sampler) AddBytes(bytes int) {
	s.bytes += int64(bytes)
}

// Bytes returns total bytes recorded
func (s *Sampler) Bytes() int64 {
	return s.bytes
}

// Count returns number of completed sends
func (s *Sampler) Count() int64 {
	return s.count
}

// AvgLatencyUs returns mean latency in microseconds, 0 without samples
func (s *Sampler) AvgLatencyUs() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.latency) / float64(time.Microsecond) / float64(s.count)
}

// Throughput returns bits per second expressed in Gbps
func Throughput(totalBytes int64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(totalBytes) * constants.BITS_PER_BYTE / (elapsedSeconds * 1e9)
}

// Aggregate sums bytes, takes the slowest worker's elapsed time and the plain
// mean of per worker latency averages. The latency mean is not weighted by
// bytes, which is a known approximation.
func Aggregate(strategy string, payloadSize int, results []Result) Report {
	report := Report{
		Strategy:    strategy,
		PayloadSize: payloadSize,
		Workers:     len(results),
	}
	var latency float64
	for _, r := range results {
		report.TotalBytes += r.BytesTransferred
		latency += r.AvgLatencyUs
		if r.ElapsedSeconds > report.ElapsedSeconds {
			report.ElapsedSeconds = r.ElapsedSeconds
		}
		if r.Connected {
			report.Connected++
		}
	}
	if len(results) > 0 {
		report.AvgLatencyUs = latency / float64(len(results))
	}
	report.ThroughputGbps = Throughput(report.TotalBytes, report.ElapsedSeconds)
	return report
}

// ResultLine formats the machine parseable record for a run
func (r Report) ResultLine() string {
	return fmt.Sprintf("RESULT,%s,%d,%d,%.4f,%.2f,%d,%.4f",
		r.Strategy, r.PayloadSize, r.Workers, r.ThroughputGbps, r.AvgLatencyUs,
		r.TotalBytes, r.ElapsedSeconds)
}

// Summary formats a human readable line with grouped digits
func (r Report) Summary() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s: %d bytes from %d/%d workers in %.2f s (%.4f Gbps, avg latency %.2f us)",
		r.Strategy, r.TotalBytes, r.Connected, r.Workers, r.ElapsedSeconds,
		r.ThroughputGbps, r.AvgLatencyUs)
}
