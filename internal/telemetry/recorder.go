// Package telemetry records named service events in JSON-Lines form.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Reporter is the sink for named telemetry events. Reporting is
// fire-and-forget; implementations must not block the caller.
type Reporter interface {
	ReportEvent(name string, props map[string]string)
}

// Header represents the first line of a telemetry recording.
type Header struct {
	Version   int    `json:"version"`
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
}

// Record represents a single recorded telemetry event.
// Format: [time_offset, event_name, properties]
type Record struct {
	TimeOffset float64
	Name       string
	Properties map[string]string
}

// MarshalJSON implements custom JSON marshaling for Record.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.TimeOffset, r.Name, r.Properties})
}

// UnmarshalJSON implements custom JSON unmarshaling for Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid record format: expected 3 elements, got %d", len(arr))
	}

	if err := json.Unmarshal(arr[0], &r.TimeOffset); err != nil {
		return fmt.Errorf("invalid time offset: %w", err)
	}
	if err := json.Unmarshal(arr[1], &r.Name); err != nil {
		return fmt.Errorf("invalid event name: %w", err)
	}
	if err := json.Unmarshal(arr[2], &r.Properties); err != nil {
		return fmt.Errorf("invalid properties: %w", err)
	}

	return nil
}

// Recorder appends telemetry events to a JSON-Lines file and keeps
// per-event counters queryable at runtime. It implements Reporter.
type Recorder struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	counts    map[string]int
	mu        sync.Mutex
}

// NewRecorder creates a new Recorder that writes to the given file path.
func NewRecorder(filePath string) (*Recorder, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry file: %w", err)
	}

	return &Recorder{
		writer:    file,
		file:      file,
		startTime: time.Now(),
		counts:    make(map[string]int),
	}, nil
}

// NewRecorderWithWriter creates a new Recorder that writes to the given writer.
// This is useful for testing.
func NewRecorderWithWriter(w io.Writer) *Recorder {
	return &Recorder{
		writer:    w,
		startTime: time.Now(),
		counts:    make(map[string]int),
	}
}

// WriteHeader writes the recording header. This should be called once
// before any events are reported.
func (r *Recorder) WriteHeader(service string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := Header{
		Version:   1,
		Service:   service,
		Timestamp: r.startTime.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// ReportEvent records a named event with a property bag. Write failures
// are logged, not returned; reporting never fails the caller.
func (r *Recorder) ReportEvent(name string, props map[string]string) {
	if err := r.writeRecord(name, props); err != nil {
		log.Printf("telemetry: failed to record %s: %v", name, err)
	}
}

// writeRecord appends one event record and bumps its counter.
func (r *Recorder) writeRecord(name string, props map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := Record{
		TimeOffset: time.Since(r.startTime).Seconds(),
		Name:       name,
		Properties: props,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	r.counts[name]++

	return nil
}

// Counts returns a copy of the per-event counters.
func (r *Recorder) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int, len(r.counts))
	for name, n := range r.counts {
		counts[name] = n
	}
	return counts
}

// CountFor returns the number of recorded events with the given name.
func (r *Recorder) CountFor(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[name]
}

// Close closes the telemetry file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// StartTime returns the start time of the recording.
func (r *Recorder) StartTime() time.Time {
	return r.startTime
}
