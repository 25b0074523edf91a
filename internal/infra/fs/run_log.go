package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunLogEntry is one pipeline run recorded by the scheduler.
type RunLogEntry struct {
	Timestamp string   `json:"timestamp"` // RFC3339
	Date      string   `json:"date"`      // YYYY-MM-DD in the schedule timezone
	Steps     []string `json:"steps"`
	Failed    []string `json:"failed,omitempty"`
	Scheduled bool     `json:"scheduled"` // false for --now and startup catch-up runs
}

// RunLog is the file structure of the run log.
type RunLog struct {
	Entries []RunLogEntry `json:"entries"`
}

// maxRunLogEntries bounds the file; older entries are dropped on save.
const maxRunLogEntries = 400

// LoadRunLog reads the run log at path.
// Returns an empty log if the file doesn't exist (not an error).
func LoadRunLog(path string) (*RunLog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &RunLog{Entries: []RunLogEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	if len(data) == 0 {
		return &RunLog{Entries: []RunLogEntry{}}, nil
	}

	var runLog RunLog
	if err := json.Unmarshal(data, &runLog); err != nil {
		return nil, fmt.Errorf("failed to parse run log JSON: %w", err)
	}
	if runLog.Entries == nil {
		runLog.Entries = []RunLogEntry{}
	}
	return &runLog, nil
}

// AppendRun adds entry to the run log at path. An unreadable log is replaced.
func AppendRun(path string, entry RunLogEntry) error {
	existing, err := LoadRunLog(path)
	if err != nil {
		existing = &RunLog{Entries: []RunLogEntry{}}
	}

	existing.Entries = append(existing.Entries, entry)
	if n := len(existing.Entries); n > maxRunLogEntries {
		existing.Entries = existing.Entries[n-maxRunLogEntries:]
	}

	data, err := marshalRunLog(existing)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

func marshalRunLog(runLog *RunLog) ([]byte, error) {
	data, err := json.MarshalIndent(runLog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run log JSON: %w", err)
	}
	return data, nil
}

// NewRunLogEntry stamps an entry with t, using t's location for the date.
func NewRunLogEntry(t time.Time, steps, failed []string, scheduled bool) RunLogEntry {
	return RunLogEntry{
		Timestamp: t.Format(time.RFC3339),
		Date:      t.Format("2006-01-02"),
		Steps:     steps,
		Failed:    failed,
		Scheduled: scheduled,
	}
}

// RanOn reports whether the log holds a run dated day (YYYY-MM-DD).
func RanOn(path, day string) (bool, error) {
	runLog, err := LoadRunLog(path)
	if err != nil {
		return false, err
	}
	for _, entry := range runLog.Entries {
		if entry.Date == day {
			return true, nil
		}
	}
	return false, nil
}
