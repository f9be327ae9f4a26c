package saga

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepEvent represents an entry in the saga log.
type StepEvent struct {
	RunID     uuid.UUID
	Index     int
	Step      string
	EventType StepEventType
	At        time.Time
}

// String implements the fmt.Stringer interface for StepEvent.
func (e *StepEvent) String() string {
	return fmt.Sprintf("S%03d %-12s %s", e.Index, e.EventType.String(), e.Step)
}

// StepEventType defines the types of events that can occur for a saga step.
type StepEventType int

const (
	EventStarted StepEventType = iota
	EventSucceeded
	EventFailed
	EventUndoStarted
	EventUndoFinished
	EventUndoFailed
	EventUndoSkipped
)

// String returns the string representation of the StepEventType.
func (s StepEventType) String() string {
	switch s {
	case EventStarted:
		return "started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	case EventUndoStarted:
		return "undo_started"
	case EventUndoFinished:
		return "undo_finished"
	case EventUndoFailed:
		return "undo_failed"
	case EventUndoSkipped:
		return "undo_skipped"
	default:
		return fmt.Sprintf("Unknown StepEventType: %d", s)
	}
}

// MarshalJSON implements the json.Marshaler interface for StepEventType.
func (s StepEventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// StepStatus is the status of a single step as derived from the log.
type StepStatus int

const (
	StatusNeverStarted StepStatus = iota
	StatusStarted
	StatusSucceeded
	StatusFailed
	StatusUndoStarted
	StatusUndoFinished
	StatusUndoFailed
	StatusUndoSkipped
)

// nextStatus returns the new status for a step after recording the given event.
func (s StepStatus) nextStatus(eventType StepEventType) (StepStatus, error) {
	switch s {
	case StatusNeverStarted:
		if eventType == EventStarted {
			return StatusStarted, nil
		}
	case StatusStarted:
		switch eventType {
		case EventSucceeded:
			return StatusSucceeded, nil
		case EventFailed:
			return StatusFailed, nil
		}
	case StatusSucceeded:
		switch eventType {
		case EventUndoStarted:
			return StatusUndoStarted, nil
		case EventUndoSkipped:
			return StatusUndoSkipped, nil
		}
	case StatusUndoStarted:
		switch eventType {
		case EventUndoFinished:
			return StatusUndoFinished, nil
		case EventUndoFailed:
			return StatusUndoFailed, nil
		}
	}

	return s, fmt.Errorf(
		"illegal event type %s for current status %v",
		eventType, s,
	)
}

// String returns the string representation of the StepStatus.
func (s StepStatus) String() string {
	switch s {
	case StatusNeverStarted:
		return "NeverStarted"
	case StatusStarted:
		return "Started"
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	case StatusUndoStarted:
		return "UndoStarted"
	case StatusUndoFinished:
		return "UndoFinished"
	case StatusUndoFailed:
		return "UndoFailed"
	case StatusUndoSkipped:
		return "UndoSkipped"
	default:
		return fmt.Sprintf("Unknown StepStatus: %d", s)
	}
}

// MarshalJSON implements the json.Marshaler interface for StepStatus.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for StepStatus.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "NeverStarted":
		*s = StatusNeverStarted
	case "Started":
		*s = StatusStarted
	case "Succeeded":
		*s = StatusSucceeded
	case "Failed":
		*s = StatusFailed
	case "UndoStarted":
		*s = StatusUndoStarted
	case "UndoFinished":
		*s = StatusUndoFinished
	case "UndoFailed":
		*s = StatusUndoFailed
	case "UndoSkipped":
		*s = StatusUndoSkipped
	default:
		return fmt.Errorf("invalid StepStatus: %s", str)
	}

	return nil
}

// SagaLog is the event journal of one saga run. Steps are keyed by their
// position in the step list since names need not be unique.
type SagaLog struct {
	mu         sync.Mutex
	runID      uuid.UUID
	unwinding  bool
	events     []*StepEvent
	stepStatus map[int]StepStatus
}

// NewSagaLog creates a new, empty SagaLog.
func NewSagaLog(runID uuid.UUID) *SagaLog {
	return &SagaLog{
		runID:      runID,
		events:     make([]*StepEvent, 0),
		stepStatus: make(map[int]StepStatus),
	}
}

// Record adds an event to the SagaLog.
func (l *SagaLog) Record(event *StepEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.RunID != l.runID {
		return fmt.Errorf(
			"event for different run (%s) than this log (%s)",
			event.RunID, l.runID,
		)
	}

	next, err := l.statusLocked(event.Index).nextStatus(event.EventType)
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", event.Index, event.Step, err)
	}

	switch next {
	case StatusFailed, StatusUndoStarted, StatusUndoFinished, StatusUndoFailed, StatusUndoSkipped:
		l.unwinding = true
	}

	if event.At.IsZero() {
		event.At = time.Now()
	}
	l.stepStatus[event.Index] = next
	l.events = append(l.events, event)
	return nil
}

// Unwinding returns true once any step has failed.
func (l *SagaLog) Unwinding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unwinding
}

// Status returns the status of the step at the given index.
func (l *SagaLog) Status(index int) StepStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.statusLocked(index)
}

func (l *SagaLog) statusLocked(index int) StepStatus {
	status, exists := l.stepStatus[index]
	if !exists {
		return StatusNeverStarted
	}
	return status
}

// Events returns a copy of the events in the SagaLog.
func (l *SagaLog) Events() []*StepEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]*StepEvent(nil), l.events...)
}

// RunID returns the run this log belongs to.
func (l *SagaLog) RunID() uuid.UUID {
	return l.runID
}

// SagaLogPretty is a helper for pretty-printing a SagaLog.
type SagaLogPretty struct {
	Log *SagaLog
}

// String implements the fmt.Stringer interface for SagaLogPretty.
func (p *SagaLogPretty) String() string {
	p.Log.mu.Lock()
	defer p.Log.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("SAGA LOG:\n")
	sb.WriteString(fmt.Sprintf("run id:    %s\n", p.Log.runID))
	direction := "forward"
	if p.Log.unwinding {
		direction = "unwinding"
	}
	sb.WriteString(fmt.Sprintf("direction: %s\n", direction))
	sb.WriteString(fmt.Sprintf("events (%d total):\n", len(p.Log.events)))
	sb.WriteString("\n")
	for i, event := range p.Log.events {
		sb.WriteString(fmt.Sprintf("%03d %s\n", i+1, event.String()))
	}
	return sb.String()
}
