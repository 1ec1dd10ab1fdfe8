package scheduler

import (
	"sync"
	"time"
)

// Execution statuses recorded in JobMetadata.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// JobMetadata is the operator view of a registered job, served by GET /_sys/job.
type JobMetadata struct {
	JobID          string `json:"jobId"`
	ScheduleType   string `json:"scheduleType"`
	CronExpression string `json:"cronExpression"`
	HumanReadable  string `json:"humanReadable"`

	NextExecutionTime   *time.Time `json:"nextExecutionTime,omitempty"`
	LastExecutionTime   *time.Time `json:"lastExecutionTime,omitempty"`
	LastExecutionStatus string     `json:"lastExecutionStatus,omitempty"`
	LastTrigger         string     `json:"lastTrigger,omitempty"`

	TotalExecutions int64 `json:"totalExecutions"`
	SuccessCount    int64 `json:"successCount"`
	FailureCount    int64 `json:"failureCount"`
	// SkippedCount counts triggers dropped because the job was still running.
	SkippedCount int64 `json:"skippedCount"`

	mu sync.Mutex
}

func (m *JobMetadata) record(trigger, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.TotalExecutions++
	if status == StatusSuccess {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	m.LastExecutionTime = &now
	m.LastExecutionStatus = status
	m.LastTrigger = trigger
}

func (m *JobMetadata) incrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedCount++
}

// snapshot copies the exported fields under the lock.
func (m *JobMetadata) snapshot() *JobMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := &JobMetadata{
		JobID:               m.JobID,
		ScheduleType:        m.ScheduleType,
		CronExpression:      m.CronExpression,
		HumanReadable:       m.HumanReadable,
		LastExecutionStatus: m.LastExecutionStatus,
		LastTrigger:         m.LastTrigger,
		TotalExecutions:     m.TotalExecutions,
		SuccessCount:        m.SuccessCount,
		FailureCount:        m.FailureCount,
		SkippedCount:        m.SkippedCount,
	}
	if m.LastExecutionTime != nil {
		t := *m.LastExecutionTime
		out.LastExecutionTime = &t
	}
	return out
}
