package jobs

import (
	"fmt"
)

// JobManager coordinates the application's scheduled jobs behind a single
// start/stop interface.
type JobManager struct {
	trackingRefreshJob *TrackingRefreshJob
}

// NewJobManager creates a job manager owning the given jobs.
func NewJobManager(trackingRefreshJob *TrackingRefreshJob) *JobManager {
	return &JobManager{trackingRefreshJob: trackingRefreshJob}
}

// StartAll starts every scheduled job.
func (jm *JobManager) StartAll() error {
	if err := jm.trackingRefreshJob.Start(); err != nil {
		return fmt.Errorf("failed to start tracking refresh job: %w", err)
	}
	return nil
}

// StopAll stops every scheduled job gracefully.
func (jm *JobManager) StopAll() {
	jm.trackingRefreshJob.Stop()
}
