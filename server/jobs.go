package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heritagehub/cms/scheduler"
)

// JobController exposes registered maintenance jobs. *scheduler.Scheduler satisfies it.
type JobController interface {
	Jobs() []*scheduler.JobMetadata
	Trigger(jobID string) error
}

// JobListResponse is the body of GET /_sys/job.
type JobListResponse struct {
	Jobs []*scheduler.JobMetadata `json:"jobs"`
}

// JobTriggerResponse is the body of POST /_sys/job/:jobId.
type JobTriggerResponse struct {
	JobID   string `json:"jobId"`
	Trigger string `json:"trigger"`
	Message string `json:"message"`
}

// RegisterJobRoutes mounts the job API under /_sys behind the scheduler CIDR allowlist.
func (s *Server) RegisterJobRoutes(jobs JobController) {
	sec := s.cfg.Scheduler.Security
	g := s.echo.Group("/_sys", CIDRMiddleware(sec.CIDRAllowlist, sec.TrustedProxies))

	g.GET("/job", func(c echo.Context) error {
		return c.JSON(http.StatusOK, JobListResponse{Jobs: jobs.Jobs()})
	})

	g.POST("/job/:jobId", func(c echo.Context) error {
		jobID := c.Param("jobId")
		if err := jobs.Trigger(jobID); err != nil {
			switch {
			case errors.Is(err, scheduler.ErrJobNotFound):
				return echo.NewHTTPError(http.StatusNotFound, "job not found: "+jobID)
			case errors.Is(err, scheduler.ErrShuttingDown):
				return echo.NewHTTPError(http.StatusServiceUnavailable, "scheduler is shutting down")
			default:
				return err
			}
		}
		s.logger.Info().Str("jobID", jobID).Str("client.address", c.RealIP()).Msg("Job triggered manually")
		return c.JSON(http.StatusAccepted, JobTriggerResponse{
			JobID:   jobID,
			Trigger: scheduler.TriggerManual,
			Message: "Request accepted: job will run unless an instance is already running",
		})
	})

	s.logger.Debug().Strs("cidr_allowlist", sec.CIDRAllowlist).Msg("Job routes registered")
}
