package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"academy/internal/domain/salary"
	"academy/internal/platform/config"
)

const JobSalarySweep = "salary_sweep"

// Service runs background work on a single worker goroutine and records
// every run in job_runs.
type Service struct {
	DB       *pgxpool.Pool
	Cfg      config.Config
	Salaries *salary.Service
	queue    chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, salaries *salary.Service) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		Salaries: salaries,
		queue:    make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.SalarySweepInterval > 0 {
		go s.scheduleSalarySweep(ctx, s.Cfg.SalarySweepInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

// scheduleSalarySweep periodically recalculates the current period's draft
// salaries so that schedule edits show up without anyone pressing a button.
func (s *Service) scheduleSalarySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.Enqueue(JobSalarySweep, func(ctx context.Context) (any, error) {
				result, err := s.Salaries.RecalculateAll(ctx, int(now.Month()), now.Year())
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"month":     int(now.Month()),
					"year":      now.Year(),
					"processed": len(result.Outcomes),
					"failed":    result.Failed,
				}, nil
			})
		}
	}
}
