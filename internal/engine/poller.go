package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/salesforge/platform/internal/app/fanout"
	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/ports"
)

// Poller resumes runs parked by wait actions. Each tick it claims a batch of
// due waiting runs and resumes them concurrently. Claiming is atomic at the
// store, so multiple instances can poll the same database.
type Poller struct {
	runs      ports.RunStore
	workflows ports.WorkflowStore
	executor  *Executor
	cfg       config.EngineConfig
	logger    *slog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a Poller.
func NewPoller(runs ports.RunStore, workflows ports.WorkflowStore, executor *Executor, cfg config.EngineConfig, logger *slog.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		runs:      runs,
		workflows: workflows,
		executor:  executor,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the polling loop.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
	p.logger.Info("run poller started",
		slog.Duration("poll_interval", p.cfg.PollInterval),
		slog.Int("batch_size", p.cfg.PollBatchSize),
	)
}

// Close stops the polling loop and waits for in-flight resumes to finish.
func (p *Poller) Close() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("run poller stopped")
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick(p.ctx)
		}
	}
}

// tick claims one batch of due runs and resumes them with bounded
// concurrency. Resume failures are logged per run; the tick itself never
// fails.
func (p *Poller) tick(ctx context.Context) {
	claimed, err := p.runs.ClaimDueRuns(ctx, p.now().UTC(), p.cfg.PollBatchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to claim due runs",
			slog.String("operation", "Poller.tick"),
			slog.Any("error", err),
		)
		return
	}
	if len(claimed) == 0 {
		return
	}

	p.logger.DebugContext(ctx, "resuming runs", slog.Int("count", len(claimed)))

	fanout.Run(ctx, p.cfg.ResumeWorkers, claimed, func(ctx context.Context, run workflow.Run) (struct{}, error) {
		if err := p.resume(ctx, &run); err != nil {
			p.logger.ErrorContext(ctx, "failed to resume run",
				slog.String("org_id", run.OrgID),
				slog.String("run_id", run.ID),
				slog.Any("error", err),
			)
		}
		return struct{}{}, nil
	})
}

// resume reloads the run's workflow and continues execution from the step
// cursor. The workflow is reloaded rather than frozen on the run, so edits
// made during a wait apply to the remaining steps. A deleted workflow fails
// the run.
func (p *Poller) resume(ctx context.Context, run *workflow.Run) error {
	w, err := p.workflows.GetWorkflow(ctx, run.OrgID, run.WorkflowID)
	if errors.Is(err, domain.ErrNotFound) {
		run.Status = workflow.RunFailed
		run.ResumeAt = nil
		run.Error = "workflow deleted while run was waiting"
		run.UpdatedAt = p.now().UTC()
		_, uerr := p.runs.UpdateRun(ctx, run)
		return uerr
	}
	if err != nil {
		return err
	}
	return p.executor.ExecuteRun(ctx, w.Actions, run)
}
