// Package task waits on asynchronous tasks run by external providers.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Status is the normalized status of an external task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether polling can stop.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress is one observation of an external task.
type Progress struct {
	Status  Status
	Percent int
	Output  string
	Failure string
}

// StatusFunc fetches the current status of an external task once.
type StatusFunc func(ctx context.Context) (*Progress, error)

var (
	// ErrPollTimeout is returned when the task is still running after PollTimeout.
	ErrPollTimeout = errors.New("task polling timed out")

	// ErrMaxPollAttempts is returned when the task is still running after MaxPollAttempts polls.
	ErrMaxPollAttempts = errors.New("exceeded maximum poll attempts")

	// ErrTaskFailed is returned when the provider reports a failed task.
	ErrTaskFailed = errors.New("external task failed")

	// ErrNoProgress is a poll that returned neither a status nor an error.
	ErrNoProgress = errors.New("status request returned no progress")
)

// Config contains poller configuration.
type Config struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
	// RequestTimeout bounds a single status request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxConsecutiveErrors is how many status requests in a row may fail before giving up.
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors"`
}

// DefaultConfig returns the default poller configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:         5 * time.Second,
		PollTimeout:          30 * time.Minute,
		MaxPollAttempts:      360, // 30 minutes at 5 second intervals
		RequestTimeout:       30 * time.Second,
		MaxConsecutiveErrors: 3,
	}
}

// Poller polls external tasks until they finish.
type Poller struct {
	config *Config
	logger *zap.Logger
}

// NewPoller creates a poller. Non-positive durations and error limits take
// their defaults; MaxPollAttempts of zero means no attempt limit.
func NewPoller(config *Config, logger *zap.Logger) *Poller {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	cfg := *config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = def.MaxConsecutiveErrors
	}
	if cfg.MaxPollAttempts < 0 {
		cfg.MaxPollAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{config: &cfg, logger: logger.Named("task-poller")}
}

// Wait polls until the task completes or fails, a limit is hit, or ctx is done.
func (p *Poller) Wait(ctx context.Context, taskID string, poll StatusFunc) (*Progress, error) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	timeout := time.NewTimer(p.config.PollTimeout)
	defer timeout.Stop()

	attempts, consecutiveErrors := 0, 0
	lastPercent := -1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeout.C:
			return nil, fmt.Errorf("%w: task %s", ErrPollTimeout, taskID)

		case <-ticker.C:
			attempts++
			if p.config.MaxPollAttempts > 0 && attempts > p.config.MaxPollAttempts {
				return nil, fmt.Errorf("%w: task %s", ErrMaxPollAttempts, taskID)
			}

			pollCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
			progress, err := poll(pollCtx)
			cancel()
			if err == nil && progress == nil {
				err = ErrNoProgress
			}

			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				consecutiveErrors++
				p.logger.Warn("poll error",
					zap.String("task_id", taskID),
					zap.Int("consecutive_errors", consecutiveErrors),
					zap.Error(err))
				if consecutiveErrors >= p.config.MaxConsecutiveErrors {
					return nil, fmt.Errorf("poll task %s: %w", taskID, err)
				}
				continue
			}
			consecutiveErrors = 0

			if progress.Percent != lastPercent {
				lastPercent = progress.Percent
				p.logger.Debug("task progress",
					zap.String("task_id", taskID),
					zap.String("status", string(progress.Status)),
					zap.Int("percent", progress.Percent))
			}

			switch progress.Status {
			case StatusCompleted:
				return progress, nil
			case StatusFailed:
				return progress, fmt.Errorf("%w: task %s: %s", ErrTaskFailed, taskID, progress.Failure)
			}
		}
	}
}
