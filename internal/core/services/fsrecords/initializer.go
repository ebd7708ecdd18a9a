package fsrecords

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
	"github.com/iamNilotpal/fsrecords/internal/core/ports"
	"github.com/iamNilotpal/fsrecords/internal/core/services/loader"
	loaderrors "github.com/iamNilotpal/fsrecords/pkg/errors"
)

type nopTelemetry struct{}

func (nopTelemetry) ObserveAttempt(string)                      {}
func (nopTelemetry) ObserveInitialization(string, int, float64) {}

// initializer runs load attempts until one succeeds, a failure must not be
// recovered from, or the attempts run out.
type initializer struct {
	opts      *domain.StorageOptions
	log       *zap.SugaredLogger
	fs        ports.FileSystemPort
	telemetry ports.LoadTelemetry
	now       func() time.Time
}

func (i *initializer) run(ctx context.Context) (*loader.Storages, InitializationReport, error) {
	start := i.now()
	report := InitializationReport{SessionID: newSessionID()}

	l := loader.New(loader.Config{Options: i.opts, Logger: i.log, FS: i.fs, Now: i.now})

	var lastErr *loaderrors.LoadError
	for attempt := 1; attempt <= int(i.opts.MaxAttempts); attempt++ {
		report.Attempts = attempt

		storages, outcome, err := l.Load(ctx)
		if err == nil {
			i.telemetry.ObserveAttempt(outcome.Category.String())

			report.CreatedANew = outcome.CreatedANew
			report.Version = outcome.Header.Version
			report.CreatedAt = outcome.Header.CreationTime()
			report.Duration = i.now().Sub(start)
			report.RebuildCause = RebuildCause(report.CreatedANew, report.Failures)

			i.telemetry.ObserveInitialization(report.RebuildCause.String(), report.Attempts, report.Duration.Seconds())
			i.log.Infow(
				"storages initialized",
				"session", report.SessionID,
				"attempts", report.Attempts,
				"rebuildCause", report.RebuildCause.String(),
				"createdANew", report.CreatedANew,
				"duration", report.Duration,
			)
			return storages, report, nil
		}

		le, ok := loaderrors.AsLoadError(err)
		if !ok {
			le = loader.Classify(err, "load attempt failed")
		}
		lastErr = le
		report.Failures = append(report.Failures, le)
		i.telemetry.ObserveAttempt(le.Category().String())

		i.log.Warnw(
			"load attempt failed",
			"session", report.SessionID,
			"attempt", attempt,
			"error", le.Error(),
			"category", le.Category().String(),
			"cause", le.Cause(),
		)

		if le.Category().Recovery() != loaderrors.RecoveryRebuild {
			i.log.Errorw("load failure is not recoverable", "session", report.SessionID, "category", le.Category().String())
			return nil, report, le
		}

		if attempt == int(i.opts.MaxAttempts) {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, report, le
		}

		i.log.Infow("discarding storages for rebuild", "session", report.SessionID, "directory", i.opts.Directory)
		if err := i.fs.DeleteDir(i.opts.Directory); err != nil {
			return nil, report, loaderrors.WrapLoadError(
				le.Category(),
				"cannot discard storages for rebuild: "+le.Message(),
				multierr.Combine(le, err),
			)
		}
	}

	i.log.Errorw("load attempts exhausted", "session", report.SessionID, "attempts", report.Attempts)
	return nil, report, lastErr
}
