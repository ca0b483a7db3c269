package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/arnav/internal/core/domain"
)

const (
	// SignalArrived advances the tour to its next stop.
	SignalArrived = "arrived"
	// QueryCurrent returns the TourProgress.
	QueryCurrent = "current"

	DefaultLegTimeout = 30 * time.Minute
)

// TourInput is the input for the tour workflow.
type TourInput struct {
	SessionID    string
	Destinations []string
	LegTimeout   time.Duration
}

// TourProgress is what the current query reports.
type TourProgress struct {
	Stop     int            `json:"stop"`
	Target   *domain.Target `json:"target,omitempty"`
	Visited  []string       `json:"visited"`
	Skipped  []string       `json:"skipped,omitempty"`
	Finished bool           `json:"finished"`
}

// TourWorkflow walks a session through its stops in order. Each leg waits for
// an arrived signal; a leg that outlives LegTimeout is recorded as skipped.
// After the last stop the session is sent to the best queue.
func TourWorkflow(ctx workflow.Context, input TourInput) (TourProgress, error) {
	logger := workflow.GetLogger(ctx)

	progress := TourProgress{Visited: []string{}}
	if len(input.Destinations) == 0 {
		return progress, temporal.NewNonRetryableApplicationError("tour has no stops", "EmptyTour", errors.New("empty tour"))
	}
	if err := workflow.SetQueryHandler(ctx, QueryCurrent, func() (TourProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}

	legTimeout := input.LegTimeout
	if legTimeout <= 0 {
		legTimeout = DefaultLegTimeout
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var a *TourActivities
	arrived := workflow.GetSignalChannel(ctx, SignalArrived)

	logger.Info("Starting tour", "session", input.SessionID, "stops", len(input.Destinations))

	var last *domain.GeoPoint
	for i, name := range input.Destinations {
		var target domain.Target
		if err := workflow.ExecuteActivity(ctx, a.ResolveDestination, name).Get(ctx, &target); err != nil {
			return progress, err
		}
		progress.Stop = i
		progress.Target = &target
		if err := workflow.ExecuteActivity(ctx, a.PublishTarget, input.SessionID, target).Get(ctx, nil); err != nil {
			return progress, err
		}

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		timedOut := false
		sel := workflow.NewSelector(ctx)
		sel.AddReceive(arrived, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
		})
		sel.AddFuture(workflow.NewTimer(timerCtx, legTimeout), func(f workflow.Future) {
			timedOut = f.Get(timerCtx, nil) == nil
		})
		sel.Select(ctx)
		cancelTimer()

		if timedOut {
			logger.Warn("Leg timed out", "stop", name)
			progress.Skipped = append(progress.Skipped, name)
		} else {
			progress.Visited = append(progress.Visited, name)
		}
		loc := target.Location
		last = &loc
	}

	var queue domain.Target
	if err := workflow.ExecuteActivity(ctx, a.SelectBestQueue, last).Get(ctx, &queue); err != nil {
		return progress, err
	}
	progress.Stop = len(input.Destinations)
	progress.Target = &queue
	if err := workflow.ExecuteActivity(ctx, a.PublishTarget, input.SessionID, queue).Get(ctx, nil); err != nil {
		return progress, err
	}
	progress.Finished = true

	logger.Info("Tour finished", "session", input.SessionID, "queue", queue.QueueID, "skipped", len(progress.Skipped))
	return progress, nil
}
