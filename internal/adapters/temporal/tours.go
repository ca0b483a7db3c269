// Package temporaladapter runs tours as Temporal workflows.
package temporaladapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/workflows"
)

// TourRunner implements ports.TourRunner over a Temporal client.
type TourRunner struct {
	client     client.Client
	taskQueue  string
	legTimeout time.Duration
}

func NewTourRunner(c client.Client, taskQueue string, legTimeout time.Duration) *TourRunner {
	return &TourRunner{client: c, taskQueue: taskQueue, legTimeout: legTimeout}
}

// TourID is the workflow id of a session's tour. A session runs one tour at a time.
func TourID(sessionID string) string {
	return "tour-" + sessionID
}

func (r *TourRunner) StartTour(ctx context.Context, sessionID string, destinations []string) (string, error) {
	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        TourID(sessionID),
		TaskQueue: r.taskQueue,
		// Without this the SDK hands back the running tour and drops the new stops.
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.TourWorkflow, workflows.TourInput{
		SessionID:    sessionID,
		Destinations: destinations,
		LegTimeout:   r.legTimeout,
	})
	if err != nil {
		return "", mapError(err)
	}
	return run.GetID(), nil
}

func (r *TourRunner) SignalArrival(ctx context.Context, tourID string) error {
	return mapError(r.client.SignalWorkflow(ctx, tourID, "", workflows.SignalArrived, nil))
}

func (r *TourRunner) CurrentTarget(ctx context.Context, tourID string) (*domain.Target, error) {
	v, err := r.client.QueryWorkflow(ctx, tourID, "", workflows.QueryCurrent)
	if err != nil {
		return nil, mapError(err)
	}
	var p workflows.TourProgress
	if err := v.Get(&p); err != nil {
		return nil, fmt.Errorf("decode tour progress: %w", err)
	}
	if p.Target == nil {
		return nil, domain.ErrNoTarget
	}
	return p.Target, nil
}

// Ping is used by the readiness probe.
func (r *TourRunner) Ping(ctx context.Context) error {
	_, err := r.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

func (r *TourRunner) Close() {
	r.client.Close()
}

// mapError turns Temporal's not-found into domain.ErrNotFound and an
// already-started tour into domain.ErrConflict.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("tour: %w", domain.ErrNotFound)
	}
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return fmt.Errorf("session already has a running tour: %w", domain.ErrConflict)
	}
	return err
}
