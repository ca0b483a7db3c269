package temporaladapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/workflows"
)

func TestTourID(t *testing.T) {
	if got := TourID("abc"); got != "tour-abc" {
		t.Errorf("TourID = %q", got)
	}
}

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("nil should stay nil")
	}
	if err := mapError(serviceerror.NewNotFound("workflow not found")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	started := serviceerror.NewWorkflowExecutionAlreadyStarted("running", "", "")
	if err := mapError(started); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	other := errors.New("deadline exceeded")
	if err := mapError(other); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}

// fakeClient records the start options it receives. Methods the runner does
// not call fall through to the nil embedded client.
type fakeClient struct {
	client.Client
	opts    []client.StartWorkflowOptions
	args    []interface{}
	running map[string]bool
}

func (c *fakeClient) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	c.opts = append(c.opts, options)
	c.args = append(c.args, args...)
	if c.running[options.ID] {
		if options.WorkflowExecutionErrorWhenAlreadyStarted {
			return nil, serviceerror.NewWorkflowExecutionAlreadyStarted("workflow execution already started", "", "run-1")
		}
		return fakeRun{id: options.ID}, nil
	}
	c.running[options.ID] = true
	return fakeRun{id: options.ID}, nil
}

type fakeRun struct {
	client.WorkflowRun
	id string
}

func (r fakeRun) GetID() string { return r.id }

func TestStartTour(t *testing.T) {
	fc := &fakeClient{running: map[string]bool{}}
	runner := NewTourRunner(fc, "tours", 5*time.Minute)

	id, err := runner.StartTour(context.Background(), "s1", []string{"Manzana", "Pepsi"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "tour-s1" {
		t.Errorf("id = %q", id)
	}
	opts := fc.opts[0]
	if opts.ID != "tour-s1" || opts.TaskQueue != "tours" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if !opts.WorkflowExecutionErrorWhenAlreadyStarted {
		t.Error("start must fail when the session already runs a tour")
	}
	in, ok := fc.args[0].(workflows.TourInput)
	if !ok {
		t.Fatalf("unexpected workflow input %T", fc.args[0])
	}
	if in.SessionID != "s1" || len(in.Destinations) != 2 || in.LegTimeout != 5*time.Minute {
		t.Errorf("unexpected input: %+v", in)
	}
}

func TestStartTour_AlreadyRunning(t *testing.T) {
	fc := &fakeClient{running: map[string]bool{}}
	runner := NewTourRunner(fc, "tours", time.Minute)
	ctx := context.Background()

	if _, err := runner.StartTour(ctx, "s1", []string{"Manzana"}); err != nil {
		t.Fatal(err)
	}
	_, err := runner.StartTour(ctx, "s1", []string{"Pepsi"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for a second tour, got %v", err)
	}

	if _, err := runner.StartTour(ctx, "s2", []string{"Pepsi"}); err != nil {
		t.Errorf("another session should start freely: %v", err)
	}
}
