package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// Recorder implements ports.ExchangeRecorder by running RecordExchangeWorkflow
// and waiting for its result.
type Recorder struct {
	client    client.Client
	taskQueue string
}

func NewRecorder(c client.Client, taskQueue string) *Recorder {
	return &Recorder{client: c, taskQueue: taskQueue}
}

func (r *Recorder) Record(ctx context.Context, ex *domain.Exchange) error {
	if ex.TripID == "" {
		return fmt.Errorf("%w: trip id is required", domain.ErrValidation)
	}
	ex.User.TripID = ex.TripID
	ex.Assistant.TripID = ex.TripID

	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "exchange-" + ex.TripID + "-" + uuid.NewString(),
		TaskQueue: r.taskQueue,
	}, RecordExchangeWorkflow, ExchangeInput{
		TripID:    ex.TripID,
		User:      ex.User,
		Assistant: ex.Assistant,
		Roadmap:   ex.Roadmap,
	})
	if err != nil {
		return fmt.Errorf("start exchange workflow: %w", err)
	}

	var result ExchangeResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("exchange workflow %s: %w", run.GetID(), err)
	}
	ex.User = result.User
	ex.Assistant = result.Assistant
	return nil
}
