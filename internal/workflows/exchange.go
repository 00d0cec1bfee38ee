package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// ExchangeInput is the input for the exchange workflow.
type ExchangeInput struct {
	TripID    string
	User      domain.Message
	Assistant domain.Message
	Roadmap   *domain.Itinerary
}

// ExchangeResult carries the stored messages.
type ExchangeResult struct {
	User      domain.Message
	Assistant domain.Message
}

// RecordExchangeWorkflow stores the user message, the assistant reply and the
// updated roadmap of one exchange. If a later step fails, the messages
// already stored are deleted (saga compensation).
func RecordExchangeWorkflow(ctx workflow.Context, input ExchangeInput) (ExchangeResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Recording exchange", "tripID", input.TripID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Message inserts run once; compensation only deletes IDs it was handed.
	insertOpts := actOpts
	insertOpts.RetryPolicy = &temporal.RetryPolicy{MaximumAttempts: 1}
	insertCtx := workflow.WithActivityOptions(ctx, insertOpts)

	var result ExchangeResult
	var saved []int64
	compensate := func(cause error) (ExchangeResult, error) {
		logger.Warn("exchange step failed, compensating", "error", cause)
		for i := len(saved) - 1; i >= 0; i-- {
			if err := workflow.ExecuteActivity(ctx, "DeleteMessage", saved[i]).Get(ctx, nil); err != nil {
				logger.Error("compensation failed", "messageID", saved[i], "error", err)
			}
		}
		return ExchangeResult{}, cause
	}

	// Step 1: user message
	err := workflow.ExecuteActivity(insertCtx, "SaveMessage", input.User).Get(ctx, &result.User)
	if err != nil {
		return ExchangeResult{}, err
	}
	saved = append(saved, result.User.ID)

	// Step 2: assistant reply
	err = workflow.ExecuteActivity(insertCtx, "SaveMessage", input.Assistant).Get(ctx, &result.Assistant)
	if err != nil {
		return compensate(err)
	}
	saved = append(saved, result.Assistant.ID)

	// Step 3: roadmap
	if input.Roadmap != nil {
		err = workflow.ExecuteActivity(ctx, "SaveRoadmap", input.TripID, input.Roadmap).Get(ctx, nil)
		if err != nil {
			return compensate(err)
		}
	}

	logger.Info("Exchange recorded", "userMessageID", result.User.ID, "assistantMessageID", result.Assistant.ID)
	return result, nil
}
