package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/usecases"
)

// WorkflowID is the fixed ID of the cron sweep, so only one schedule exists.
const WorkflowID = "deal-lifecycle-sweep"

// DealLifecycleWorkflow applies every due deal transition and announces each
// affected business once. It is started with a cron schedule; a failed
// transition fails the run and the next run picks it up again.
func DealLifecycleWorkflow(ctx workflow.Context) (usecases.SweepResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	res := usecases.SweepResult{Businesses: []int64{}}

	var pending []domain.DealTransition
	if err := workflow.ExecuteActivity(ctx, "ListPendingTransitions").Get(ctx, &pending); err != nil {
		return res, err
	}
	if len(pending) == 0 {
		return res, nil
	}

	seen := make(map[int64]bool)
	for _, t := range pending {
		var applied bool
		if err := workflow.ExecuteActivity(ctx, "ApplyTransition", t).Get(ctx, &applied); err != nil {
			logger.Warn("deal transition failed", "deal_id", t.DealID, "error", err)
			// announce what already changed before failing the run
			if len(res.Businesses) > 0 {
				_ = workflow.ExecuteActivity(ctx, "AnnounceBusinesses", res.Businesses).Get(ctx, nil)
			}
			return res, err
		}
		if !applied {
			continue
		}
		res.Applied++
		if !seen[t.BusinessID] {
			seen[t.BusinessID] = true
			res.Businesses = append(res.Businesses, t.BusinessID)
		}
	}

	if len(res.Businesses) > 0 {
		if err := workflow.ExecuteActivity(ctx, "AnnounceBusinesses", res.Businesses).Get(ctx, nil); err != nil {
			logger.Warn("announce failed", "error", err)
		}
	}
	logger.Info("deal sweep done", "applied", res.Applied, "businesses", len(res.Businesses))
	return res, nil
}
