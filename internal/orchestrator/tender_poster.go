package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/tenderswarm/internal/agent"
	"github.com/ShayCichocki/tenderswarm/internal/pricing"
	"github.com/ShayCichocki/tenderswarm/internal/simulator"
	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

const tenderPosterPrompt = `You are the Tender Poster agent in TenderSwarm.
Your role is to efficiently post micro-tasks as on-chain tenders.
You batch tasks for gas optimization and provide clear status updates.
You track all tender IDs and ensure proper on-chain representation.`

// tenderBatchSize groups tenders for posting.
const tenderBatchSize = 5

// TenderPoster posts micro-tasks to the tender queue in batches.
type TenderPoster struct {
	thinker    *agent.Thinker
	batchDelay time.Duration
	logger     *DebugLogger
}

// NewTenderPoster creates the tender-posting stage. batchDelay paces
// batches for presentation and should be zero in tests.
func NewTenderPoster(thinker *agent.Thinker, batchDelay time.Duration, logger *DebugLogger) *TenderPoster {
	return &TenderPoster{thinker: thinker, batchDelay: batchDelay, logger: logger}
}

// Post enqueues every task as a tender, in batches of five, assigning
// monotonic tender IDs. Each posted task transitions to posted status
// and is reported through onTaskUpdate.
func (p *TenderPoster) Post(ctx context.Context, queue *simulator.TenderQueue, tasks []*models.MicroTask, contractAddress string, emit func(models.AgentMessage), onTaskUpdate func(models.MicroTask)) error {
	emit(p.thinker.NewMessage(
		fmt.Sprintf("Preparing %d tenders for on-chain posting to %s", len(tasks), shortAddress(contractAddress)),
		models.MessageAction, nil))

	batches := batchTasks(tasks, tenderBatchSize)
	emit(p.thinker.NewMessage(
		fmt.Sprintf("Optimizing gas: %d batches of up to %d tenders each", len(batches), tenderBatchSize),
		models.MessageInfo, nil))

	for i, batch := range batches {
		emit(p.thinker.NewMessage(fmt.Sprintf("Posting batch %d/%d...", i+1, len(batches)), models.MessageAction, nil))

		for _, task := range batch {
			id, err := queue.Post(ctx, *task)
			if err != nil {
				return fmt.Errorf("post tender for task %s: %w", task.ID, err)
			}
			task.TenderID = id
			task.Status = models.TaskStatusPosted
			p.logger.Log("[tender-poster] posted tender %d for task %s", id, task.ID)
			onTaskUpdate(*task)
		}

		emit(p.thinker.NewMessage(fmt.Sprintf("Batch %d confirmed: %d tenders live", i+1, len(batch)), models.MessageSuccess, nil))

		if p.batchDelay > 0 && i < len(batches)-1 {
			select {
			case <-time.After(p.batchDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	p.thinker.AddProcessed(len(tasks))

	total := pricing.SumRewards(tasks)
	emit(p.thinker.NewMessage(
		fmt.Sprintf("All %d tenders posted! Total value: %.4f MNEE. Provider network notified.", len(tasks), total),
		models.MessageSuccess,
		map[string]any{"totalTenders": len(tasks), "totalReward": total},
	))

	return nil
}

func batchTasks(tasks []*models.MicroTask, size int) [][]*models.MicroTask {
	var batches [][]*models.MicroTask
	for i := 0; i < len(tasks); i += size {
		end := i + size
		if end > len(tasks) {
			end = len(tasks)
		}
		batches = append(batches, tasks[i:end])
	}
	return batches
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
