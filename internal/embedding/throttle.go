package embedding

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"voicerag/internal/logger"
)

// DefaultBatchInterval is the pause enforced between provider calls of a batch.
const DefaultBatchInterval = 5 * time.Second

// Throttled wraps an Embedder so that EmbedBatch issues one provider call at a
// time and waits a fixed interval between consecutive calls. Failed calls are
// not retried. Single Embed calls are passed through unthrottled.
type Throttled struct {
	inner   Embedder
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewThrottled creates a throttled embedder. A non-positive interval disables
// the pause.
func NewThrottled(inner Embedder, interval time.Duration, log *logrus.Entry) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.OrDiscard(log),
	}
}

func (t *Throttled) Name() string   { return t.inner.Name() }
func (t *Throttled) Dimension() int { return t.inner.Dimension() }

func (t *Throttled) Embed(ctx context.Context, text string) ([]float32, error) {
	return t.inner.Embed(ctx, text)
}

// EmbedBatch embeds texts sequentially, pacing provider calls.
func (t *Throttled) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	t.log.WithFields(logrus.Fields{
		"provider": t.inner.Name(),
		"texts":    len(texts),
	}).Debug("embedding batch")
	return EmbedEach(ctx, waitingEmbedder{t}, texts)
}

type waitingEmbedder struct{ t *Throttled }

func (w waitingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := w.t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return w.t.inner.Embed(ctx, text)
}
