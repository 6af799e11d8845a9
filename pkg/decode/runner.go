package decode

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jbrry/turbodep/pkg/cache"
	"github.com/jbrry/turbodep/pkg/factorgraph"
	"github.com/jbrry/turbodep/pkg/parts"
	"github.com/jbrry/turbodep/pkg/prune"
)

// Instance bundles one sentence's decoding inputs. Length includes the root
// pseudo-token and Scores is aligned with the part list. GoldHeads is
// optional; when present it drives gold restoration during pruning and,
// together with a gold vector on the list, cost-augmented decoding.
type Instance struct {
	Length    int
	List      *parts.List
	Scores    []float64
	GoldHeads []int
}

// Runner decodes and prunes batches of sentences with bounded concurrency.
// It is safe for concurrent use; per-batch state lives on the stack.
type Runner struct {
	Options Options
	Decoder *Decoder
	Pruner  *prune.Pruner
	Cache   cache.Cache
	Logger  *log.Logger
}

// NewRunner validates the options, connects the configured mask cache
// backend and wires up the decoder and pruner. The context is only used for
// backend connection checks. Callers should Close the runner when done.
func NewRunner(ctx context.Context, opts Options, solver factorgraph.Solver) (*Runner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	c, err := newCache(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting mask cache: %w", err)
	}
	return &Runner{
		Options: opts,
		Decoder: NewDecoder(solver, opts.Logger),
		Pruner: &prune.Pruner{
			MaxHeads:  opts.MaxHeads,
			Threshold: opts.PruneThreshold,
			Logger:    opts.Logger,
		},
		Cache:  c,
		Logger: opts.Logger,
	}, nil
}

func newCache(ctx context.Context, opts Options) (cache.Cache, error) {
	switch opts.CacheBackend {
	case CacheMemory:
		return cache.NewMemoryCache(), nil
	case CacheFile:
		return cache.NewFileCache(opts.CacheDir)
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     opts.Redis.Addr,
			Password: opts.Redis.Password,
			DB:       opts.Redis.DB,
		})
	default:
		return cache.NewNullCache(), nil
	}
}

// Close releases the mask cache backend.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// DecodeBatch decodes every instance and projects each onto a tree,
// running up to Options.Workers sentences concurrently. Results keep the
// batch order. The first failing sentence aborts the batch.
//
// With TrainMargin set, instances whose list carries a gold vector are
// decoded over cost-augmented scores; the originals are left untouched.
func (r *Runner) DecodeBatch(ctx context.Context, batch []Instance) ([]*Result, error) {
	batchID := uuid.NewString()
	start := time.Now()
	r.Logger.Info("decoding batch",
		"batch", batchID, "sentences", len(batch), "workers", r.Options.Workers)

	results := make([]*Result, len(batch))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Options.Workers)
	for i := range batch {
		g.Go(func() error {
			inst := &batch[i]
			scores := inst.Scores
			if r.Options.TrainMargin && inst.List.Gold() != nil {
				scores = append([]float64(nil), scores...)
				if err := inst.List.ApplyMargin(scores); err != nil {
					return fmt.Errorf("sentence %d: %w", i, err)
				}
			}
			res, err := r.Decoder.Decode(ctx, inst.Length, inst.List, scores)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			tree, err := ExtractTree(inst.Length, inst.List, res, r.Options.SingleRoot)
			if err != nil {
				return fmt.Errorf("sentence %d: extracting tree: %w", i, err)
			}
			res.Tree = &tree
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.Logger.Info("decoded batch",
		"batch", batchID, "sentences", len(batch), "duration", time.Since(start))
	return results, nil
}

// PruneBatch computes a head-candidate mask per instance, with the same
// concurrency bound as decoding. Masks are cached keyed by the scores and
// pruning settings, so re-running a batch skips the matrix-tree pass.
//
// Instances with GoldHeads get their gold arcs restored into the mask; the
// pruner's recall over those arcs is logged per batch.
func (r *Runner) PruneBatch(ctx context.Context, batch []Instance) ([]prune.Mask, error) {
	batchID := uuid.NewString()
	start := time.Now()

	masks := make([]prune.Mask, len(batch))
	var restored, goldArcs atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Options.Workers)
	for i := range batch {
		g.Go(func() error {
			inst := &batch[i]
			mask, err := r.arcMask(ctx, inst)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			if inst.GoldHeads != nil {
				restored.Add(int64(mask.RestoreGold(inst.GoldHeads)))
				goldArcs.Add(int64(inst.Length - 1))
			}
			masks[i] = mask
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if total := goldArcs.Load(); total > 0 {
		recall := 1 - float64(restored.Load())/float64(total)
		r.Logger.Info("pruner recall on gold arcs",
			"batch", batchID, "recall", recall, "restored", restored.Load(), "gold_arcs", total)
	}
	r.Logger.Info("pruned batch",
		"batch", batchID, "sentences", len(batch), "duration", time.Since(start))
	return masks, nil
}

// arcMask fetches or computes the pruning mask for one instance. Cache
// failures degrade to recomputation, never to a batch error.
func (r *Runner) arcMask(ctx context.Context, inst *Instance) (prune.Mask, error) {
	key := cache.Key("arcmask",
		inst.Length, inst.Scores, r.Options.MaxHeads, r.Options.PruneThreshold)
	if data, ok, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("mask cache get failed", "error", err)
	} else if ok {
		var mask prune.Mask
		if err := json.Unmarshal(data, &mask); err == nil {
			return mask, nil
		}
		r.Logger.Warn("discarding corrupt cached mask", "key", key)
	}

	// The pruner ranks arcs by their full score, label choice included.
	_, labelScores, err := inst.List.BestLabels(inst.Scores)
	if err != nil {
		return nil, err
	}
	arcStart, numArcs := inst.List.Offset(parts.TypeArc)
	scores := make([]float64, numArcs)
	for j := 0; j < numArcs; j++ {
		scores[j] = inst.Scores[arcStart+j] + labelScores[j]
	}

	mask, entropy, err := r.Pruner.ArcMask(inst.Length, inst.List.Arcs(), scores)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("computed pruning mask",
		"length", inst.Length, "kept", mask.Count(), "entropy", entropy)

	if data, err := json.Marshal(mask); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.Options.CacheTTL()); err != nil {
			r.Logger.Warn("mask cache set failed", "error", err)
		}
	}
	return mask, nil
}
