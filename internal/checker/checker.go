// Package checker runs the fetch-classify-cache pipeline behind the
// dashboard's read surface.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/sleighlabs/nicelist/internal/ai"
	"github.com/sleighlabs/nicelist/internal/cache"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/internal/store"
	"github.com/sleighlabs/nicelist/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// SocialAPI is the slice of the social client the pipeline needs.
type SocialAPI interface {
	FetchProfile(ctx context.Context, handle string) (*social.Profile, error)
	FetchPosts(ctx context.Context, handle string) ([]social.Post, error)
}

// Classifier delegates sentiment classification to the hosted model.
type Classifier interface {
	Classify(ctx context.Context, handle string, posts []social.Post) (*ai.Classification, error)
}

// Verdict is the cached outcome of one fetch-classify run. Both referenced
// post ids are guaranteed to resolve against Posts; compute fails before
// caching otherwise.
type Verdict struct {
	Profile        social.Profile    `json:"profile"`
	Posts          []social.Post     `json:"posts"`
	Classification ai.Classification `json:"classification"`
}

// PostByID returns the post with the given id, or nil if absent.
func (v *Verdict) PostByID(id string) *social.Post {
	for i := range v.Posts {
		if v.Posts[i].ID == id {
			return &v.Posts[i]
		}
	}

	return nil
}

// Result combines the cached verdict with the durable status, which is read
// fresh on every request. The two scores are never reconciled; only manual
// swipes move the stored one.
type Result struct {
	Verdict
	CurrentStatus string
	CurrentScore  float64
}

// Checker orchestrates the pipeline: normalize, status lookup, cache
// get-or-compute, merge. It performs no retries; failures surface to the
// caller typed and uncached.
type Checker struct {
	social     SocialAPI
	classifier Classifier
	status     *store.Service
	verdicts   cache.Cache[*Verdict]
	ttl        time.Duration
	logger     *zap.Logger
}

// New creates a Checker. The cache is shared process-wide and injected so the
// orchestrator stays testable in isolation.
func New(
	socialAPI SocialAPI, classifier Classifier, status *store.Service,
	verdicts cache.Cache[*Verdict], ttl time.Duration, logger *zap.Logger,
) *Checker {
	return &Checker{
		social:     socialAPI,
		classifier: classifier,
		status:     status,
		verdicts:   verdicts,
		ttl:        ttl,
		logger:     logger.Named("checker"),
	}
}

// Check classifies the handle, serving the verdict from cache within the TTL.
// The durable status is looked up on every call, cache hit or not.
func (c *Checker) Check(ctx context.Context, handle string) (*Result, error) {
	handle = utils.NormalizeHandle(handle)
	if handle == "" {
		return nil, ErrInvalidHandle
	}

	currentStatus, currentScore := c.status.Current(ctx, handle)

	verdict, err := c.verdicts.GetOrCompute(ctx, handle, c.ttl, func(ctx context.Context) (*Verdict, error) {
		return c.compute(ctx, handle)
	})
	if err != nil {
		c.logger.Warn("Check failed",
			zap.String("handle", handle),
			zap.Error(err))

		return nil, err
	}

	return &Result{
		Verdict:       *verdict,
		CurrentStatus: currentStatus,
		CurrentScore:  currentScore,
	}, nil
}

// compute runs the full upstream sequence for a cache miss. Profile and post
// fetches are independent and run in parallel; classification waits for both.
func (c *Checker) compute(ctx context.Context, handle string) (*Verdict, error) {
	var (
		profile *social.Profile
		posts   []social.Post
	)

	p := pool.New().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		var err error
		profile, err = c.social.FetchProfile(ctx, handle)

		return err
	})

	p.Go(func(ctx context.Context) error {
		var err error
		posts, err = c.social.FetchPosts(ctx, handle)

		return err
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	classification, err := c.classifier.Classify(ctx, handle, posts)
	if err != nil {
		return nil, err
	}

	verdict := &Verdict{
		Profile:        *profile,
		Posts:          posts,
		Classification: *classification,
	}

	// Both picks must exist in the fetched set or the whole run fails
	for _, id := range []string{classification.MostPositivePostID, classification.MostNegativePostID} {
		if verdict.PostByID(id) == nil {
			return nil, fmt.Errorf("%w: %s", ErrClassificationMismatch, id)
		}
	}

	c.logger.Info("Computed fresh verdict",
		zap.String("handle", handle),
		zap.Int("posts", len(posts)),
		zap.String("rating", classification.Rating),
		zap.Float64("score", classification.Score))

	return verdict, nil
}
