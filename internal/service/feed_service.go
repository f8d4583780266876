package service

import (
	"context"
	"sort"

	"snipstream/internal/models"
	"snipstream/internal/observability"
	"snipstream/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedService aggregates the three content kinds into one chronological feed.
type FeedService struct {
	snippetRepo repository.SnippetRepository
	docRepo     repository.DocRepository
	bugRepo     repository.BugRepository
	followRepo  repository.FollowRepository
}

// NewFeedService creates a feed service over the content and follow stores.
func NewFeedService(
	snippetRepo repository.SnippetRepository,
	docRepo repository.DocRepository,
	bugRepo repository.BugRepository,
	followRepo repository.FollowRepository,
) *FeedService {
	return &FeedService{
		snippetRepo: snippetRepo,
		docRepo:     docRepo,
		bugRepo:     bugRepo,
		followRepo:  followRepo,
	}
}

// quotaCeil returns ⌈num·limit/10⌉, the candidate row cap for one kind.
func quotaCeil(limit, num int) int {
	return (limit*num + 9) / 10
}

// GetFeed returns one page of the viewer's personalized feed. The audience is
// the set of followed authors plus the viewer. Each kind is fetched with a
// proportional candidate quota (70% snippets, 20% docs, 10% bugs of the page
// limit) widened by the rows skipped so far, so later pages stay reachable
// while page one keeps the quota bound. The three queries run concurrently and
// any single failure fails the whole request. Results merge newest-first;
// pagination applies to the merged sequence.
//
// When the merged sequence is empty on the first page, the most recent public
// snippets are served instead so a new user never sees a blank feed. Fallback
// items carry no personalized liked/bookmarked flags.
func (s *FeedService) GetFeed(ctx context.Context, viewerID uint, page, limit int) (*models.FeedPage, error) {
	if page < 1 {
		return nil, models.NewValidationError("Page must be at least 1")
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	followingIDs, err := s.followRepo.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	audience := append(followingIDs, viewerID)

	var (
		snippets []*models.Snippet
		docs     []*models.Doc
		bugs     []*models.Bug
	)

	skip := (page - 1) * limit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snippets, err = s.snippetRepo.ListByAuthors(gctx, audience, skip+quotaCeil(limit, 7), viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.docRepo.ListByAuthors(gctx, audience, skip+quotaCeil(limit, 2), viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		bugs, err = s.bugRepo.ListByAuthors(gctx, audience, skip+quotaCeil(limit, 1), viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Concatenation order is the tie-break: stable sort keeps snippets before
	// docs before bugs when timestamps collide.
	merged := make([]models.FeedItem, 0, len(snippets)+len(docs)+len(bugs))
	for _, sn := range snippets {
		merged = append(merged, models.FeedItem{Kind: models.KindSnippet, Snippet: sn})
	}
	for _, d := range docs {
		merged = append(merged, models.FeedItem{Kind: models.KindDoc, Doc: d})
	}
	for _, b := range bugs {
		merged = append(merged, models.FeedItem{Kind: models.KindBug, Bug: b})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt().After(merged[j].CreatedAt())
	})

	if len(merged) == 0 && page == 1 {
		return s.publicFallback(ctx, limit)
	}

	total := len(merged)

	var items []models.FeedItem
	if skip < total {
		end := skip + limit
		if end > total {
			end = total
		}
		items = merged[skip:end]
	} else {
		items = []models.FeedItem{}
	}

	return &models.FeedPage{
		Items:   items,
		Total:   total,
		HasMore: total > skip+limit,
	}, nil
}

// publicFallback serves the most recent public snippets system-wide. hasMore
// uses the page-fill heuristic: a completely full page reports more, which may
// cost the client one empty page at the boundary.
func (s *FeedService) publicFallback(ctx context.Context, limit int) (*models.FeedPage, error) {
	snippets, err := s.snippetRepo.ListPublic(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	observability.FeedFallbacks.Inc()

	items := make([]models.FeedItem, 0, len(snippets))
	for _, sn := range snippets {
		items = append(items, models.FeedItem{Kind: models.KindSnippet, Snippet: sn})
	}
	return &models.FeedPage{
		Items:    items,
		Total:    len(items),
		HasMore:  len(items) == limit,
		Fallback: true,
	}, nil
}
