package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"snipstream/internal/database"
	"snipstream/internal/models"
	"snipstream/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// feedFixture wires a feed service over a fresh in-memory database.
type feedFixture struct {
	db      *gorm.DB
	feed    *FeedService
	follows repository.FollowRepository
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	follows := repository.NewFollowRepository(db)
	return &feedFixture{
		db: db,
		feed: NewFeedService(
			repository.NewSnippetRepository(db),
			repository.NewDocRepository(db),
			repository.NewBugRepository(db),
			follows,
		),
		follows: follows,
	}
}

func (f *feedFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *feedFixture) snippet(t *testing.T, authorID uint, createdAt time.Time) *models.Snippet {
	t.Helper()
	snippet := &models.Snippet{Title: "s", Content: "c", IsPublic: true, AuthorID: authorID}
	require.NoError(t, f.db.Create(snippet).Error)
	require.NoError(t, f.db.Model(snippet).UpdateColumn("created_at", createdAt).Error)
	return snippet
}

func (f *feedFixture) doc(t *testing.T, authorID uint, createdAt time.Time) *models.Doc {
	t.Helper()
	doc := &models.Doc{Title: "d", Body: "b", IsPublic: true, AuthorID: authorID}
	require.NoError(t, f.db.Create(doc).Error)
	require.NoError(t, f.db.Model(doc).UpdateColumn("created_at", createdAt).Error)
	return doc
}

func (f *feedFixture) bug(t *testing.T, authorID uint, createdAt, expiresAt time.Time) *models.Bug {
	t.Helper()
	bug := &models.Bug{
		Title: "b", Description: "d",
		Status: models.BugStatusOpen, Severity: models.BugSeverityMedium,
		ExpiresAt: expiresAt, AuthorID: authorID,
	}
	require.NoError(t, f.db.Create(bug).Error)
	require.NoError(t, f.db.Model(bug).UpdateColumn("created_at", createdAt).Error)
	return bug
}

func TestFeedService_MergeOrdering(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "viewer")
	author := f.user(t, "author")
	require.NoError(t, f.follows.Create(ctx, viewer.ID, author.ID))

	t1 := time.Now().Add(-3 * time.Hour)
	t2 := time.Now().Add(-2 * time.Hour)
	t3 := time.Now().Add(-1 * time.Hour)
	s1 := f.snippet(t, author.ID, t1)
	d1 := f.doc(t, author.ID, t2)
	b1 := f.bug(t, author.ID, t3, time.Now().Add(24*time.Hour))

	page, err := f.feed.GetFeed(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.Equal(t, models.KindBug, page.Items[0].Kind)
	assert.Equal(t, b1.ID, page.Items[0].ItemID())
	assert.Equal(t, models.KindDoc, page.Items[1].Kind)
	assert.Equal(t, d1.ID, page.Items[1].ItemID())
	assert.Equal(t, models.KindSnippet, page.Items[2].Kind)
	assert.Equal(t, s1.ID, page.Items[2].ItemID())
	assert.False(t, page.Fallback)
}

func TestFeedService_TimestampTieBreak(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "viewer")
	author := f.user(t, "author")
	require.NoError(t, f.follows.Create(ctx, viewer.ID, author.ID))

	at := time.Now().Add(-time.Hour).Truncate(time.Second)
	f.bug(t, author.ID, at, time.Now().Add(24*time.Hour))
	f.doc(t, author.ID, at)
	f.snippet(t, author.ID, at)

	page, err := f.feed.GetFeed(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	// Equal timestamps sort snippets first, then docs, then bugs.
	assert.Equal(t, models.KindSnippet, page.Items[0].Kind)
	assert.Equal(t, models.KindDoc, page.Items[1].Kind)
	assert.Equal(t, models.KindBug, page.Items[2].Kind)
}

func TestFeedService_OwnContentIncluded(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "loner")
	f.snippet(t, viewer.ID, time.Now().Add(-time.Hour))

	page, err := f.feed.GetFeed(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, viewer.ID, page.Items[0].AuthorID())
	assert.False(t, page.Fallback)
}

func TestFeedService_EmptyFeedFallback(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	newcomer := f.user(t, "newcomer")
	stranger := f.user(t, "stranger")
	f.snippet(t, stranger.ID, time.Now().Add(-time.Hour))

	page, err := f.feed.GetFeed(ctx, newcomer.ID, 1, 10)
	require.NoError(t, err)

	require.NotEmpty(t, page.Items)
	assert.True(t, page.Fallback)
	assert.Equal(t, models.KindSnippet, page.Items[0].Kind)
	// Fallback items carry no personalized flags.
	assert.False(t, page.Items[0].Snippet.Liked)
	assert.False(t, page.Items[0].Snippet.Bookmarked)
}

func TestFeedService_FallbackFirstPageOnly(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	newcomer := f.user(t, "newcomer")
	stranger := f.user(t, "stranger")
	f.snippet(t, stranger.ID, time.Now().Add(-time.Hour))

	page, err := f.feed.GetFeed(ctx, newcomer.ID, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Fallback)
}

func TestFeedService_FallbackHasMoreHeuristic(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	newcomer := f.user(t, "newcomer")
	stranger := f.user(t, "stranger")
	for i := 0; i < 5; i++ {
		f.snippet(t, stranger.ID, time.Now().Add(-time.Duration(i)*time.Minute))
	}

	full, err := f.feed.GetFeed(ctx, newcomer.ID, 1, 5)
	require.NoError(t, err)
	assert.True(t, full.HasMore, "a completely full fallback page reports more")

	partial, err := f.feed.GetFeed(ctx, newcomer.ID, 1, 10)
	require.NoError(t, err)
	assert.False(t, partial.HasMore)
}

func TestFeedService_ExpiredBugExcluded(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "viewer")
	author := f.user(t, "author")
	require.NoError(t, f.follows.Create(ctx, viewer.ID, author.ID))

	f.snippet(t, author.ID, time.Now().Add(-2*time.Hour))
	f.bug(t, author.ID, time.Now().Add(-time.Hour), time.Now().Add(-time.Minute))

	page, err := f.feed.GetFeed(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.KindSnippet, page.Items[0].Kind)
}

func TestFeedService_InvalidPage(t *testing.T) {
	f := newFeedFixture(t)

	_, err := f.feed.GetFeed(context.Background(), 1, 0, 10)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// quotaSnippetRepo records the candidate limit the feed requests.
type quotaSnippetRepo struct {
	repository.SnippetRepository
	limit int
}

func (r *quotaSnippetRepo) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Snippet, error) {
	r.limit = limit
	return nil, nil
}

func (r *quotaSnippetRepo) ListPublic(ctx context.Context, limit, offset int) ([]*models.Snippet, error) {
	return nil, nil
}

type quotaDocRepo struct {
	repository.DocRepository
	limit int
}

func (r *quotaDocRepo) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Doc, error) {
	r.limit = limit
	return nil, nil
}

type quotaBugRepo struct {
	repository.BugRepository
	limit int
	err   error
}

func (r *quotaBugRepo) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Bug, error) {
	r.limit = limit
	return nil, r.err
}

type staticFollowRepo struct {
	repository.FollowRepository
	following []uint
}

func (r *staticFollowRepo) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.following, nil
}

func TestFeedService_ProportionalQuota(t *testing.T) {
	snippets := &quotaSnippetRepo{}
	docs := &quotaDocRepo{}
	bugs := &quotaBugRepo{}
	feed := NewFeedService(snippets, docs, bugs, &staticFollowRepo{following: []uint{2}})

	_, err := feed.GetFeed(context.Background(), 1, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 7, snippets.limit)
	assert.Equal(t, 2, docs.limit)
	assert.Equal(t, 1, bugs.limit)
}

func TestFeedService_LaterPagesServable(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "viewer")
	author := f.user(t, "author")
	require.NoError(t, f.follows.Create(ctx, viewer.ID, author.ID))

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 8; i++ {
		f.snippet(t, author.ID, base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 3; i++ {
		f.doc(t, author.ID, base.Add(time.Duration(8+i)*time.Minute))
	}
	f.bug(t, author.ID, base.Add(11*time.Minute), time.Now().Add(24*time.Hour))

	first, err := f.feed.GetFeed(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, first.Items, 10)
	assert.False(t, first.Fallback)

	// The overflow lands on page two instead of an empty page.
	second, err := f.feed.GetFeed(ctx, viewer.ID, 2, 10)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.False(t, second.Fallback)

	// No page-one item repeats on page two. IDs are per-kind, so key on both.
	type ref struct {
		kind models.ContentKind
		id   uint
	}
	seen := make(map[ref]bool)
	for _, item := range first.Items {
		seen[ref{item.Kind, item.ItemID()}] = true
	}
	for _, item := range second.Items {
		assert.False(t, seen[ref{item.Kind, item.ItemID()}])
	}
}

func TestFeedService_QuotaWidensWithSkip(t *testing.T) {
	snippets := &quotaSnippetRepo{}
	docs := &quotaDocRepo{}
	bugs := &quotaBugRepo{}
	feed := NewFeedService(snippets, docs, bugs, &staticFollowRepo{following: []uint{2}})

	_, err := feed.GetFeed(context.Background(), 1, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 17, snippets.limit)
	assert.Equal(t, 12, docs.limit)
	assert.Equal(t, 11, bugs.limit)
}

func TestFeedService_SubqueryFailureFailsWhole(t *testing.T) {
	snippets := &quotaSnippetRepo{}
	docs := &quotaDocRepo{}
	bugs := &quotaBugRepo{err: errors.New("store unavailable")}
	feed := NewFeedService(snippets, docs, bugs, &staticFollowRepo{})

	_, err := feed.GetFeed(context.Background(), 1, 1, 10)
	require.Error(t, err)
}
