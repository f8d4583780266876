package repository

import (
	"context"
	"testing"
	"time"

	"snipstream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetRepository_ListByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	ctx := context.Background()

	followed := createTestUser(t, db)
	stranger := createTestUser(t, db)

	older := createTestSnippet(t, db, followed.ID, time.Now().Add(-2*time.Hour))
	newer := createTestSnippet(t, db, followed.ID, time.Now().Add(-time.Hour))
	createTestSnippet(t, db, stranger.ID, time.Now())

	snippets, err := repo.ListByAuthors(ctx, []uint{followed.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, newer.ID, snippets[0].ID)
	assert.Equal(t, older.ID, snippets[1].ID)
}

func TestSnippetRepository_ListByAuthors_EmptySet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	createTestSnippet(t, db, author.ID, time.Time{})

	snippets, err := repo.ListByAuthors(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSnippetRepository_ListPublic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	public := createTestSnippet(t, db, author.ID, time.Time{})
	private := createTestSnippet(t, db, author.ID, time.Time{})
	require.NoError(t, db.Model(private).UpdateColumn("is_public", false).Error)

	snippets, err := repo.ListPublic(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, public.ID, snippets[0].ID)
}

func TestSnippetRepository_ViewerDetails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	likeRepo := NewLikeRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	viewer := createTestUser(t, db)
	snippet := createTestSnippet(t, db, author.ID, time.Time{})

	_, err := likeRepo.Toggle(ctx, viewer.ID, models.KindSnippet, snippet.ID)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, snippet.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	asAuthor, err := repo.GetByID(ctx, snippet.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, asAuthor.Liked)
}

func TestSnippetRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	match := &models.Snippet{
		Title:    "Binary search in Go",
		Content:  "func search() {}",
		Language: "go",
		Tags:     "algorithms,search",
		IsPublic: true,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(match).Error)
	createTestSnippet(t, db, author.ID, time.Time{})

	results, err := repo.Search(ctx, "binary", nil, 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].ID)

	byTag, err := repo.Search(ctx, "", []string{"algorithms"}, 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, match.ID, byTag[0].ID)
}

func TestSnippetRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnippetRepository(db)
	likeRepo := NewLikeRepository(db)
	commentRepo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	viewer := createTestUser(t, db)
	snippet := createTestSnippet(t, db, author.ID, time.Time{})
	snippetID := snippet.ID

	_, err := likeRepo.Toggle(ctx, viewer.ID, models.KindSnippet, snippet.ID)
	require.NoError(t, err)
	require.NoError(t, commentRepo.Create(ctx, &models.Comment{
		Content:   "nice",
		AuthorID:  viewer.ID,
		SnippetID: &snippetID,
	}))

	require.NoError(t, repo.Delete(ctx, snippet.ID))

	_, err = repo.GetByID(ctx, snippet.ID, 0)
	require.Error(t, err)

	var likeCount, commentCount int64
	require.NoError(t, db.Model(&models.Like{}).Where("snippet_id = ?", snippetID).Count(&likeCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("snippet_id = ?", snippetID).Count(&commentCount).Error)
	assert.Equal(t, int64(0), likeCount)
	assert.Equal(t, int64(0), commentCount)
}
