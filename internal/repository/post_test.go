package repository

import (
	"context"
	"testing"

	"quorum/internal/models"
	"quorum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_GetByIDLoadsParent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	_, author, question := seedVoteFixtures(t, db)

	answer := &models.Post{PostType: models.PostTypeAnswer, Body: "answer", UserID: author.ID, ParentID: &question.ID}
	require.NoError(t, repo.Create(ctx, answer))

	got, err := repo.GetByID(ctx, answer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Parent)
	assert.Equal(t, question.Title, got.Parent.Title)
	assert.Equal(t, "editor", got.User.Username)
	assert.Equal(t, question.ID, models.NavigationTarget(got))

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_RefreshScore(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	votes := NewVoteRepository(db)
	ctx := context.Background()
	voter, author, post := seedVoteFixtures(t, db)

	score, err := repo.RefreshScore(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	other := models.User{Username: "moderator", Email: "mod@example.com", Password: "x"}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, votes.Create(ctx, &models.Vote{UserID: voter.ID, PostID: post.ID, RecvUserID: author.ID, VoteType: models.VoteUp}))
	require.NoError(t, votes.Create(ctx, &models.Vote{UserID: other.ID, PostID: post.ID, RecvUserID: author.ID, VoteType: models.VoteDown}))
	require.NoError(t, votes.Create(ctx, &models.Vote{UserID: author.ID, PostID: post.ID, RecvUserID: author.ID, VoteType: models.VoteDown}))

	score, err = repo.RefreshScore(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, score)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Score)
}
