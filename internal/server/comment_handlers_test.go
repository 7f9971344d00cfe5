package server

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"quorum/internal/models"
	"quorum/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentForm(postID uint, content string) url.Values {
	return url.Values{
		"post_id": {strconv.FormatUint(uint64(postID), 10)},
		"content": {content},
	}
}

func createComment(t *testing.T, env *testEnv, postID uint, content string, author *models.User) *models.Comment {
	t.Helper()
	comment := &models.Comment{Content: content, UserID: author.ID, PostID: postID}
	require.NoError(t, env.db.Omit("User", "Post").Create(comment).Error)
	return comment
}

func commentPath(id uint, suffix string) string {
	return "/api/comments/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestCreateComment_RedirectsToQuestion(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doForm(t, http.MethodPost, "/api/comments/",
		commentForm(env.fx.QuestionOne.ID, "Could you clarify?"), env.fx.Editor)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, models.QuestionPath(env.fx.QuestionOne.ID), resp.Header.Get("Location"))
	_, hasFlash := flashFrom(resp)
	assert.False(t, hasFlash)

	var stored []models.Comment
	require.NoError(t, env.db.Where("post_id = ?", env.fx.QuestionOne.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "Could you clarify?", stored[0].Content)
	assert.Equal(t, env.fx.Editor.ID, stored[0].UserID)
}

func TestCreateComment_OnAnswerRedirectsToParent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/comments/", map[string]any{
		"post_id": env.fx.AnswerOne.ID,
		"content": "Nice answer",
	}, env.fx.Editor)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, models.QuestionPath(env.fx.QuestionOne.ID), resp.Header.Get("Location"))
}

func TestCreateComment_NotifiesAuthorAndMention(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doForm(t, http.MethodPost, "/api/comments/",
		commentForm(env.fx.AnswerOne.ID, "@editor see this"), env.fx.Moderator)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var forAuthor, forEditor int64
	require.NoError(t, env.db.Model(&models.Notification{}).Where("user_id = ?", env.fx.StandardUser.ID).Count(&forAuthor).Error)
	require.NoError(t, env.db.Model(&models.Notification{}).Where("user_id = ?", env.fx.Editor.ID).Count(&forEditor).Error)
	assert.EqualValues(t, 1, forAuthor)
	assert.EqualValues(t, 1, forEditor)

	var mention models.Notification
	require.NoError(t, env.db.Where("user_id = ?", env.fx.Editor.ID).First(&mention).Error)
	assert.Equal(t, service.MsgMentioned, mention.Content)
	assert.Equal(t, models.QuestionPath(env.fx.QuestionOne.ID), mention.Link)
}

func TestCreateComment_Failures(t *testing.T) {
	tests := []struct {
		name       string
		postID     func(e *testEnv) uint
		content    string
		wantStatus int
		wantFlash  string
	}{
		{
			name:       "blank content leaves a flash",
			postID:     func(e *testEnv) uint { return e.fx.QuestionOne.ID },
			content:    "   ",
			wantStatus: http.StatusSeeOther,
			wantFlash:  "Content is required",
		},
		{
			name:       "markup only leaves a flash",
			postID:     func(e *testEnv) uint { return e.fx.QuestionOne.ID },
			content:    "<script>alert(1)</script>",
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "unknown post",
			postID:     func(e *testEnv) uint { return 9999 },
			content:    "hello",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			resp := env.doForm(t, http.MethodPost, "/api/comments/",
				commentForm(tt.postID(env), tt.content), env.fx.Editor)

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, models.QuestionPath(env.fx.QuestionOne.ID), resp.Header.Get("Location"))
				flash, ok := flashFrom(resp)
				require.True(t, ok)
				if tt.wantFlash != "" {
					assert.Equal(t, tt.wantFlash, flash)
				} else {
					assert.NotEmpty(t, flash)
				}
			}

			var count int64
			require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestCreateComment_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doForm(t, http.MethodPost, "/api/comments/",
		commentForm(env.fx.QuestionOne.ID, "hello"), nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, "Authorization required", body.Error)
}

func TestUpdateComment(t *testing.T) {
	t.Run("author edits", func(t *testing.T) {
		env := newTestEnv(t)
		comment := createComment(t, env, env.fx.AnswerOne.ID, "first draft", env.fx.StandardUser)

		resp := env.doForm(t, http.MethodPatch, commentPath(comment.ID, ""),
			url.Values{"content": {"second draft"}}, env.fx.StandardUser)

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, models.QuestionPath(env.fx.QuestionOne.ID), resp.Header.Get("Location"))

		var stored models.Comment
		require.NoError(t, env.db.First(&stored, comment.ID).Error)
		assert.Equal(t, "second draft", stored.Content)
	})

	t.Run("moderator edits", func(t *testing.T) {
		env := newTestEnv(t)
		comment := createComment(t, env, env.fx.QuestionOne.ID, "first draft", env.fx.StandardUser)

		resp := env.doForm(t, http.MethodPatch, commentPath(comment.ID, ""),
			url.Values{"content": {"tidied"}}, env.fx.Moderator)

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("stranger is refused with 401", func(t *testing.T) {
		env := newTestEnv(t)
		comment := createComment(t, env, env.fx.QuestionOne.ID, "first draft", env.fx.StandardUser)

		resp := env.doForm(t, http.MethodPatch, commentPath(comment.ID, ""),
			url.Values{"content": {"vandalised"}}, env.fx.Editor)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decode[models.ErrorResponse](t, resp)
		assert.Equal(t, service.MsgCommentNotAllowed, body.Error)
		assert.Equal(t, models.CodeForbidden, body.Code)

		var stored models.Comment
		require.NoError(t, env.db.First(&stored, comment.ID).Error)
		assert.Equal(t, "first draft", stored.Content)
	})

	t.Run("blank content leaves a flash", func(t *testing.T) {
		env := newTestEnv(t)
		comment := createComment(t, env, env.fx.QuestionOne.ID, "first draft", env.fx.StandardUser)

		resp := env.doForm(t, http.MethodPatch, commentPath(comment.ID, ""),
			url.Values{"content": {""}}, env.fx.StandardUser)

		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		_, ok := flashFrom(resp)
		assert.True(t, ok)
	})

	t.Run("unknown comment", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.doForm(t, http.MethodPatch, commentPath(9999, ""),
			url.Values{"content": {"x"}}, env.fx.StandardUser)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.doForm(t, http.MethodPatch, "/api/comments/abc",
			url.Values{"content": {"x"}}, env.fx.StandardUser)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteAndUndeleteComment(t *testing.T) {
	env := newTestEnv(t)
	comment := createComment(t, env, env.fx.QuestionOne.ID, "regrettable", env.fx.Editor)
	listPath := "/api/posts/" + strconv.Itoa(int(env.fx.QuestionOne.ID)) + "/comments"

	resp := env.doJSON(t, http.MethodDelete, commentPath(comment.ID, ""), nil, env.fx.StandardUser)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.doJSON(t, http.MethodDelete, commentPath(comment.ID, ""), nil, env.fx.Editor)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var stored models.Comment
	require.NoError(t, env.db.First(&stored, comment.ID).Error)
	assert.True(t, stored.Deleted)

	public := decode[[]models.Comment](t, env.doJSON(t, http.MethodGet, listPath, nil, nil))
	assert.Empty(t, public)

	staff := decode[[]models.Comment](t, env.doJSON(t, http.MethodGet, listPath, nil, env.fx.Moderator))
	require.Len(t, staff, 1)
	assert.True(t, staff[0].Deleted)

	resp = env.doJSON(t, http.MethodPost, commentPath(comment.ID, "/undelete"), nil, env.fx.Moderator)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	public = decode[[]models.Comment](t, env.doJSON(t, http.MethodGet, listPath, nil, env.fx.StandardUser))
	require.Len(t, public, 1)
	assert.False(t, public[0].Deleted)
	assert.Equal(t, "regrettable", public[0].Content)
}

func TestGetComments_UnknownPost(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodGet, "/api/posts/9999/comments", nil, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
