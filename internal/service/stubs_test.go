package service

import (
	"context"
	"sync"

	"quorum/internal/models"
)

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	getByIDFn   func(context.Context, uint) (*models.Vote, error)
	findFn      func(context.Context, uint, uint) (*models.Vote, error)
	createFn    func(context.Context, *models.Vote) error
	updateTypFn func(context.Context, *models.Vote) error
	deleteFn    func(context.Context, uint) error
}

func (s *voteRepoStub) GetByID(ctx context.Context, id uint) (*models.Vote, error) {
	return s.getByIDFn(ctx, id)
}
func (s *voteRepoStub) FindByVoterAndPost(ctx context.Context, userID, postID uint) (*models.Vote, error) {
	return s.findFn(ctx, userID, postID)
}
func (s *voteRepoStub) Create(ctx context.Context, vote *models.Vote) error {
	return s.createFn(ctx, vote)
}
func (s *voteRepoStub) UpdateType(ctx context.Context, vote *models.Vote) error {
	return s.updateTypFn(ctx, vote)
}
func (s *voteRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Vote, error) {
			return nil, models.NewNotFoundError("Vote", id)
		},
		findFn:      func(_ context.Context, _, _ uint) (*models.Vote, error) { return nil, nil },
		createFn:    func(_ context.Context, _ *models.Vote) error { return nil },
		updateTypFn: func(_ context.Context, _ *models.Vote) error { return nil },
		deleteFn:    func(_ context.Context, _ uint) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	refreshScoreFn func(context.Context, uint) (int, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) RefreshScore(ctx context.Context, postID uint) (int, error) {
	return s.refreshScoreFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, PostType: models.PostTypeQuestion, Title: "Question one", UserID: 99}, nil
		},
		refreshScoreFn: func(_ context.Context, _ uint) (int, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository backed by a fixed set of users.
type userRepoStub struct {
	users map[uint]*models.User
	err   error
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetFresh(ctx context.Context, id uint) (*models.User, error) {
	return s.GetByID(ctx, id)
}
func (s *userRepoStub) UpdateRoles(_ context.Context, id uint, isModerator, isAdmin bool) error {
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.IsModerator, u.IsAdmin = isModerator, isAdmin
	return nil
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, s.err
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(s.users) + 1)
	s.users[user.ID] = user
	return nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, bool) ([]*models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, includeDeleted bool) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, includeDeleted)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByPostFn: func(_ context.Context, _ uint, _ bool) ([]*models.Comment, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Comment) error { return nil },
	}
}

type sentNotification struct {
	UserID  uint
	Content string
	Link    string
}

// notifierRecorder records every Notify call.
type notifierRecorder struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *notifierRecorder) Notify(_ context.Context, userID uint, content, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Content: content, Link: link})
	return n.err
}

func (n *notifierRecorder) Sent() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

// staticFlags answers every lookup with the same value.
type staticFlags bool

func (f staticFlags) Enabled(string, uint) bool { return bool(f) }
