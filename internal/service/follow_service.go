package service

import (
	"context"

	"snipstream/internal/models"
	"snipstream/internal/repository"
)

// FollowService manages the follow graph.
type FollowService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

// NewFollowService creates a follow service.
func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *FollowService {
	return &FollowService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// Follow creates the edge follower → following and notifies the followee.
// Following an already-followed user is a no-op; self-follows are rejected.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("Cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return err
	}

	existed, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if err := s.followRepo.Create(ctx, followerID, followingID); err != nil {
		return err
	}

	// Only a fresh edge notifies, a repeated follow stays silent.
	if !existed && s.notifications != nil {
		s.notifications.notify(ctx, CreateNotificationInput{
			RecipientID: followingID,
			SenderID:    followerID,
			Type:        models.NotificationTypeFollow,
		})
	}
	return nil
}

// Unfollow removes the edge; removing a missing edge is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("Cannot unfollow yourself")
	}
	return s.followRepo.Delete(ctx, followerID, followingID)
}

// IsFollowing reports whether the edge exists.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}

// ListFollowers returns one page of a user's followers.
func (s *FollowService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	limit, offset = clampPagination(limit, offset)
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

// ListFollowing returns one page of the users someone follows.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	limit, offset = clampPagination(limit, offset)
	return s.followRepo.ListFollowing(ctx, userID, limit, offset)
}
