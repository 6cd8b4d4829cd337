package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/eligibility"
	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/queue"
	"github.com/iliyamo/staybook/internal/store"
)

const unknownAuthor = "Unknown User"

// ListReviews returns the reviews of a listing with author usernames.
func (s *Service) ListReviews(ctx context.Context, listingID uint64) ([]model.ReviewDetail, error) {
	reviews, err := s.stores.Reviews.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	out := make([]model.ReviewDetail, 0, len(reviews))
	for _, rv := range reviews {
		author, ok := names[rv.UserID]
		if !ok {
			author = unknownAuthor
		}
		out = append(out, model.ReviewDetail{Review: rv, Author: author})
	}
	return out, nil
}

// SubmitReview stores a verified review once actor has completed a stay
// at the listing, and only once per listing.
func (s *Service) SubmitReview(ctx context.Context, actor *model.User, in ReviewInput) (model.Review, error) {
	if err := requireUser(actor); err != nil {
		return model.Review{}, err
	}
	in = in.normalize()
	if err := check(in); err != nil {
		s.rejectReview("invalid", in.ListingID, actor, err)
		return model.Review{}, err
	}
	if _, err := s.stores.Listings.Get(ctx, in.ListingID); err != nil {
		return model.Review{}, err
	}

	unlock, err := s.locker.Lock(ctx, lock.ReviewKey(actor.ID, in.ListingID))
	if err != nil {
		return model.Review{}, err
	}
	unlock = releaseOnce(unlock)
	defer unlock()

	reservations, err := s.stores.Reservations.List(ctx)
	if err != nil {
		return model.Review{}, fmt.Errorf("fetch reservations: %w", err)
	}
	reviews, err := s.stores.Reviews.List(ctx)
	if err != nil {
		return model.Review{}, fmt.Errorf("fetch reviews: %w", err)
	}
	today := s.today()
	if err := eligibility.Check(actor.ID, in.ListingID, reservations, reviews, today); err != nil {
		reason := "not_stayed"
		if errors.Is(err, eligibility.ErrAlreadyReviewed) {
			reason = "duplicate"
		}
		s.rejectReview(reason, in.ListingID, actor, err)
		return model.Review{}, err
	}

	rv, err := s.stores.Reviews.Create(ctx, model.Review{
		ListingID:  in.ListingID,
		UserID:     actor.ID,
		Rating:     in.Rating,
		Title:      in.Title,
		Comment:    in.Comment,
		Pros:       in.Pros,
		Cons:       in.Cons,
		Date:       today,
		IsVerified: true,
	})
	if errors.Is(err, store.ErrConflict) {
		s.rejectReview("duplicate", in.ListingID, actor, err)
		return model.Review{}, ErrAlreadyReviewed
	}
	if err != nil {
		s.log.Error("create review failed", zap.Uint64("listing_id", in.ListingID), zap.Error(err))
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}

	unlock()

	s.metrics.ReviewsSubmitted.Inc()
	s.log.Info("review submitted", zap.Uint64("review_id", rv.ID), zap.Uint64("listing_id", rv.ListingID), zap.Int("rating", rv.Rating))
	s.publish(ctx, queue.ReviewSubmittedQueue, queue.ReviewSubmittedEvent{
		ReviewID:    rv.ID,
		ListingID:   rv.ListingID,
		UserID:      actor.ID,
		Username:    actor.Username,
		Rating:      rv.Rating,
		Title:       rv.Title,
		SubmittedAt: s.stamp(),
	})
	return rv, nil
}

func (s *Service) rejectReview(reason string, listingID uint64, actor *model.User, err error) {
	s.metrics.ReviewRejections.WithLabelValues(reason).Inc()
	s.log.Info("review rejected",
		zap.String("reason", reason),
		zap.Uint64("listing_id", listingID),
		zap.Uint64("user_id", actor.ID),
		zap.Error(err),
	)
}

// RespondToReview sets the owner response of a review.  A review keeps
// its first response.
func (s *Service) RespondToReview(ctx context.Context, actor *model.User, reviewID uint64, response string) (model.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Review{}, err
	}
	in := responseInput{Response: strings.TrimSpace(response)}
	if err := check(in); err != nil {
		return model.Review{}, err
	}

	all, err := s.stores.Reviews.List(ctx)
	if err != nil {
		return model.Review{}, err
	}
	var target *model.Review
	for i := range all {
		if all[i].ID == reviewID {
			target = &all[i]
			break
		}
	}
	if target == nil {
		return model.Review{}, fmt.Errorf("review %d: %w", reviewID, store.ErrNotFound)
	}
	if target.OwnerResponse != nil && *target.OwnerResponse != "" {
		return model.Review{}, ErrAlreadyResponded
	}

	rv, err := s.stores.Reviews.SetOwnerResponse(ctx, reviewID, in.Response)
	if err != nil {
		return model.Review{}, err
	}
	s.log.Info("owner responded", zap.Uint64("review_id", reviewID), zap.Uint64("by", actor.ID))
	return rv, nil
}
