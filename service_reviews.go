package yamdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReviewInput creates a review.
type ReviewInput struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// ReviewPatch is a partial review update.
type ReviewPatch struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// CommentInput creates or updates a comment.
type CommentInput struct {
	Text string `json:"text"`
}

// ReviewService manages reviews under titles and comments under reviews.
type ReviewService struct {
	repo RepositoryManager
	now  func() time.Time
}

// NewReviewService returns a review service over repo.
func NewReviewService(repo RepositoryManager) *ReviewService {
	return &ReviewService{repo: repo, now: time.Now}
}

// WithClock injects the clock used for pub_date.
func (s *ReviewService) WithClock(clock func() time.Time) *ReviewService {
	if clock != nil {
		s.now = clock
	}
	return s
}

func (s *ReviewService) ListReviews(ctx context.Context, titleID uuid.UUID, page Page) ([]*Review, int, error) {
	if _, err := s.repo.Titles().GetByID(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.repo.Reviews().ListByTitle(ctx, titleID, page)
}

func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*Review, error) {
	return s.repo.Reviews().GetForTitle(ctx, titleID, reviewID)
}

// CreateReview adds the actor's review. An author may review a title once.
func (s *ReviewService) CreateReview(ctx context.Context, actor *Actor, titleID uuid.UUID, in ReviewInput) (*Review, error) {
	if err := Authorize(actor, Resource{Kind: ResourceReview}, ActionCreate); err != nil {
		return nil, err
	}

	if err := ValidateReview(in.Text, in.Score); err != nil {
		return nil, err
	}

	if _, err := s.repo.Titles().GetByID(ctx, titleID); err != nil {
		return nil, err
	}

	record := &Review{
		ID:       uuid.New(),
		AuthorID: actor.ID,
		TitleID:  titleID,
		Text:     in.Text,
		Score:    in.Score,
		PubDate:  stampNow(s.now),
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.repo.Reviews().ExistsForAuthorTx(ctx, tx, actor.ID, titleID)
		if err != nil {
			return err
		}
		if exists {
			return duplicateReviewError()
		}
		_, err = s.repo.Reviews().CreateTx(ctx, tx, record)
		return err
	})
	if err != nil {
		return nil, internalError(err, "failed to create review")
	}

	return s.repo.Reviews().GetForTitle(ctx, titleID, record.ID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor *Actor, titleID, reviewID uuid.UUID, patch ReviewPatch) (*Review, error) {
	record, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, Resource{Kind: ResourceReview, AuthorID: record.AuthorID}, ActionUpdate); err != nil {
		return nil, err
	}

	columns := []string{}
	if patch.Text != nil {
		record.Text = *patch.Text
		columns = append(columns, "text")
	}
	if patch.Score != nil {
		record.Score = *patch.Score
		columns = append(columns, "score")
	}

	if err := ValidateReview(record.Text, record.Score); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return record, nil
	}

	if _, err := s.repo.Reviews().Update(ctx, record, columns...); err != nil {
		return nil, err
	}

	return record, nil
}

// DeleteReview removes the review and its comments.
func (s *ReviewService) DeleteReview(ctx context.Context, actor *Actor, titleID, reviewID uuid.UUID) error {
	record, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := Authorize(actor, Resource{Kind: ResourceReview, AuthorID: record.AuthorID}, ActionDelete); err != nil {
		return err
	}

	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Reviews().DeleteTx(ctx, tx, record.ID)
	})
}

func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID uuid.UUID, page Page) ([]*Comment, int, error) {
	if _, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.repo.Comments().ListByReview(ctx, reviewID, page)
}

func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*Comment, error) {
	if _, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.repo.Comments().GetForReview(ctx, reviewID, commentID)
}

func (s *ReviewService) CreateComment(ctx context.Context, actor *Actor, titleID, reviewID uuid.UUID, in CommentInput) (*Comment, error) {
	if err := Authorize(actor, Resource{Kind: ResourceComment}, ActionCreate); err != nil {
		return nil, err
	}

	if err := ValidateComment(in.Text); err != nil {
		return nil, err
	}

	if _, err := s.repo.Reviews().GetForTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	record := &Comment{
		ID:       uuid.New(),
		AuthorID: actor.ID,
		ReviewID: reviewID,
		Text:     in.Text,
		PubDate:  stampNow(s.now),
	}

	if _, err := s.repo.Comments().Create(ctx, record); err != nil {
		return nil, err
	}

	return s.repo.Comments().GetForReview(ctx, reviewID, record.ID)
}

func (s *ReviewService) UpdateComment(ctx context.Context, actor *Actor, titleID, reviewID, commentID uuid.UUID, in CommentInput) (*Comment, error) {
	record, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(actor, Resource{Kind: ResourceComment, AuthorID: record.AuthorID}, ActionUpdate); err != nil {
		return nil, err
	}

	if err := ValidateComment(in.Text); err != nil {
		return nil, err
	}

	record.Text = in.Text
	if _, err := s.repo.Comments().Update(ctx, record, "text"); err != nil {
		return nil, err
	}

	return record, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, actor *Actor, titleID, reviewID, commentID uuid.UUID) error {
	record, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := Authorize(actor, Resource{Kind: ResourceComment, AuthorID: record.AuthorID}, ActionDelete); err != nil {
		return err
	}

	return s.repo.Comments().Delete(ctx, record.ID)
}
