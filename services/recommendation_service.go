package services

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

const historyLimit = 20

type RecommendationService struct {
	DB          *gorm.DB
	Bounties    *BountyService
	Recommender *Recommender
}

func NewRecommendationService(db *gorm.DB, bounties *BountyService, recommender *Recommender) *RecommendationService {
	return &RecommendationService{DB: db, Bounties: bounties, Recommender: recommender}
}

// GetRecommendations ranks open bounties the caller has not entered yet.
func (s *RecommendationService) GetRecommendations(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var history []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&history).Error; err != nil {
		return respondError(c, err)
	}

	var entered []string
	if err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).
		Distinct().Pluck("bounty_id", &entered).Error; err != nil {
		return respondError(c, err)
	}
	skip := make(map[string]struct{}, len(entered))
	for _, id := range entered {
		skip[id] = struct{}{}
	}

	open, err := s.Bounties.OpenBountyViews(ctx)
	if err != nil {
		return respondError(c, err)
	}
	candidates := make([]BountyView, 0, len(open))
	for _, v := range open {
		if _, ok := skip[v.ID]; !ok {
			candidates = append(candidates, v)
		}
	}

	recs := s.Recommender.Rank(ctx, history, candidates)
	if limit := c.QueryInt("limit", 10); limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return c.JSON(recs)
}
