package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

// RefreshService pulls fresh view counts for submissions and reprices them.
type RefreshService struct {
	DB          *gorm.DB
	Counter     ViewCounter
	Concurrency int
}

func NewRefreshService(db *gorm.DB, counter ViewCounter, concurrency int) *RefreshService {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &RefreshService{DB: db, Counter: counter, Concurrency: concurrency}
}

type RefreshReport struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// RefreshSubmission stores the latest view count and earned amount.
// Negative counts from upstream are stored as zero. Earnings follow the
// row's status at write time, not the status the caller loaded.
func (s *RefreshService) RefreshSubmission(ctx context.Context, sub *models.Submission, ratePer1kViews float64) error {
	views, err := s.Counter.CountViews(ctx, sub)
	if err != nil {
		return err
	}
	views = max(views, 0)

	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Submission{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"view_count": views,
		"earned_amount": gorm.Expr("CASE WHEN status = ? THEN CAST(? AS DOUBLE PRECISION) ELSE 0 END",
			models.SubmissionApproved, CalculateSubmissionEarnings(views, ratePer1kViews)),
		"views_refreshed_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.First(sub, "id = ?", sub.ID).Error
}

// RefreshAll refreshes every non-rejected submission and then recomputes the
// total earnings of each affected creator. Individual failures are logged and
// counted, they do not stop the run.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshReport, error) {
	var subs []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("status <> ?", models.SubmissionRejected).
		Find(&subs).Error; err != nil {
		return RefreshReport{}, err
	}
	if len(subs) == 0 {
		return RefreshReport{}, nil
	}

	rates, err := s.bountyRates(ctx, subs)
	if err != nil {
		return RefreshReport{}, err
	}

	var refreshed, failed atomic.Int64
	var mu sync.Mutex
	touched := make(map[string]struct{})

	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i := range subs {
		sub := &subs[i]
		g.Go(func() error {
			if err := s.RefreshSubmission(ctx, sub, rates[sub.BountyID]); err != nil {
				failed.Add(1)
				zap.L().Warn("[REFRESH] submission refresh failed",
					zap.String("submission_id", sub.ID),
					zap.String("url", sub.VideoURL),
					zap.Error(err),
				)
				return nil
			}
			refreshed.Add(1)
			mu.Lock()
			touched[sub.UserID] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for userID := range touched {
		if err := recomputeTotalEarnings(s.DB.WithContext(ctx), userID); err != nil {
			zap.L().Error("[REFRESH] failed to recompute earnings", zap.String("user_id", userID), zap.Error(err))
		}
	}

	report := RefreshReport{Refreshed: int(refreshed.Load()), Failed: int(failed.Load())}
	zap.L().Info("[REFRESH] run complete", zap.Int("refreshed", report.Refreshed), zap.Int("failed", report.Failed))
	return report, nil
}

func (s *RefreshService) bountyRates(ctx context.Context, subs []models.Submission) (map[string]float64, error) {
	ids := make([]string, 0, len(subs))
	seen := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if _, ok := seen[sub.BountyID]; ok {
			continue
		}
		seen[sub.BountyID] = struct{}{}
		ids = append(ids, sub.BountyID)
	}

	var bounties []models.Bounty
	if err := s.DB.WithContext(ctx).Select("id", "rate_per_1k_views").Where("id IN ?", ids).Find(&bounties).Error; err != nil {
		return nil, err
	}
	rates := make(map[string]float64, len(bounties))
	for _, b := range bounties {
		rates[b.ID] = b.RatePer1kViews
	}
	return rates, nil
}

// TriggerRefresh runs a refresh synchronously for /internal callers.
func (s *RefreshService) TriggerRefresh(c *fiber.Ctx) error {
	report, err := s.RefreshAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// recomputeTotalEarnings sets total_earnings to the sum over approved submissions.
func recomputeTotalEarnings(db *gorm.DB, userID string) error {
	var total float64
	if err := db.Model(&models.Submission{}).
		Where("user_id = ? AND status = ?", userID, models.SubmissionApproved).
		Select("COALESCE(SUM(earned_amount), 0)").
		Scan(&total).Error; err != nil {
		return err
	}
	return db.Model(&models.UserProfile{}).Where("id = ?", userID).Update("total_earnings", total).Error
}
