package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/utils"
)

// LogoStore persists an uploaded logo and returns its public URL.
type LogoStore interface {
	Put(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

type BountyService struct {
	DB       *gorm.DB
	Storage  LogoStore
	Currency string
}

func NewBountyService(db *gorm.DB, storage LogoStore, currency string) *BountyService {
	return &BountyService{DB: db, Storage: storage, Currency: currency}
}

// BountyView is a bounty with its derived progress, as returned by the API.
type BountyView struct {
	models.Bounty
	Progress        BountyProgress `json:"progress"`
	SubmissionCount int            `json:"submission_count"`
	Display         BountyDisplay  `json:"display"`
}

// BountyDisplay carries preformatted money strings for the UI.
type BountyDisplay struct {
	TotalBounty    string `json:"total_bounty"`
	RatePer1kViews string `json:"rate_per_1k_views"`
	ClaimedBounty  string `json:"claimed_bounty"`
}

type bountyInput struct {
	Name           string  `json:"name" form:"name"`
	Description    string  `json:"description" form:"description"`
	Instructions   string  `json:"instructions" form:"instructions"`
	CompanyName    string  `json:"company_name" form:"company_name"`
	TotalBounty    float64 `json:"total_bounty" form:"total_bounty"`
	RatePer1kViews float64 `json:"rate_per_1k_views" form:"rate_per_1k_views"`
}

type bountyUpdateInput struct {
	Name           *string  `json:"name" form:"name"`
	Description    *string  `json:"description" form:"description"`
	Instructions   *string  `json:"instructions" form:"instructions"`
	CompanyName    *string  `json:"company_name" form:"company_name"`
	TotalBounty    *float64 `json:"total_bounty" form:"total_bounty"`
	RatePer1kViews *float64 `json:"rate_per_1k_views" form:"rate_per_1k_views"`
}

// buildViews attaches progress to each bounty using one submissions query.
func (s *BountyService) buildViews(ctx context.Context, bounties []models.Bounty) ([]BountyView, error) {
	if len(bounties) == 0 {
		return []BountyView{}, nil
	}
	ids := make([]string, len(bounties))
	for i, b := range bounties {
		ids[i] = b.ID
	}

	var subs []models.Submission
	if err := s.DB.WithContext(ctx).
		Select("id", "bounty_id", "status", "view_count").
		Where("bounty_id IN ?", ids).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	byBounty := make(map[string][]models.Submission, len(bounties))
	for _, sub := range subs {
		byBounty[sub.BountyID] = append(byBounty[sub.BountyID], sub)
	}

	views := make([]BountyView, len(bounties))
	for i := range bounties {
		views[i] = s.view(bounties[i], byBounty[bounties[i].ID])
	}
	return views, nil
}

func (s *BountyService) view(b models.Bounty, subs []models.Submission) BountyView {
	progress := ProgressFor(&b, subs)
	return BountyView{
		Bounty:          b,
		Progress:        progress,
		SubmissionCount: len(subs),
		Display: BountyDisplay{
			TotalBounty:    utils.FormatMoney(b.TotalBounty, s.Currency),
			RatePer1kViews: utils.FormatMoney(b.RatePer1kViews, s.Currency),
			ClaimedBounty:  utils.FormatMoney(progress.CappedUsedBudget, s.Currency),
		},
	}
}

// OpenBountyViews lists bounties that still have budget left, newest first.
func (s *BountyService) OpenBountyViews(ctx context.Context) ([]BountyView, error) {
	views, err := s.listViews(ctx, s.DB.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	open := views[:0]
	for _, v := range views {
		if !v.Progress.IsCompleted {
			open = append(open, v)
		}
	}
	return open, nil
}

func (s *BountyService) listViews(ctx context.Context, query *gorm.DB) ([]BountyView, error) {
	var bounties []models.Bounty
	if err := query.Order("created_at DESC").Find(&bounties).Error; err != nil {
		return nil, err
	}
	return s.buildViews(ctx, bounties)
}

// ListBounties supports ?creator_id= and ?status=open|completed.
func (s *BountyService) ListBounties(c *fiber.Ctx) error {
	ctx := c.UserContext()
	query := s.DB.WithContext(ctx)
	if creatorID := c.Query("creator_id"); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}

	views, err := s.listViews(ctx, query)
	if err != nil {
		return respondError(c, err)
	}

	switch c.Query("status") {
	case "open", "completed":
		wantCompleted := c.Query("status") == "completed"
		filtered := views[:0]
		for _, v := range views {
			if v.Progress.IsCompleted == wantCompleted {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	return c.JSON(views)
}

// findBounty resolves a bounty by id or slug.
func (s *BountyService) findBounty(ctx context.Context, idOrSlug string) (*models.Bounty, error) {
	var b models.Bounty
	err := s.DB.WithContext(ctx).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BountyService) GetBounty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	b, err := s.findBounty(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	views, err := s.buildViews(ctx, []models.Bounty{*b})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views[0])
}

// GetBountySubmissions returns the bounty's submissions with its progress.
func (s *BountyService) GetBountySubmissions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	b, err := s.findBounty(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var subs []models.Submission
	if err := s.DB.WithContext(ctx).Where("bounty_id = ?", b.ID).Order("created_at DESC").Find(&subs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"bounty":      s.view(*b, subs),
		"submissions": subs,
	})
}

// CreateBounty funds a new bounty from the business's wallet.
func (s *BountyService) CreateBounty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := requireRole(s.DB.WithContext(ctx), c, models.RoleBusiness)
	if err != nil {
		return respondError(c, err)
	}

	var in bountyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and description are required"})
	}
	totalBounty := utils.RoundCents(in.TotalBounty)
	if totalBounty <= 0 || in.RatePer1kViews <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_bounty and rate_per_1k_views must be positive"})
	}

	bounty := &models.Bounty{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Slug:           slug.Make(in.Name) + "-" + uuid.NewString()[:8],
		Description:    in.Description,
		Instructions:   optional(in.Instructions),
		CompanyName:    optional(in.CompanyName),
		TotalBounty:    totalBounty,
		RatePer1kViews: in.RatePer1kViews,
		CreatorID:      profile.ID,
	}

	if logoURL, err := s.uploadLogo(c); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload logo"})
	} else if logoURL != "" {
		bounty.LogoURL = &logoURL
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debitWallet(tx, profile.ID, bounty.TotalBounty); err != nil {
			return err
		}
		return tx.Create(bounty).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	zap.L().Info("[BOUNTY] created",
		zap.String("bounty_id", bounty.ID),
		zap.String("creator_id", profile.ID),
		zap.Float64("total_bounty", bounty.TotalBounty),
	)
	return c.Status(fiber.StatusCreated).JSON(s.view(*bounty, nil))
}

// UpdateBounty edits an owned bounty. The budget may only grow, with the
// difference debited from the wallet, and the rate is frozen once any
// submission has been approved.
func (s *BountyService) UpdateBounty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	bounty, profile, err := s.ownedBounty(c)
	if err != nil {
		return respondError(c, err)
	}

	var in bountyUpdateInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		bounty.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		bounty.Description = strings.TrimSpace(*in.Description)
	}
	if in.Instructions != nil {
		bounty.Instructions = optional(*in.Instructions)
	}
	if in.CompanyName != nil {
		bounty.CompanyName = optional(*in.CompanyName)
	}

	var topUp float64
	if in.TotalBounty != nil {
		newTotal := utils.RoundCents(*in.TotalBounty)
		if newTotal <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_bounty must be positive"})
		}
		if newTotal < bounty.TotalBounty {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_bounty can only be increased"})
		}
		topUp = newTotal - bounty.TotalBounty
		bounty.TotalBounty = newTotal
	}
	if in.RatePer1kViews != nil && *in.RatePer1kViews != bounty.RatePer1kViews {
		if *in.RatePer1kViews <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rate_per_1k_views must be positive"})
		}
		approved, err := s.approvedCount(ctx, bounty.ID)
		if err != nil {
			return respondError(c, err)
		}
		if approved > 0 {
			return respondError(c, ErrBountyHasPayouts)
		}
		bounty.RatePer1kViews = *in.RatePer1kViews
	}

	if logoURL, err := s.uploadLogo(c); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload logo"})
	} else if logoURL != "" {
		bounty.LogoURL = &logoURL
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if topUp > 0 {
			if err := debitWallet(tx, profile.ID, topUp); err != nil {
				return err
			}
		}
		return tx.Save(bounty).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	views, err := s.buildViews(ctx, []models.Bounty{*bounty})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views[0])
}

// DeleteBounty removes an owned bounty that has paid nothing out yet and
// refunds its budget to the wallet.
func (s *BountyService) DeleteBounty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	bounty, profile, err := s.ownedBounty(c)
	if err != nil {
		return respondError(c, err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// approved rows survive the delete and roll the whole transaction back
		if err := tx.Where("bounty_id = ? AND status <> ?", bounty.ID, models.SubmissionApproved).
			Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		var approved int64
		if err := tx.Model(&models.Submission{}).
			Where("bounty_id = ? AND status = ?", bounty.ID, models.SubmissionApproved).
			Count(&approved).Error; err != nil {
			return err
		}
		if approved > 0 {
			return ErrBountyHasPayouts
		}
		if err := tx.Delete(bounty).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserProfile{}).Where("id = ?", profile.ID).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", bounty.TotalBounty)).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	zap.L().Info("[BOUNTY] deleted and refunded",
		zap.String("bounty_id", bounty.ID),
		zap.Float64("refund", bounty.TotalBounty),
	)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *BountyService) ownedBounty(c *fiber.Ctx) (*models.Bounty, *models.UserProfile, error) {
	ctx := c.UserContext()
	profile, err := requireRole(s.DB.WithContext(ctx), c, models.RoleBusiness)
	if err != nil {
		return nil, nil, err
	}
	bounty, err := s.findBounty(ctx, c.Params("id"))
	if err != nil {
		return nil, nil, err
	}
	if bounty.CreatorID != profile.ID {
		return nil, nil, ErrForbidden
	}
	return bounty, profile, nil
}

func (s *BountyService) approvedCount(ctx context.Context, bountyID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("bounty_id = ? AND status = ?", bountyID, models.SubmissionApproved).
		Count(&n).Error
	return n, err
}

// uploadLogo stores the optional "logo" form file. It returns "" when none was sent.
func (s *BountyService) uploadLogo(c *fiber.Ctx) (string, error) {
	logoFile, err := c.FormFile("logo")
	if err != nil || logoFile.Size == 0 || s.Storage == nil {
		return "", nil
	}
	ext := filepath.Ext(logoFile.Filename)
	if ext == "" {
		ext = ".png"
	}
	url, err := s.Storage.Put(c.UserContext(), logoFile, "logos/"+uuid.NewString()+ext)
	if err != nil {
		zap.L().Error("[BOUNTY] logo upload failed", zap.Error(err))
		return "", err
	}
	return url, nil
}

// debitWallet subtracts amount only if the balance covers it.
func debitWallet(tx *gorm.DB, userID string, amount float64) error {
	res := tx.Model(&models.UserProfile{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: need %.2f", ErrInsufficientFunds, amount)
	}
	return nil
}
