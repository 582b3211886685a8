package services

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

const (
	maxBatchURLs         = 20
	batchConcurrency     = 5
	validationPendingMsg = "Automatic review is unavailable right now. The submission is waiting for manual review."
)

type SubmissionService struct {
	DB        *gorm.DB
	Metadata  MetadataSource
	Validator ContentValidator
}

func NewSubmissionService(db *gorm.DB, metadata MetadataSource, validator ContentValidator) *SubmissionService {
	return &SubmissionService{DB: db, Metadata: metadata, Validator: validator}
}

type submissionInput struct {
	BountyID string `json:"bounty_id"`
	VideoURL string `json:"video_url"`
}

type batchInput struct {
	BountyID string   `json:"bounty_id"`
	URLs     []string `json:"urls"`
}

// BatchResult is one settled entry of a batch validation. Status is
// "fulfilled" when a verdict was reached and "rejected" when it was not.
type BatchResult struct {
	URL         string `json:"url"`
	Status      string `json:"status"`
	Platform    string `json:"platform,omitempty"`
	Title       string `json:"title,omitempty"`
	Valid       bool   `json:"valid"`
	Explanation string `json:"explanation,omitempty"`
	Error       string `json:"error,omitempty"`
}

type statusInput struct {
	Status      models.SubmissionStatus `json:"status"`
	Explanation *string                 `json:"explanation"`
}

// CreateSubmission records a creator's link against a bounty, enriches it
// with metadata and runs automatic validation.
func (s *SubmissionService) CreateSubmission(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := requireRole(s.DB.WithContext(ctx), c, models.RoleCreator)
	if err != nil {
		return respondError(c, err)
	}

	var in submissionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	in.VideoURL = strings.TrimSpace(in.VideoURL)

	ref, err := DetectPlatform(in.VideoURL)
	if err != nil {
		return respondError(c, err)
	}

	var bounty models.Bounty
	if err := s.DB.WithContext(ctx).First(&bounty, "id = ?", in.BountyID).Error; err != nil {
		return respondError(c, err)
	}

	progress, err := s.progress(ctx, &bounty)
	if err != nil {
		return respondError(c, err)
	}
	if progress.IsCompleted {
		return respondError(c, ErrBountyCompleted)
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("bounty_id = ? AND video_url = ?", bounty.ID, in.VideoURL).
		Count(&existing).Error; err != nil {
		return respondError(c, err)
	}
	if existing > 0 {
		return respondError(c, ErrDuplicateSubmission)
	}

	meta := s.fetchMetadata(ctx, in.VideoURL, ref)
	sub := &models.Submission{
		ID:            uuid.NewString(),
		BountyID:      bounty.ID,
		UserID:        profile.ID,
		VideoURL:      in.VideoURL,
		Status:        models.SubmissionPending,
		Title:         optional(meta.Title),
		Description:   optional(meta.Description),
		CoverImageURL: optional(meta.CoverImageURL),
		Author:        optional(meta.Author),
		Platform:      optional(ref.Platform),
	}
	if err := insertSubmission(s.DB.WithContext(ctx), sub); err != nil {
		return respondError(c, err)
	}

	s.applyValidation(ctx, &bounty, sub, meta)
	if err := s.DB.WithContext(ctx).Model(sub).Updates(map[string]any{
		"status":                 sub.Status,
		"validation_explanation": sub.ValidationExplanation,
	}).Error; err != nil {
		return respondError(c, err)
	}

	zap.L().Info("[SUBMISSION] created",
		zap.String("submission_id", sub.ID),
		zap.String("bounty_id", bounty.ID),
		zap.String("platform", ref.Platform),
		zap.String("status", string(sub.Status)),
	)
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// insertSubmission reports a lost race on the (bounty, url) unique index
// as a duplicate.
func insertSubmission(db *gorm.DB, sub *models.Submission) error {
	err := db.Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSubmission
	}
	return err
}

// applyValidation sets status from the validator verdict. Infrastructure
// failures leave the submission pending.
func (s *SubmissionService) applyValidation(ctx context.Context, bounty *models.Bounty, sub *models.Submission, meta LinkMetadata) {
	if s.Validator == nil {
		sub.ValidationExplanation = optional(validationPendingMsg)
		return
	}
	result, err := s.Validator.Validate(ctx, bounty, sub.VideoURL, meta)
	if err != nil {
		zap.L().Warn("[SUBMISSION] validation unavailable, leaving pending",
			zap.String("submission_id", sub.ID), zap.Error(err))
		sub.ValidationExplanation = optional(validationPendingMsg)
		return
	}
	sub.Status = models.SubmissionRejected
	if result.Valid {
		sub.Status = models.SubmissionApproved
	}
	sub.ValidationExplanation = optional(result.Explanation)
}

func (s *SubmissionService) fetchMetadata(ctx context.Context, rawURL string, ref PostRef) LinkMetadata {
	if s.Metadata == nil {
		return LinkMetadata{Platform: ref.Platform}
	}
	meta, err := s.Metadata.Fetch(ctx, rawURL, ref)
	if err != nil {
		zap.L().Warn("[SUBMISSION] metadata lookup failed", zap.String("url", rawURL), zap.Error(err))
	}
	meta.Platform = ref.Platform
	return meta
}

func (s *SubmissionService) progress(ctx context.Context, bounty *models.Bounty) (BountyProgress, error) {
	var approved []models.Submission
	if err := s.DB.WithContext(ctx).
		Select("id", "status", "view_count").
		Where("bounty_id = ? AND status = ?", bounty.ID, models.SubmissionApproved).
		Find(&approved).Error; err != nil {
		return BountyProgress{}, err
	}
	return ProgressFor(bounty, approved), nil
}

// ListMySubmissions returns the caller's submissions, newest first.
func (s *SubmissionService) ListMySubmissions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := ensureProfile(s.DB.WithContext(ctx), userID)
	if err != nil {
		return respondError(c, err)
	}

	var subs []models.Submission
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"submissions":    subs,
		"total_earnings": profile.TotalEarnings,
	})
}

// ValidateBatch checks up to 20 links against a bounty without storing them.
// Every URL gets a settled result in input order.
func (s *SubmissionService) ValidateBatch(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if _, err := currentUserID(c); err != nil {
		return respondError(c, err)
	}

	var in batchInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(in.URLs) == 0 || len(in.URLs) > maxBatchURLs {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "urls must contain between 1 and 20 links"})
	}

	var bounty models.Bounty
	if err := s.DB.WithContext(ctx).First(&bounty, "id = ?", in.BountyID).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"results": s.validateAll(ctx, &bounty, in.URLs)})
}

func (s *SubmissionService) validateAll(ctx context.Context, bounty *models.Bounty, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, raw := range urls {
		g.Go(func() error {
			results[i] = s.validateOne(ctx, bounty, strings.TrimSpace(raw))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *SubmissionService) validateOne(ctx context.Context, bounty *models.Bounty, rawURL string) BatchResult {
	result := BatchResult{URL: rawURL, Status: "rejected"}
	ref, err := DetectPlatform(rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Platform = ref.Platform

	meta := s.fetchMetadata(ctx, rawURL, ref)
	result.Title = meta.Title
	if s.Validator == nil {
		result.Error = ErrAIUnavailable.Error()
		return result
	}

	verdict, err := s.Validator.Validate(ctx, bounty, rawURL, meta)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Status = "fulfilled"
	result.Valid = verdict.Valid
	result.Explanation = verdict.Explanation
	return result
}

// UpdateSubmissionStatus lets the bounty owner override a verdict. Earnings
// and the creator's total are repriced in the same transaction.
func (s *SubmissionService) UpdateSubmissionStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := requireRole(s.DB.WithContext(ctx), c, models.RoleBusiness)
	if err != nil {
		return respondError(c, err)
	}

	var in statusInput
	if err := c.BodyParser(&in); err != nil || !in.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be pending, approved or rejected"})
	}

	var sub models.Submission
	if err := s.DB.WithContext(ctx).First(&sub, "id = ?", c.Params("id")).Error; err != nil {
		return respondError(c, err)
	}
	var bounty models.Bounty
	if err := s.DB.WithContext(ctx).First(&bounty, "id = ?", sub.BountyID).Error; err != nil {
		return respondError(c, err)
	}
	if bounty.CreatorID != profile.ID {
		return respondError(c, ErrForbidden)
	}

	updates := map[string]any{"status": in.Status, "earned_amount": 0}
	if in.Status == models.SubmissionApproved {
		// priced from the stored view count, which a concurrent refresh may have moved
		updates["earned_amount"] = gorm.Expr("view_count * CAST(? AS DOUBLE PRECISION) / 1000", bounty.RatePer1kViews)
	}
	if in.Explanation != nil {
		updates["validation_explanation"] = optional(*in.Explanation)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submission{}).Where("id = ?", sub.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.First(&sub, "id = ?", sub.ID).Error; err != nil {
			return err
		}
		return recomputeTotalEarnings(tx, sub.UserID)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}
