package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

// ValidationResult is the AI verdict for one submission.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	Explanation string `json:"explanation"`
}

// ContentValidator decides whether a post fulfils a bounty's requirements.
type ContentValidator interface {
	Validate(ctx context.Context, bounty *models.Bounty, videoURL string, meta LinkMetadata) (ValidationResult, error)
}

// AIContentValidator asks the model to judge the post's metadata against
// the bounty description and instructions.
type AIContentValidator struct {
	AI TextGenerator
}

func NewAIContentValidator(ai TextGenerator) *AIContentValidator {
	return &AIContentValidator{AI: ai}
}

func (v *AIContentValidator) Validate(ctx context.Context, bounty *models.Bounty, videoURL string, meta LinkMetadata) (ValidationResult, error) {
	raw, err := v.AI.GenerateJSON(ctx, buildValidationPrompt(bounty, videoURL, meta))
	if err != nil {
		return ValidationResult{}, err
	}

	var result ValidationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return ValidationResult{}, fmt.Errorf("%w: malformed verdict: %v", ErrAIUnavailable, err)
	}
	result.Explanation = strings.TrimSpace(result.Explanation)
	if result.Explanation == "" {
		if result.Valid {
			result.Explanation = "Content matches the bounty requirements."
		} else {
			result.Explanation = "Content does not match the bounty requirements."
		}
	}
	return result, nil
}

func buildValidationPrompt(bounty *models.Bounty, videoURL string, meta LinkMetadata) string {
	var b strings.Builder
	b.WriteString("You review user-generated content submitted to a paid brand bounty.\n")
	b.WriteString("Decide whether the post satisfies the bounty. Judge only from the data below.\n\n")
	fmt.Fprintf(&b, "Bounty name: %s\n", bounty.Name)
	fmt.Fprintf(&b, "Bounty description: %s\n", bounty.Description)
	if bounty.Instructions != nil && *bounty.Instructions != "" {
		fmt.Fprintf(&b, "Bounty instructions: %s\n", *bounty.Instructions)
	}
	if bounty.CompanyName != nil && *bounty.CompanyName != "" {
		fmt.Fprintf(&b, "Brand: %s\n", *bounty.CompanyName)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Post URL: %s\n", videoURL)
	fmt.Fprintf(&b, "Platform: %s\n", meta.Platform)
	fmt.Fprintf(&b, "Post title: %s\n", meta.Title)
	fmt.Fprintf(&b, "Post description: %s\n", meta.Description)
	fmt.Fprintf(&b, "Post author: %s\n", meta.Author)
	b.WriteString("\nRespond with JSON only: {\"valid\": boolean, \"explanation\": string}. ")
	b.WriteString("Keep the explanation to one or two sentences addressed to the creator.")
	return b.String()
}
