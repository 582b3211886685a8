package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

// Recommendation is a bounty ranked for one creator.
type Recommendation struct {
	BountyView
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Recommender ranks open bounties against a creator's past submissions.
// With no AI configured, or when the model fails, keyword overlap is used.
type Recommender struct {
	AI TextGenerator
}

func NewRecommender(ai TextGenerator) *Recommender {
	return &Recommender{AI: ai}
}

type aiRanking struct {
	Recommendations []struct {
		BountyID string `json:"bounty_id"`
		Score    int    `json:"score"`
		Reason   string `json:"reason"`
	} `json:"recommendations"`
}

func (r *Recommender) Rank(ctx context.Context, history []models.Submission, candidates []BountyView) []Recommendation {
	recs := make([]Recommendation, len(candidates))
	interests := interestKeywords(history)
	for i, view := range candidates {
		score, reason := keywordScore(interests, view)
		recs[i] = Recommendation{BountyView: view, Score: score, Reason: reason}
	}

	if r.AI != nil && len(candidates) > 0 && len(history) > 0 {
		if err := r.applyAIScores(ctx, history, recs); err != nil {
			zap.L().Warn("[RECOMMEND] ai ranking failed, using keyword scores", zap.Error(err))
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Progress.Percentage < recs[j].Progress.Percentage
	})
	return recs
}

func (r *Recommender) applyAIScores(ctx context.Context, history []models.Submission, recs []Recommendation) error {
	raw, err := r.AI.GenerateJSON(ctx, buildRecommendationPrompt(history, recs))
	if err != nil {
		return err
	}
	var ranking aiRanking
	if err := json.Unmarshal([]byte(raw), &ranking); err != nil {
		return fmt.Errorf("malformed ranking: %w", err)
	}

	byID := make(map[string]int, len(recs))
	for i, rec := range recs {
		byID[rec.ID] = i
	}
	for _, item := range ranking.Recommendations {
		i, ok := byID[item.BountyID]
		if !ok {
			continue
		}
		recs[i].Score = clampScore(item.Score)
		if reason := strings.TrimSpace(item.Reason); reason != "" {
			recs[i].Reason = reason
		}
	}
	return nil
}

func buildRecommendationPrompt(history []models.Submission, recs []Recommendation) string {
	var b strings.Builder
	b.WriteString("You match content creators with brand bounties.\n")
	b.WriteString("Past content from this creator:\n")
	for _, s := range history {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", deref(s.Platform), deref(s.Title), deref(s.Description))
	}
	b.WriteString("\nOpen bounties:\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "- id=%s name=%q description=%q", rec.ID, rec.Name, rec.Description)
		if rec.Instructions != nil {
			fmt.Fprintf(&b, " instructions=%q", *rec.Instructions)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nScore every bounty from 0 to 100 for how well it fits the creator. ")
	b.WriteString("Respond with JSON only: {\"recommendations\": [{\"bounty_id\": string, \"score\": number, \"reason\": string}]}.")
	return b.String()
}

// keywordScore weights topical overlap at 70 points and remaining budget at 30.
func keywordScore(interests map[string]struct{}, view BountyView) (int, string) {
	openness := 1 - view.Progress.Percentage/100

	var matched []string
	bountyWords := keywords(view.Name + " " + view.Description + " " + deref(view.Instructions))
	for _, w := range bountyWords {
		if _, ok := interests[w]; ok {
			matched = append(matched, w)
		}
	}

	var interest float64
	if len(bountyWords) > 0 {
		interest = math.Min(float64(len(matched))/math.Min(float64(len(bountyWords)), 5), 1)
	}

	score := clampScore(int(math.Round(70*interest + 30*openness)))
	if len(matched) > 0 {
		if len(matched) > 3 {
			matched = matched[:3]
		}
		return score, "Matches your past content about " + strings.Join(matched, ", ")
	}
	return score, fmt.Sprintf("%.0f%% of the budget is still available", openness*100)
}

func interestKeywords(history []models.Submission) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range history {
		for _, w := range keywords(deref(s.Title) + " " + deref(s.Description)) {
			out[w] = struct{}{}
		}
	}
	return out
}

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "your": {}, "from": {}, "have": {},
	"will": {}, "about": {}, "what": {}, "when": {}, "make": {}, "more": {},
	"they": {}, "them": {}, "their": {}, "into": {}, "just": {}, "like": {},
	"video": {}, "videos": {}, "post": {}, "content": {},
}

// keywords returns unique lowercase words of four or more letters, in order.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 4 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func clampScore(score int) int {
	return max(0, min(score, 100))
}
