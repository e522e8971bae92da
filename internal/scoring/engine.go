package scoring

import (
	"math"
	"time"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/explain"
	"github.com/cryptoguard/tokenscan/internal/signals"
)

// Badge is the coarse verdict derived from the score.
type Badge string

const (
	BadgeSafe     Badge = "Safe"
	BadgeCaution  Badge = "Caution"
	BadgeHighRisk Badge = "HighRisk"
)

// Confidence multipliers. Coverage drives confidence; conflicting sources
// and an unknown mint state each shave it further.
const (
	conflictConfidenceFactor    = 0.7
	unknownMintConfidenceFactor = 0.9
)

// RuleDelta records one rule's contribution, in evaluation order.
type RuleDelta struct {
	Rule  string `json:"rule"`
	Delta int    `json:"delta"`
}

// EngineResult is the complete outcome of one scan. It is immutable after
// construction and never persisted by the core.
type EngineResult struct {
	ScanID      string                `json:"scan_id"`
	Mint        string                `json:"mint"`
	Score       int                   `json:"score"`
	Badge       Badge                 `json:"badge"`
	Confidence  float64               `json:"confidence"`
	Reasons     []explain.Reason      `json:"reasons"`
	Deltas      []RuleDelta           `json:"deltas"`
	Signals     *signals.ScoreSignals `json:"signals"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// Engine evaluates the rule table over a signal set. It is stateless and
// safe for concurrent use.
type Engine struct {
	cfg       config.ScoringConfig
	explainer *explain.Explainer
	rules     []Rule
}

// NewEngine builds an engine over the scoring configuration.
func NewEngine(cfg config.ScoringConfig) *Engine {
	return &Engine{
		cfg:       cfg,
		explainer: explain.New(cfg),
		rules:     ruleTable(),
	}
}

// Run evaluates every rule in fixed order, clamps the summed score, derives
// the badge and confidence and attaches the generated reasons. Two runs over
// identical signals produce identical results apart from the timestamp.
func (e *Engine) Run(s *signals.ScoreSignals) *EngineResult {
	total := 0
	deltas := make([]RuleDelta, 0, len(e.rules))
	for _, rule := range e.rules {
		d := rule.Eval(e.cfg, s)
		total += d
		deltas = append(deltas, RuleDelta{Rule: rule.Name, Delta: d})
	}

	score := ClampScore(float64(total))

	return &EngineResult{
		Mint:        s.Mint,
		Score:       score,
		Badge:       e.ScoreToBadge(score),
		Confidence:  Confidence(s),
		Reasons:     e.explainer.Generate(s),
		Deltas:      deltas,
		Signals:     s,
		GeneratedAt: time.Now().UTC(),
	}
}

// ClampScore rounds first, then bounds to [0,100], so a 100.4 from stacked
// bonuses reports 100 rather than overflowing.
func ClampScore(x float64) int {
	rounded := int(math.Round(x))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// ScoreToBadge maps a clamped score onto the coarse verdict.
func (e *Engine) ScoreToBadge(score int) Badge {
	switch {
	case score >= e.cfg.SafeBadgeMin:
		return BadgeSafe
	case score >= e.cfg.CautionBadgeMin:
		return BadgeCaution
	default:
		return BadgeHighRisk
	}
}

// Confidence combines source coverage with the conflict and unknown-mint
// factors, rounded to two decimals. With zero attempted sources the coverage
// factor is a neutral 1 so the remaining multipliers still apply.
func Confidence(s *signals.ScoreSignals) float64 {
	c := 1.0
	if s.SourcesTotal > 0 {
		c = float64(s.SourcesOk) / float64(s.SourcesTotal)
	}
	if s.DataConflict {
		c *= conflictConfidenceFactor
	}
	if s.MintActive == nil && s.SourcesOk > 0 {
		c *= unknownMintConfidenceFactor
	}
	return math.Round(c*100) / 100
}
