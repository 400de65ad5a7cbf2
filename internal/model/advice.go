package model

type AdviceSource string

const (
	AdviceSourceAI        AdviceSource = "ai"
	AdviceSourceRuleBased AdviceSource = "rule_based"
)

type AdviceResult struct {
	TalkingPoint string       `json:"talking_point"`
	Confidence   float32      `json:"confidence"`
	Source       AdviceSource `json:"source"`
}
