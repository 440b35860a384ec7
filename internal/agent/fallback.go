package agent

import (
	"strings"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// fallbackAgent handles questions no specialized domain claimed. It searches
// without a category filter (or with one when serving a routed category) and
// degrades gracefully to an honest "not covered" answer.
type fallbackAgent struct {
	intent   domain.Intent
	category domain.Category
}

// NewFallback returns the unfiltered fallback agent.
func NewFallback() Agent {
	return &fallbackAgent{intent: domain.IntentFallback}
}

// NewFallbackForCategory returns a fallback agent narrowed to one category,
// used for routed domains that have knowledge but no dedicated variant.
func NewFallbackForCategory(intent domain.Intent, category domain.Category) Agent {
	return &fallbackAgent{intent: intent, category: category}
}

func (a *fallbackAgent) Intent() domain.Intent { return a.intent }

func (a *fallbackAgent) BuildQuery(question string) (Query, error) {
	terms := rewriteTerms(question)
	if terms == "" {
		// Nothing searchable left; answer without retrieval rather than fail.
		return Query{Skip: true}, nil
	}
	return Query{Category: a.category, Terms: terms}, nil
}

func (a *fallbackAgent) RenderPrompt(question string, results []domain.SearchResult) (string, []domain.SearchResult) {
	instructions := "你是校园事务助手。这个问题没有匹配到专门的领域：" +
		"如果知识库有相关内容就据实回答；没有就坦率说明，并列举你能帮忙的范围" +
		"（报销政策、办事流程、联系人、课程信息）。"
	return renderContextPrompt(instructions, question, results)
}

func (a *fallbackAgent) Postprocess(answer string, used []domain.SearchResult) (string, []domain.Citation) {
	return strings.TrimSpace(answer), citations(used)
}
