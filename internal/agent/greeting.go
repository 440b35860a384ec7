package agent

import (
	"strings"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// greetingAgent answers salutations and small talk. It skips retrieval
// entirely, so its sources list is always empty.
type greetingAgent struct{}

// NewGreeting returns the agent for salutation-style inputs.
func NewGreeting() Agent {
	return &greetingAgent{}
}

func (a *greetingAgent) Intent() domain.Intent { return domain.IntentGreetings }

func (a *greetingAgent) BuildQuery(question string) (Query, error) {
	return Query{Skip: true}, nil
}

func (a *greetingAgent) RenderPrompt(question string, results []domain.SearchResult) (string, []domain.SearchResult) {
	var b strings.Builder
	b.WriteString("你是校园事务智能助手，性格温柔耐心。用户发来的是问候或闲聊：先友好回应，")
	b.WriteString("再简单介绍自己能帮忙查询报销政策、办事流程、联系人和课程信息。不要编造业务内容。\n\n")
	b.WriteString("### 用户消息：\n\n")
	b.WriteString(question)
	return b.String(), nil
}

func (a *greetingAgent) Postprocess(answer string, used []domain.SearchResult) (string, []domain.Citation) {
	return strings.TrimSpace(answer), []domain.Citation{}
}
