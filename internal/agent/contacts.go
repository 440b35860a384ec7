package agent

import (
	"fmt"
	"strings"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// contactsAgent surfaces contact cards alongside the generated answer so the
// caller gets the raw record even when the model paraphrases it.
type contactsAgent struct {
	retrievalAgent
}

// NewContacts returns the agent for people/department lookup questions.
func NewContacts() Agent {
	return &contactsAgent{retrievalAgent{
		intent:   domain.IntentContacts,
		category: domain.CategoryContacts,
		instructions: "你是校园事务助手，现在回答联系人查询类问题。" +
			"回答中明确给出负责人姓名、办公地点、联系电话和办公时间。",
	}}
}

func (a *contactsAgent) Postprocess(answer string, used []domain.SearchResult) (string, []domain.Citation) {
	answer = strings.TrimSpace(answer)

	var cards strings.Builder
	for _, res := range used {
		if res.Item.Category != domain.CategoryContacts {
			continue
		}
		cards.WriteString(fmt.Sprintf("\n- **%s**：%s", res.Item.Title, res.Item.Content))
	}
	if cards.Len() > 0 {
		answer += "\n\n**联系方式**" + cards.String()
	}

	return answer, citations(used)
}
