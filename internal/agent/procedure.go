package agent

import "github.com/campusdesk/campusdesk/internal/domain"

// NewProcedure returns the agent for administrative procedure questions
// (applications, paperwork, where to go and in what order).
func NewProcedure() Agent {
	return &retrievalAgent{
		intent:   domain.IntentProcedure,
		category: domain.CategoryProcedure,
		instructions: "你是校园事务助手，现在回答办事流程类问题。" +
			"尽量把流程整理为有序的步骤，注明需要的材料、办理地点和时限。",
	}
}
