package agent

import "github.com/campusdesk/campusdesk/internal/domain"

// NewPolicy returns the agent for policy and regulation questions
// (reimbursement ratios, eligibility, deadlines).
func NewPolicy() Agent {
	return &retrievalAgent{
		intent:   domain.IntentPolicy,
		category: domain.CategoryPolicy,
		instructions: "你是校园事务助手，现在回答政策条款类问题。" +
			"引用政策时用“按照学生门诊报销政策……”这样的表述，" +
			"涉及比例、金额、截止日期等具体数字必须来自知识库原文。",
	}
}
