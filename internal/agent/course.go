package agent

import "github.com/campusdesk/campusdesk/internal/domain"

// NewCourse returns the agent for course, exam, and academic-planning
// questions.
func NewCourse() Agent {
	return &retrievalAgent{
		intent:   domain.IntentCourse,
		category: domain.CategoryCourse,
		instructions: "你是校园事务助手，现在回答选课、考试和学业规划类问题。" +
			"涉及时间节点（选课窗口、报名截止、考试日期）时务必准确。",
	}
}
