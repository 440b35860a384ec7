// Package router classifies questions into answerable domains using curated
// lexical signals. Classification never fails: when nothing matches, the
// fallback domain is returned with full confidence so the orchestrator always
// has a target.
package router

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// minConfidence is the normalized score below which classification falls
// back to the synthetic fallback domain.
const minConfidence = 0.1

// maxGreetingRunes bounds how long a pure salutation can plausibly be.
const maxGreetingRunes = 10

// priority breaks ties between equally scored domains deterministically.
var priority = map[domain.Intent]int{
	domain.IntentPolicy:          0,
	domain.IntentProcedure:       1,
	domain.IntentContacts:        2,
	domain.IntentCourse:          3,
	domain.IntentCommonQuestions: 4,
	domain.IntentGreetings:       5,
	domain.IntentFallback:        6,
}

// signals holds the curated keyword/phrase lists per domain. Matching is
// case-insensitive substring; these are curation data, not contract.
var signals = map[domain.Intent][]string{
	domain.IntentPolicy: {
		"政策", "规定", "制度", "条例", "办法", "细则", "标准", "要求",
		"条件", "资格", "限制", "校规", "处分", "奖学金", "助学金", "贷款",
		"减免", "比例", "金额", "费用", "收费", "报销", "能报销", "可以报销",
	},
	domain.IntentProcedure: {
		"流程", "步骤", "手续", "办理", "申请", "材料", "清单", "盖章",
		"审核", "提交", "学籍", "注册", "休学", "复学", "转学", "退学",
		"宿舍", "住宿", "退宿", "成绩单", "在读证明", "毕业证明", "学位证明",
		"转诊", "到账", "周期", "截止", "怎么办",
	},
	domain.IntentContacts: {
		"老师", "教授", "导师", "辅导员", "班主任", "联系", "电话", "邮箱",
		"微信", "办公室", "地点", "地址", "在哪", "部门", "学院", "教务处",
		"学生处", "财务处", "图书馆", "医务室", "保卫处", "后勤", "窗口", "咨询",
	},
	domain.IntentCourse: {
		"课程", "选课", "退课", "调课", "课表", "上课", "学分", "学时",
		"必修", "选修", "专业课", "成绩", "分数", "绩点", "gpa", "排名",
		"补考", "重修", "缓考", "免修", "考试", "期末", "期中", "四六级",
		"普通话", "准考证", "考场", "保研", "考研", "留学", "升学",
	},
	domain.IntentCommonQuestions: {
		"常见问题", "一般", "通常", "大概", "faq",
	},
}

// salutations are the fixed greeting patterns that short-circuit routing.
var salutations = []string{
	"你好", "您好", "早上好", "中午好", "下午好", "晚上好",
	"嗨", "hi", "hello", "hey", "谢谢", "感谢", "再见", "拜拜",
	"你是谁", "小助手",
}

// IntentRouter ranks domains for a question. It holds only static curation
// data and never mutates state.
type IntentRouter struct{}

func New() *IntentRouter {
	return &IntentRouter{}
}

// Classify returns a ranked, never-empty list of (domain, confidence) pairs.
// Confidences of the returned candidates sum to 1.
func (r *IntentRouter) Classify(question string) []domain.Classification {
	q := strings.ToLower(strings.TrimSpace(question))

	if isGreeting(q) {
		return []domain.Classification{{Intent: domain.IntentGreetings, Confidence: 1.0}}
	}

	raw := make(map[domain.Intent]float64, len(signals))
	var sum float64
	for intent, words := range signals {
		matched := 0
		for _, w := range words {
			if strings.Contains(q, w) {
				matched++
			}
		}
		score := float64(matched) / float64(len(words))
		raw[intent] = score
		sum += score
	}

	if sum == 0 {
		return []domain.Classification{{Intent: domain.IntentFallback, Confidence: 1.0}}
	}

	var ranked []domain.Classification
	for intent, score := range raw {
		if score == 0 {
			continue
		}
		ranked = append(ranked, domain.Classification{Intent: intent, Confidence: score / sum})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return priority[ranked[i].Intent] < priority[ranked[j].Intent]
	})

	if ranked[0].Confidence < minConfidence {
		return []domain.Classification{{Intent: domain.IntentFallback, Confidence: 1.0}}
	}

	return ranked
}

// isGreeting reports whether the question is a short salutation-style input.
func isGreeting(q string) bool {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, q)

	if stripped == "" || utf8.RuneCountInString(stripped) > maxGreetingRunes {
		return false
	}
	for _, s := range salutations {
		if strings.Contains(stripped, s) {
			return true
		}
	}
	return false
}
