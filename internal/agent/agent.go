// Package agent implements the domain-specialized skill agents. Each agent
// narrows knowledge retrieval to its own territory, shapes the prompt handed
// to the completion service, and owns answer post-processing. Adding a domain
// means adding one variant here; the orchestrator never changes.
package agent

import (
	"fmt"
	"strings"

	"github.com/campusdesk/campusdesk/internal/domain"
)

const (
	// maxPromptItems bounds how many retrieved items one prompt may cite.
	maxPromptItems = 5
	// promptBudget bounds the retrieved-context portion of a prompt, in
	// bytes. Lowest-scoring items are dropped first.
	promptBudget = 4096
)

// Query is an agent's narrowed knowledge store query.
type Query struct {
	Category domain.Category // empty means no category filter
	Terms    string          // rewritten search text
	Skip     bool            // the agent wants no retrieval at all
}

// Agent is the capability every skill agent implements.
type Agent interface {
	// Intent names the routed domain this agent serves.
	Intent() domain.Intent
	// BuildQuery narrows the store search and may rewrite the question into
	// better search terms.
	BuildQuery(question string) (Query, error)
	// RenderPrompt composes a bounded-size prompt and reports exactly the
	// results it included, so citations can never reference a truncated item.
	RenderPrompt(question string, results []domain.SearchResult) (string, []domain.SearchResult)
	// Postprocess shapes the final answer and extracts citations from the
	// items that were actually in the prompt.
	Postprocess(answer string, used []domain.SearchResult) (string, []domain.Citation)
}

// stopWords are question particles stripped when rewriting a question into
// search terms. Longer phrases first so e.g. 怎么办 is removed before 怎么.
var stopWords = []string{
	"请问一下", "想问一下", "请问", "想问",
	"什么时候", "没有", "怎么样", "怎么办", "怎么", "怎样", "如何",
	"什么", "哪些", "哪个", "哪里", "多少", "可以", "这个", "那个",
	"的", "了", "是", "在", "我", "有", "和", "就", "不", "都",
	"吗", "么", "能", "为", "吧", "啊", "呢", "呀", "你", "要",
}

// rewriteTerms strips question words, particles, and punctuation so the
// residue carries only content-bearing terms.
func rewriteTerms(question string) string {
	s := strings.TrimSpace(question)
	for _, w := range stopWords {
		s = strings.ReplaceAll(s, w, " ")
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteRune(r)
		case strings.ContainsRune("？?。，,！!：:；;、（）()\"'“”", r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// renderContextPrompt builds the shared retrieval-grounded prompt layout:
// instruction block, retrieved items (highest score first, truncated under
// the byte budget), then the question. Returns the items actually included.
func renderContextPrompt(instructions, question string, results []domain.SearchResult) (string, []domain.SearchResult) {
	var ctx strings.Builder
	var used []domain.SearchResult

	for _, res := range results {
		if len(used) >= maxPromptItems {
			break
		}
		block := fmt.Sprintf("【%s】%s\n%s\n\n", res.Item.Category, res.Item.Title, res.Item.Content)
		if ctx.Len()+len(block) > promptBudget {
			break
		}
		ctx.WriteString(block)
		used = append(used, res)
	}

	context := ctx.String()
	if context == "" {
		context = "（知识库中没有匹配的记录）\n"
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n### 知识库检索结果：\n\n")
	b.WriteString(context)
	b.WriteString("\n### 用户问题：\n\n")
	b.WriteString(question)
	b.WriteString("\n\n请只使用上述知识库内容回答，不要编造信息；知识库中没有相关信息时直接说明。重要信息加粗，回答简洁明了。")
	return b.String(), used
}

// citations builds the provenance list from the items included in the prompt.
func citations(used []domain.SearchResult) []domain.Citation {
	out := make([]domain.Citation, 0, len(used))
	for _, res := range used {
		out = append(out, domain.Citation{
			ID:       res.Item.ID,
			Title:    res.Item.Title,
			Category: string(res.Item.Category),
			Score:    res.Score,
		})
	}
	return out
}

// retrievalAgent carries the behavior shared by the category-narrowed
// agents; each variant supplies its domain, category, and instructions.
type retrievalAgent struct {
	intent       domain.Intent
	category     domain.Category
	instructions string
}

func (a *retrievalAgent) Intent() domain.Intent { return a.intent }

func (a *retrievalAgent) BuildQuery(question string) (Query, error) {
	terms := rewriteTerms(question)
	if terms == "" {
		return Query{}, domain.ErrEmptySearchTerms
	}
	return Query{Category: a.category, Terms: terms}, nil
}

func (a *retrievalAgent) RenderPrompt(question string, results []domain.SearchResult) (string, []domain.SearchResult) {
	return renderContextPrompt(a.instructions, question, results)
}

func (a *retrievalAgent) Postprocess(answer string, used []domain.SearchResult) (string, []domain.Citation) {
	return strings.TrimSpace(answer), citations(used)
}

// All returns every agent keyed by the routed domain it serves. The
// common_questions domain is served by the fallback agent narrowed to that
// category; the agent set itself stays closed.
func All() map[domain.Intent]Agent {
	return map[domain.Intent]Agent{
		domain.IntentPolicy:          NewPolicy(),
		domain.IntentProcedure:       NewProcedure(),
		domain.IntentContacts:        NewContacts(),
		domain.IntentCourse:          NewCourse(),
		domain.IntentGreetings:       NewGreeting(),
		domain.IntentCommonQuestions: NewFallbackForCategory(domain.IntentCommonQuestions, domain.CategoryCommonQuestions),
		domain.IntentFallback:        NewFallback(),
	}
}
