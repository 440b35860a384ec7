package domain

// Intent identifies which specialized agent should answer a question.
type Intent string

const (
	IntentPolicy          Intent = "policy"
	IntentProcedure       Intent = "procedure"
	IntentContacts        Intent = "contacts"
	IntentCourse          Intent = "course"
	IntentCommonQuestions Intent = "common_questions"
	IntentGreetings       Intent = "greetings"
	IntentFallback        Intent = "fallback"
)

// Classification is one (domain, confidence) pair produced by the intent
// router. Confidence is in [0,1].
type Classification struct {
	Intent     Intent
	Confidence float64
}

// SearchResult pairs a knowledge item with a relevance score in [0,1].
// Results are transient; they are never persisted.
type SearchResult struct {
	Item  *KnowledgeItem
	Score float64
}

// Citation is the provenance record surfaced to the caller for one retrieved
// item that was actually included in the prompt.
type Citation struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}
