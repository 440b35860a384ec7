package domain

import (
	"fmt"
	"time"
)

// Category classifies a knowledge item into one administrative topic.
type Category string

const (
	CategoryPolicy          Category = "policy"
	CategoryMaterials       Category = "materials"
	CategoryProcedure       Category = "procedure"
	CategoryContacts        Category = "contacts"
	CategoryHospitals       Category = "hospitals"
	CategoryCommonQuestions Category = "common_questions"
	CategorySpecialCases    Category = "special_cases"
	CategoryGreetings       Category = "greetings"
	CategoryCourse          Category = "course"
)

// Categories lists every recognized category tag.
var Categories = []Category{
	CategoryPolicy,
	CategoryMaterials,
	CategoryProcedure,
	CategoryContacts,
	CategoryHospitals,
	CategoryCommonQuestions,
	CategorySpecialCases,
	CategoryGreetings,
	CategoryCourse,
}

// KnowledgeItem is one fact in the knowledge store.
type KnowledgeItem struct {
	ID        string
	Category  Category
	Title     string
	Content   string
	Tags      []string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KnowledgeDraft carries the caller-supplied fields for a new item.
// The store assigns ID and timestamps on Add.
type KnowledgeDraft struct {
	Category Category
	Title    string
	Content  string
	Tags     []string
	Metadata map[string]string
}

// KnowledgePatch carries the mutable fields of an update. Nil pointers mean
// "leave unchanged"; ID and Category are immutable after creation.
type KnowledgePatch struct {
	Title    *string
	Content  *string
	Tags     *[]string
	Metadata *map[string]string
}

// NewKnowledgeItem builds a KnowledgeItem from a draft with the given id and
// creation time. Tags are deduplicated preserving first occurrence.
func NewKnowledgeItem(id string, draft KnowledgeDraft, now time.Time) *KnowledgeItem {
	return &KnowledgeItem{
		ID:        id,
		Category:  draft.Category,
		Title:     draft.Title,
		Content:   draft.Content,
		Tags:      NormalizeTags(draft.Tags),
		Metadata:  draft.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so the store can hand items out without exposing
// its own state to mutation.
func (k *KnowledgeItem) Clone() *KnowledgeItem {
	c := *k
	c.Tags = append([]string(nil), k.Tags...)
	if k.Metadata != nil {
		c.Metadata = make(map[string]string, len(k.Metadata))
		for key, v := range k.Metadata {
			c.Metadata[key] = v
		}
	}
	return &c
}

// NormalizeTags collapses duplicate tags, preserving first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ValidateDraft checks the fields required at creation time.
func ValidateDraft(d KnowledgeDraft) error {
	if d.Title == "" {
		return NewDomainError(ErrCodeValidation, "title is required")
	}
	if d.Content == "" {
		return NewDomainError(ErrCodeValidation, "content is required")
	}
	if !IsValidCategory(d.Category) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("unrecognized category: %s", d.Category))
	}
	return nil
}

// ValidatePatch checks that an update does not blank out required fields.
func ValidatePatch(p KnowledgePatch) error {
	if p.Title != nil && *p.Title == "" {
		return NewDomainError(ErrCodeValidation, "title cannot be empty")
	}
	if p.Content != nil && *p.Content == "" {
		return NewDomainError(ErrCodeValidation, "content cannot be empty")
	}
	return nil
}

// IsValidCategory reports whether c is one of the recognized category tags.
func IsValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
