package store

import (
	"sort"
	"strings"
	"unicode"

	"github.com/campusdesk/campusdesk/internal/domain"
)

// Field weights for the lexical scorer. Title carries the most signal, tags
// are curated keywords, content is the noisiest field. Weights sum to 1 so
// scores land in [0,1].
const (
	titleWeight   = 0.5
	tagWeight     = 0.3
	contentWeight = 0.2
)

// Tokenize splits query text into lowercase search terms. ASCII runs split
// on non-alphanumerics; CJK runs contribute the whole run plus overlapping
// bigrams, so a term like 报销 still matches inside 报销比例.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var terms []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	var ascii, cjk []rune
	flushASCII := func() {
		if len(ascii) > 0 {
			add(string(ascii))
			ascii = ascii[:0]
		}
	}
	flushCJK := func() {
		if len(cjk) == 0 {
			return
		}
		add(string(cjk))
		for i := 0; i+1 < len(cjk); i++ {
			add(string(cjk[i : i+2]))
		}
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushASCII()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			ascii = append(ascii, r)
		default:
			flushASCII()
			flushCJK()
		}
	}
	flushASCII()
	flushCJK()

	return terms
}

// ScoreItem computes the lexical relevance of item for the given terms as a
// weighted sum of the fraction of terms appearing in title, tags, and
// content. Zero means the item matched nothing.
func ScoreItem(item *domain.KnowledgeItem, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	title := strings.ToLower(item.Title)
	content := strings.ToLower(item.Content)
	tags := make([]string, len(item.Tags))
	for i, t := range item.Tags {
		tags[i] = strings.ToLower(t)
	}

	var inTitle, inTags, inContent int
	for _, term := range terms {
		if strings.Contains(title, term) {
			inTitle++
		}
		if strings.Contains(content, term) {
			inContent++
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				inTags++
				break
			}
		}
	}

	n := float64(len(terms))
	return titleWeight*float64(inTitle)/n +
		tagWeight*float64(inTags)/n +
		contentWeight*float64(inContent)/n
}

// RankResults orders results by descending score, then most recent update,
// then id ascending, and truncates to limit.
func RankResults(results []domain.SearchResult, limit int) []domain.SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Item.UpdatedAt.Equal(results[j].Item.UpdatedAt) {
			return results[i].Item.UpdatedAt.After(results[j].Item.UpdatedAt)
		}
		return results[i].Item.ID < results[j].Item.ID
	})

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
