package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"forumflow/internal/events"
	"forumflow/internal/search/tokenizer"
)

// IndexHealth mirrors the usual cluster-status trichotomy. The
// in-memory index only ever degrades, it does not go red, but the
// health surface keeps all three values so the contract matches an
// external engine.
type IndexHealth string

const (
	HealthGreen  IndexHealth = "green"
	HealthYellow IndexHealth = "yellow"
	HealthRed    IndexHealth = "red"
)

// Index is an in-memory inverted index over forum content. A single
// RWMutex isolates readers from writers at document granularity:
// a reader sees a document before or after an update, never mid-merge.
type Index struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	terms map[string]map[string]int // term -> docID -> frequency
}

func NewIndex() *Index {
	return &Index{
		docs:  make(map[string]*Document),
		terms: make(map[string]map[string]int),
	}
}

// Upsert creates or fully replaces the document. Replaying the same
// event converges to the same state.
func (ix *Index) Upsert(p events.ContentPayload, now time.Time) {
	id := DocumentID(p.ContentType, p.ContentID)
	doc := documentFromPayload(p, now)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if prev, ok := ix.docs[id]; ok {
		doc.CreatedAt = prev.CreatedAt
		ix.removeTerms(id, prev)
	}
	ix.docs[id] = &doc
	ix.addTerms(id, &doc)
}

// Merge applies a partial update: only fields present in the payload
// change. If the document does not exist yet (update arrived before or
// instead of the create) a partial document is built from the given
// fields.
func (ix *Index) Merge(p events.ContentPayload, now time.Time) {
	id := DocumentID(p.ContentType, p.ContentID)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	prev, ok := ix.docs[id]
	if !ok {
		doc := documentFromPayload(p, now)
		ix.docs[id] = &doc
		ix.addTerms(id, &doc)
		return
	}

	doc := *prev
	if p.ForumID != "" {
		doc.ForumID = p.ForumID
	}
	if p.AuthorID != "" {
		doc.AuthorID = p.AuthorID
	}
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Body != nil {
		doc.Body = *p.Body
	}
	if p.Tags != nil {
		doc.Tags = append([]string(nil), p.Tags...)
	}
	doc.UpdatedAt = now

	ix.removeTerms(id, prev)
	ix.docs[id] = &doc
	ix.addTerms(id, &doc)
}

// Delete removes the document. Deleting something that is not there is
// a no-op, so replays and out-of-order deletes are safe.
func (ix *Index) Delete(contentType, contentID string) {
	id := DocumentID(contentType, contentID)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc, ok := ix.docs[id]
	if !ok {
		return
	}
	ix.removeTerms(id, doc)
	delete(ix.docs, id)
}

func (ix *Index) Get(contentType, contentID string) (Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.docs[DocumentID(contentType, contentID)]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func (ix *Index) Health() IndexHealth {
	return HealthGreen
}

// Filters narrows a search to matching document fields. Empty fields
// do not filter.
type Filters struct {
	ContentType string
	ForumID     string
	AuthorID    string
}

func (f Filters) match(doc *Document) bool {
	if f.ContentType != "" && doc.ContentType != f.ContentType {
		return false
	}
	if f.ForumID != "" && doc.ForumID != f.ForumID {
		return false
	}
	if f.AuthorID != "" && doc.AuthorID != f.AuthorID {
		return false
	}
	return true
}

// Result is one ranked hit.
type Result struct {
	Document
	Score float64 `json:"score"`
}

// Search ranks documents matching at least one query term by summed
// term frequency, breaking ties by recency and then id so pagination
// is stable. It returns the requested page and the total match count.
func (ix *Index) Search(query string, filters Filters, limit, offset int) ([]Result, int) {
	terms := tokenizer.Terms(query)
	if len(terms) == 0 {
		return nil, 0
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]float64)
	for _, term := range terms {
		for docID, freq := range ix.terms[term] {
			scores[docID] += float64(freq)
		}
	}

	matches := make([]Result, 0, len(scores))
	for docID, score := range scores {
		doc := ix.docs[docID]
		if !filters.match(doc) {
			continue
		}
		matches = append(matches, Result{Document: *doc, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if !matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
		}
		return DocumentID(matches[i].ContentType, matches[i].ContentID) <
			DocumentID(matches[j].ContentType, matches[j].ContentID)
	})

	total := len(matches)
	if offset >= total {
		return []Result{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total
}

// Suggest returns up to limit distinct titles containing a word that
// starts with the given prefix, ordered alphabetically.
func (ix *Index) Suggest(prefix string, contentType string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, limit)
	for _, doc := range ix.docs {
		if contentType != "" && doc.ContentType != contentType {
			continue
		}
		if doc.Title == "" {
			continue
		}
		if _, dup := seen[doc.Title]; dup {
			continue
		}
		if !titleMatchesPrefix(doc.Title, prefix) {
			continue
		}
		seen[doc.Title] = struct{}{}
		suggestions = append(suggestions, doc.Title)
	}

	sort.Strings(suggestions)
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func titleMatchesPrefix(title, prefix string) bool {
	for _, word := range strings.Fields(strings.ToLower(title)) {
		if strings.HasPrefix(word, prefix) {
			return true
		}
	}
	return false
}

func (ix *Index) addTerms(docID string, doc *Document) {
	for term, freq := range termFrequencies(doc) {
		posting, ok := ix.terms[term]
		if !ok {
			posting = make(map[string]int)
			ix.terms[term] = posting
		}
		posting[docID] = freq
	}
}

func (ix *Index) removeTerms(docID string, doc *Document) {
	for term := range termFrequencies(doc) {
		posting, ok := ix.terms[term]
		if !ok {
			continue
		}
		delete(posting, docID)
		if len(posting) == 0 {
			delete(ix.terms, term)
		}
	}
}

func termFrequencies(doc *Document) map[string]int {
	text := doc.Title + " " + doc.Body + " " + strings.Join(doc.Tags, " ")
	freqs := make(map[string]int)
	for _, term := range tokenizer.Terms(text) {
		freqs[term]++
	}
	return freqs
}
