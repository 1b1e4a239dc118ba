package advisor

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/user/jarvisfi-go/apperror"
)

// Search defaults.
const (
	DefaultTopK      = 3
	DefaultThreshold = 0.3
)

const (
	builtinChunkWords = 200
	chunkSize         = 1000
	chunkOverlap      = 200
)

// Match is a chunk returned by Search.
type Match struct {
	DocID      string  `json:"doc_id"`
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type chunk struct {
	docID, title, source string
	index                int
	text                 string
	vec                  map[string]float64
}

// KnowledgeBase is an in-memory store of guideline chunks ranked by the
// cosine similarity of their term-frequency vectors.
type KnowledgeBase struct {
	mu     sync.RWMutex
	chunks []chunk
	docs   map[string]bool
}

var builtinDocuments = []struct {
	id, title, source, text string
}{
	{
		"rbi_savings_guidelines", "RBI Guidelines on Savings Accounts", "Reserve Bank of India",
		`RBI Guidelines on Savings Accounts:
- Minimum balance requirements vary by bank type
- Interest rates are deregulated for savings accounts
- KYC compliance is mandatory for all accounts
- Dormant accounts are those with no transactions for 2 years`,
	},
	{
		"sebi_mutual_fund_rules", "SEBI Mutual Fund Regulations", "Securities and Exchange Board of India",
		`SEBI Mutual Fund Regulations:
- SIP investments can start from Rs. 500 per month
- Exit load applicable for redemptions within 1 year
- NAV calculation done daily for open-ended funds
- Risk disclosure mandatory for all schemes`,
	},
	{
		"tax_saving_instruments", "Income Tax Saving Instruments under Section 80C", "Income Tax Department",
		`Income Tax Saving Instruments under Section 80C:
- ELSS mutual funds: Lock-in period 3 years
- PPF: Lock-in period 15 years, tax-free returns
- NSC: 5-year lock-in, taxable interest
- Life insurance premiums: Up to Rs. 1.5 lakh deduction`,
	},
}

// NewKnowledgeBase returns a knowledge base seeded with the built-in RBI,
// SEBI and Income Tax guideline snippets.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{docs: make(map[string]bool)}
	for _, d := range builtinDocuments {
		kb.add(d.id, d.title, d.source, ChunkWords(d.text, builtinChunkWords))
	}
	return kb
}

// AddDocument chunks text and indexes it under id, replacing any document
// already stored with that id. It returns the number of chunks.
func (kb *KnowledgeBase) AddDocument(id, title, source, text string) (int, error) {
	id = strings.TrimSpace(id)
	text = strings.TrimSpace(text)
	if id == "" || text == "" {
		return 0, apperror.NewValidationError("document id and text are required", nil)
	}
	chunks := ChunkText(text, chunkSize, chunkOverlap)
	kb.add(id, title, source, chunks)
	return len(chunks), nil
}

func (kb *KnowledgeBase) add(id, title, source string, texts []string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.docs[id] {
		kept := kb.chunks[:0]
		for _, c := range kb.chunks {
			if c.docID != id {
				kept = append(kept, c)
			}
		}
		kb.chunks = kept
	}
	for i, t := range texts {
		kb.chunks = append(kb.chunks, chunk{
			docID: id, title: title, source: source, index: i, text: t, vec: termVector(t),
		})
	}
	kb.docs[id] = true
}

// Documents reports how many documents are indexed.
func (kb *KnowledgeBase) Documents() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.docs)
}

// Search returns up to topK chunks with similarity at least threshold, best
// first. Non-positive arguments take the defaults.
func (kb *KnowledgeBase) Search(query string, topK int, threshold float64) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	q := termVector(query)
	out := []Match{}
	if len(q) == 0 {
		return out
	}

	kb.mu.RLock()
	for _, c := range kb.chunks {
		sim := cosine(q, c.vec)
		if sim < threshold {
			continue
		}
		out = append(out, Match{
			DocID:      c.docID,
			Title:      c.title,
			Source:     c.source,
			ChunkIndex: c.index,
			Content:    c.text,
			Similarity: math.Round(sim*1e4) / 1e4,
		})
	}
	kb.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Confidence scores an answer backed by docs supporting documents.
func Confidence(query string, docs int) float64 {
	c := 0.7 + math.Min(0.2, 0.1*float64(docs))
	if len(strings.Fields(query)) > 10 {
		c -= 0.1
	}
	c = math.Max(0.3, math.Min(0.95, c))
	return math.Round(c*100) / 100
}

// ChunkWords splits text into chunks of at most size words.
func ChunkWords(text string, size int) []string {
	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

// ChunkText splits text into windows of size runes that overlap by overlap
// runes. A window ends early after a period that falls in its last fifth.
func ChunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			for i := end - 1; i >= end-size/5 && i > start; i-- {
				if runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}
		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			out = append(out, c)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
}

// termVector is the L2-normalized term frequency of text's tokens.
func termVector(text string) map[string]float64 {
	vec := make(map[string]float64)
	for _, t := range tokenize(text) {
		vec[t]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for k, v := range vec {
		vec[k] = v / norm
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for k, v := range a {
		dot += v * b[k]
	}
	return dot
}
