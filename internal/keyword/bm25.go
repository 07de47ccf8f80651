package keyword

import "math"

// MinIDF floors the inverse document frequency. Terms appearing in more
// than half the corpus would otherwise get a negative IDF and invert the
// ranking; they are clamped to a small positive weight instead.
const MinIDF = 1e-8

// Default BM25 parameters: k1 controls term-frequency saturation, b the
// strength of document-length normalization.
const (
	DefaultK1        = 1.5
	DefaultB         = 0.75
	DefaultThreshold = 1e-10
)

// Stats is the per-collection BM25 statistics cache. It is rebuilt whole by
// the indexer and read-only during querying.
type Stats struct {
	WordAppeared        map[string]int     `json:"wordAppeared"`
	TagAppeared         map[string]int     `json:"tagAppeared"`
	AverageDocLength    float64            `json:"averageDocLength"`
	AverageDocLengthTag float64            `json:"averageDocLengthTag"`
	TotalDocs           int                `json:"totalDocs"`
	IDF                 map[string]float64 `json:"idf"`
	IDFTag              map[string]float64 `json:"idfTag"`
	KeywordTrie         []FlatNode         `json:"keywordTrie"`
	KeywordTrieSize     int                `json:"keywordTrieSize"`
	TagTrie             []FlatNode         `json:"tagTrie"`
	TagTrieSize         int                `json:"tagTrieSize"`
}

// StatsKey returns the side-table key the stats cache for a collection is
// persisted under.
func StatsKey(collection string) string {
	return "bm25_" + collection
}

// ComputeIDF returns the floored inverse document frequency for a term
// appearing in docFreq of totalDocs documents.
func ComputeIDF(docFreq, totalDocs int) float64 {
	idf := math.Log((float64(totalDocs) - float64(docFreq) + 0.5) / (float64(docFreq) + 0.5))
	if idf < MinIDF {
		return MinIDF
	}
	return idf
}

// TermScore returns one term's BM25 contribution for a document with term
// frequency tf and length docLen, against corpus average length avgLen.
func TermScore(idf, tf, k1, b, docLen, avgLen float64) float64 {
	if avgLen <= 0 {
		avgLen = 1
	}
	return idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*docLen/avgLen))
}
