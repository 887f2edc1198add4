// Package textvec turns texts into fixed-width vectors by hashing their tokens.
package textvec

import (
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

func loadEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, hashing words instead", "encoding", encodingName, "error", err)
			return
		}
		encoder = enc
	})
	return encoder
}

// Vectorizer maps texts to L2-normalized bag-of-token vectors of a fixed dimension.
type Vectorizer struct {
	dim int
}

// New returns a Vectorizer producing dim-wide vectors. dim below 1 is treated as 1.
func New(dim int) *Vectorizer {
	if dim < 1 {
		dim = 1
	}
	return &Vectorizer{dim: dim}
}

// Dim returns the vector width.
func (v *Vectorizer) Dim() int { return v.dim }

// Vectorize returns one vector per text. Token ids of the cl100k_base
// encoding are counted into bucket id mod dim; without the encoding,
// lower-cased words are FNV-hashed into buckets.
func (v *Vectorizer) Vectorize(texts []string) [][]float64 {
	enc := loadEncoder()
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, v.dim)
		if enc != nil {
			for _, id := range enc.Encode(text, nil, nil) {
				vec[id%v.dim]++
			}
		} else {
			for _, word := range strings.Fields(strings.ToLower(text)) {
				vec[wordBucket(word, v.dim)]++
			}
		}
		out[i] = Normalize(vec)
	}
	return out
}

func wordBucket(word string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(word))
	return int(h.Sum32() % uint32(dim))
}

// Normalize returns v scaled to unit length; a zero vector stays zero.
func Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
