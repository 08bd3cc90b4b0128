package embedding

import (
	"strings"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	clsTokenID = 101
	sepTokenID = 102
)

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs.
// It is only useful when no vocabulary file is available; embeddings it feeds are not semantically meaningful.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := strings.Fields(text)
	ids := make([]int64, 0, len(words))
	for _, word := range words {
		ids = append(ids, int64(HashString(word)%30000))
	}
	return frame(ids, maxTokens, clsTokenID, sepTokenID, 0)
}

// frame wraps ids in [CLS] ... [SEP], truncating and padding to maxTokens.
func frame(ids []int64, maxTokens int, cls, sep, pad int64) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	if len(ids) > maxTokens-2 {
		ids = ids[:maxTokens-2]
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sep
	attentionMask[pos] = 1
	for i := pos + 1; i < maxTokens; i++ {
		inputIDs[i] = pad
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
