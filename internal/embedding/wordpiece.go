package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxCharsPerWord = 100

// WordPieceTokenizer is an uncased BERT WordPiece tokenizer driven by a vocab.txt file,
// as shipped with sentence-transformers models such as all-MiniLM-L6-v2.
type WordPieceTokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	unk   int64
	pad   int64
}

// LoadWordPieceTokenizer reads a vocabulary with one token per line; the line number is the token ID.
func LoadWordPieceTokenizer(vocabPath string) (*WordPieceTokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return NewWordPieceTokenizer(tokens)
}

// NewWordPieceTokenizer builds a tokenizer from an ordered token list.
func NewWordPieceTokenizer(tokens []string) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = int64(i)
		}
	}
	t := &WordPieceTokenizer{vocab: vocab}
	for name, dst := range map[string]*int64{"[CLS]": &t.cls, "[SEP]": &t.sep, "[UNK]": &t.unk, "[PAD]": &t.pad} {
		id, ok := vocab[name]
		if !ok {
			return nil, fmt.Errorf("vocab is missing special token %s", name)
		}
		*dst = id
	}
	return t, nil
}

// Tokenize lowercases, strips accents, splits on whitespace and punctuation, and applies
// greedy longest-match-first WordPiece. Output is framed and padded to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicTokenize(text) {
		ids = append(ids, t.wordPiece(word)...)
		if maxTokens > 2 && len(ids) >= maxTokens-2 {
			break
		}
	}
	return frame(ids, maxTokens, t.cls, t.sep, t.pad)
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxCharsPerWord {
		return []int64{t.unk}
	}
	var out []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := int64(-1)
		for start < end {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// basicTokenize performs BERT's uncased pre-tokenization.
func basicTokenize(text string) []string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r) && !unicode.IsSpace(r):
			continue
		case isPunctuation(r) || unicode.Is(unicode.Han, r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

// isPunctuation treats all non-alphanumeric ASCII symbols as punctuation, as BERT does.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
