// Package tokens counts tokens and tracks token budgets for prompt assembly.
package tokens

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the GPT-4 encoding, a good approximation for all providers.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in a string for one fixed encoding.
type Counter interface {
	Count(s string) int
}

// Tokenizer wraps tiktoken for token counting.
type Tokenizer struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTokenizer creates a Tokenizer for the named encoding.
// An empty name selects DefaultEncoding.
func NewTokenizer(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %q: %w", encoding, err)
	}
	return &Tokenizer{enc: enc, encoding: encoding}, nil
}

// Encoding returns the encoding name.
func (t *Tokenizer) Encoding() string { return t.encoding }

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	if s == "" {
		return 0
	}
	return len(t.enc.Encode(s, nil, nil))
}

// Truncate truncates s to at most maxTokens tokens, returning the result.
// A negative maxTokens is treated as zero.
func (t *Tokenizer) Truncate(s string, maxTokens int) string {
	if maxTokens < 0 {
		maxTokens = 0
	}
	tokens := t.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return t.enc.Decode(tokens[:maxTokens])
}
