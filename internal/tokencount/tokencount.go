package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once    sync.Once
	encoder *tiktoken.Tiktoken
)

// Estimate returns the token count for a text. cl100k_base is used when the
// encoding is available; otherwise a bytes/4 heuristic keeps usage fields
// populated without network access to the BPE files.
func Estimate(text string) int {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoder = enc
		}
	})
	if encoder != nil {
		return len(encoder.Encode(text, nil, nil))
	}
	return heuristic(text)
}

func heuristic(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
