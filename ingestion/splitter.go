package ingestion

import "strings"

// SplitFunc turns raw text into ordered chunks of at most size characters
// where neighboring chunks share overlap characters.
type SplitFunc func(text string, size, overlap int) []string

// SplitText walks the text with a fixed sliding window over runes. Window
// i+1 starts size-overlap runes after window i, so adjacent chunks share
// exactly overlap runes; the final chunk may be shorter than size.
// Invalid parameters (size <= overlap or negative overlap) yield no chunks,
// as does blank input.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	step := size - overlap

	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
