package quiz

import "strings"

// DefaultChunkWords bounds the prompt fed to the model.
const DefaultChunkWords = 300

// Chunk splits text into consecutive, non-overlapping windows of at most
// maxWords words. Empty text yields no windows.
func Chunk(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
