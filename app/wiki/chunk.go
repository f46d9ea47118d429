package wiki

import "strings"

// Chunk splits text into word-bounded pieces of at most budget
// characters. A single word longer than the budget becomes its own
// chunk rather than being split mid-word.
func Chunk(text string, budget int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || budget <= 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if current.Len()+1+len(word) > budget {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(word)
			continue
		}
		current.WriteByte(' ')
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
