package llm

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the generation prompt. With context documents the
// model is constrained to answer from them; each document is labeled by
// position so the model can be steered toward specific passages.
func BuildPrompt(question string, contextDocs []string) string {
	if len(contextDocs) == 0 {
		return fmt.Sprintf(
			"You are a helpful assistant. Answer the question directly.\n\nQuestion: %s\n\nAnswer:",
			question,
		)
	}

	labeled := make([]string, len(contextDocs))
	for i, doc := range contextDocs {
		labeled[i] = fmt.Sprintf("Document %d:\n%s", i+1, doc)
	}

	return fmt.Sprintf(
		"You are a helpful assistant. Use ONLY the provided documents.\n\n%s\n\nQuestion: %s\n\nAnswer:",
		strings.Join(labeled, "\n\n"),
		question,
	)
}
