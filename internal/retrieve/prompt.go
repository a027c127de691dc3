package retrieve

import "strings"

// promptHeader instructs the model to stay inside the retrieved context and
// keep the bracketed page citations the context strings carry.
const promptHeader = "You are a precise assistant. Answer the question using ONLY the\n" +
	"provided context. Cite the relevant pages in brackets.\n\n"

// BuildPrompt assembles the final prompt: instruction header, context
// strings joined by blank lines, the question, and an answer cue. BuildPrompt
// never truncates; bounding the context is Retrieve's job.
func BuildPrompt(contexts []string, question string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:\n")
	return b.String()
}
