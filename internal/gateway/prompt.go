package gateway

import "strings"

// systemPrompt sets the provider's role for every interview answer.
const systemPrompt = "You are a helpful interview assistant. Provide clear, professional answers that help the candidate succeed in their job interview."

// buildPrompt assembles the user prompt from the question and its context.
// At most the last PromptTranscriptWindow transcript entries are embedded.
func buildPrompt(question string, qctx Context) string {
	var b strings.Builder

	if qctx.ResumeSummary != "" {
		b.WriteString("Based on the following candidate background:\n")
		b.WriteString(qctx.ResumeSummary)
		b.WriteString("\n\n")
	}

	if qctx.Hints != "" {
		b.WriteString("Additional context from the interview:\n")
		b.WriteString(qctx.Hints)
		b.WriteString("\n\n")
	}

	transcript := qctx.Transcript
	if len(transcript) > PromptTranscriptWindow {
		transcript = transcript[len(transcript)-PromptTranscriptWindow:]
	}
	if len(transcript) > 0 {
		b.WriteString("Previous conversation context:\n")
		for _, entry := range transcript {
			b.WriteString(entry.Speaker)
			b.WriteString(": ")
			b.WriteString(entry.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")

	lang := qctx.Language
	if lang == "" {
		lang = "en"
	}
	b.WriteString("Please provide a clear, concise, and professional answer in ")
	b.WriteString(lang)
	b.WriteString(". If relevant, relate your answer to your experience and background.")

	return b.String()
}
