package services

import "fmt"

// publicChatPrompt forbids any use of personal data; the public mode
// never injects any, this is defense in depth at the prompt level.
const publicChatPrompt = `You are a careful medical information assistant for a personal health application.
Answer general medical questions using the reference and web evidence provided in the context.
You must NOT reference any personal data, patient records, names, or dates - none are available to you.
Explain in plain language, note when professional consultation is warranted, and never present yourself as a substitute for a doctor.`

// privateChatPrompt instructs the model to ground answers in the
// patient's actual records.
const privateChatPrompt = `You are a careful medical information assistant for a personal health application.
The context contains the patient's profile, recent health records, and retrieved medical evidence.
When the records are relevant, reference them specifically, including their dates and details (for example "your lab report from 2024-03-02").
Ground every claim either in the supplied records or in the retrieved evidence.
Explain in plain language, note when professional consultation is warranted, and never present yourself as a substitute for a doctor.`

// summaryPrompt asks for a structured record summary.
const summaryPrompt = `You are a medical summarization assistant.
Summarize the health record in the context as a short structured report with these sections:
**Overview**, **Findings**, **Medications**, **Recommendations**.
Use only the record, its documents, and the web evidence provided. Keep it factual and concise.`

// ChatSystemPrompt selects the system message for a chat mode.
func ChatSystemPrompt(mode Mode) string {
	if mode == ModePrivate {
		return privateChatPrompt
	}
	return publicChatPrompt
}

// SummarySystemPrompt is the fixed system message for record summaries.
func SummarySystemPrompt() string {
	return summaryPrompt
}

// BuildUserPrompt joins the enriched context with the user's question.
func BuildUserPrompt(enhancedContext, query string) string {
	if enhancedContext == "" {
		return fmt.Sprintf("Question: %s", query)
	}
	return fmt.Sprintf("%s\n\nQuestion: %s", enhancedContext, query)
}
