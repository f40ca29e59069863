package ai

import "strings"

// NotFoundAnswer is the sentence the model is asked to use when the document
// does not contain the answer.
const NotFoundAnswer = "I cannot find that information in the document."

const documentPromptTemplate = `Based on this PDF content:
{context}

Question: {question}

Provide a detailed answer using markdown formatting. Include:

Headers where appropriate (using #, ##, ###)
Lists (using * for bullet points)
Bold for emphasis
Italics for technical terms
code for any technical elements

If the information isn't in the document, say "` + NotFoundAnswer + `"
`

// BuildPrompt embeds question and document text in the answering template.
// Without document text the question is returned unchanged.
func BuildPrompt(question, docText string) string {
	if docText == "" {
		return question
	}
	// single pass so a literal "{question}" inside the document stays untouched
	return strings.NewReplacer("{context}", docText, "{question}", question).Replace(documentPromptTemplate)
}
