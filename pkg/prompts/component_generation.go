// Package prompts builds the prompt text sent to the generation gateway.
package prompts

import (
	"fmt"
	"strings"
)

// ComponentSystemPrompt instructs the model to emit React/Tailwind source
// wrapped in the JSON envelope the refinement loop parses.
const ComponentSystemPrompt = `You are an expert React engineer. You generate single-file React components styled with Tailwind CSS.

Respond with a single JSON object and nothing else:
{
  "code": "<the complete component source as a string>",
  "changed": <true if you produced a new or modified component, false if the request required no change>,
  "actions": ["<up to four short follow-up refinement suggestions>"]
}

Rules:
- The component must be a self-contained default export with no imports beyond React.
- Use Tailwind utility classes for all styling.
- When existing code is provided, modify it to satisfy the request and set "changed" accordingly; if the request is already satisfied, return the code unchanged with "changed": false.
- Never wrap the JSON in markdown fences or add commentary.`

// BuildGenerationPrompt creates the user prompt for a generation request.
// existingCode is empty for initial generations; for refinements it carries
// the live edit buffer, which may differ from the last saved version.
func BuildGenerationPrompt(request string, existingCode string) string {
	var prompt strings.Builder

	if existingCode == "" {
		prompt.WriteString("Create a React component for the following description.\n\n")
		prompt.WriteString(fmt.Sprintf("Description: %s\n", request))
		return prompt.String()
	}

	prompt.WriteString("Update the following React component.\n\n")
	prompt.WriteString("Current source:\n")
	prompt.WriteString("```\n")
	prompt.WriteString(existingCode)
	if !strings.HasSuffix(existingCode, "\n") {
		prompt.WriteString("\n")
	}
	prompt.WriteString("```\n\n")
	prompt.WriteString(fmt.Sprintf("Requested change: %s\n", request))
	return prompt.String()
}
