package analysis

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every analysis request.
const SystemPrompt = "You are a code analyzer that creates structured mindmaps from source code files."

const promptHeader = `
Analyze the following %s file named '%s' (Category: %s) and create a structured mindmap representation.
The root node is the file name. Create branches for the major component categories and list the concrete implementations as sub-branches.
Answer in exactly this format:

OVERVIEW: A brief 2-3 sentence summary of the file's purpose and category (e.g., API, Frontend, Database, etc.).

BRANCHES:
- [Major Component Category]
  - [Specific Implementation]
  - [Specific Implementation]
- [Another Major Category]
  - [Specific Implementation]
  - [Specific Implementation]

File content:
`

// FocusHint is one "Focus on" bullet: a branch name the model should
// consider, plus a short description of what belongs under it.
type FocusHint struct {
	Name string
	Hint string
}

var focusHints = map[Category][]FocusHint{
	CategoryAPI: {
		{"Endpoints", "list all routes/endpoints"},
		{"Request Handlers", "specific handler functions"},
		{"Middleware", "authentication, validation, etc."},
		{"External Services", "API clients, database connections"},
		{"Error Handling", "error cases and responses"},
	},
	CategoryFrontend: {
		{"Components", "React/Vue components"},
		{"Hooks", "custom hooks, effect hooks"},
		{"State Management", "contexts, stores"},
		{"Event Handlers", "user interactions"},
		{"UI Elements", "reusable UI parts"},
	},
	CategoryDatabase: {
		{"Schema Definitions", "models, types"},
		{"Queries", "database operations"},
		{"Relationships", "model associations"},
		{"Migrations", "schema changes"},
		{"Utilities", "database helpers"},
	},
	CategoryService: {
		{"Service Methods", "API methods"},
		{"Configuration", "service setup"},
		{"Authentication", "auth methods"},
		{"Data Processing", "transformations"},
		{"Error Handling", "error cases"},
	},
	CategoryUtility: {
		{"Helper Functions", "utilities"},
		{"Constants", "configuration"},
		{"Types/Interfaces", "type definitions"},
		{"Shared Logic", "common functions"},
		{"Tools", "specific tools/utilities"},
	},
	CategoryGeneral: {
		{"Major Functions", "key functionality"},
		{"Types/Interfaces", "data structures"},
		{"Logic Groups", "related code"},
		{"Dependencies", "external modules"},
		{"Utilities", "helper functions"},
	},
}

// FocusHints returns the focus bullets for a category. Unknown categories
// get the General list.
func FocusHints(c Category) []FocusHint {
	if hints, ok := focusHints[c]; ok {
		return hints
	}
	return focusHints[CategoryGeneral]
}

// BuildPrompt renders the user message for one file. The content is
// embedded verbatim.
func BuildPrompt(fileName, fileExtension, content string, c Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, fileExtension, fileName, c)
	b.WriteString("```\n")
	b.WriteString(content)
	b.WriteString("\n```\n\nFocus on:\n")
	for _, h := range FocusHints(c) {
		fmt.Fprintf(&b, "- %s (%s)\n", h.Name, h.Hint)
	}
	return b.String()
}
