// Package analysis turns a source file into a mind-map tree by prompting an
// LLM for a semi-structured outline and parsing the answer.
package analysis

// Category is the coarse role of a file, used to pick prompt focus hints.
type Category string

const (
	CategoryAPI      Category = "API"
	CategoryFrontend Category = "Frontend"
	CategoryDatabase Category = "Database"
	CategoryService  Category = "Service"
	CategoryUtility  Category = "Utility"
	CategoryGeneral  Category = "General"
)

// FileAnalysis is the parsed outline of one file: a short overview and an
// ordered list of branches.
type FileAnalysis struct {
	Overview string   `json:"overview"`
	Branches []Branch `json:"branches"`
}

// Branch is a top-level mind-map node. SubBranches may be empty.
type Branch struct {
	Name        string   `json:"name"`
	SubBranches []string `json:"subBranches"`
}

// Request identifies the file to analyze.
type Request struct {
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
	Content       string `json:"content"`
}

// Result is an analysis plus the accounting of the call that produced it.
type Result struct {
	FileName     string
	Category     Category
	Analysis     FileAnalysis
	InputTokens  int
	OutputTokens int
	Truncated    bool
	// OmittedTokens estimates the tokens cut from the content by truncation.
	OmittedTokens int
}
