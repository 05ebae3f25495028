package analysis

import "strings"

// subject is the file being classified. name and body are lower-cased;
// raw is the content as written.
type subject struct {
	name, body, raw string
}

type rule struct {
	category Category
	match    func(f subject) bool
}

func nameHas(subs ...string) func(f subject) bool {
	return func(f subject) bool { return containsAny(f.name, subs) }
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{CategoryAPI, func(f subject) bool {
		return containsAny(f.name, []string{"api", "route"}) ||
			containsAny(f.raw, []string{"app.get(", "app.post("})
	}},
	{CategoryFrontend, func(f subject) bool {
		return strings.Contains(f.name, "component") ||
			containsAny(f.body, []string{"react", "props", "jsx"})
	}},
	{CategoryDatabase, func(f subject) bool {
		return containsAny(f.body, []string{"schema", "model"}) ||
			strings.Contains(f.name, "repository")
	}},
	{CategoryService, nameHas("service", "client")},
	{CategoryUtility, nameHas("util", "helper")},
}

// Classify derives the category of a file from its name and content.
// Keywords match case-insensitively, except the Express handler calls
// app.get( and app.post( which must appear exactly. Unmatched files are General.
func Classify(fileName, content string) Category {
	f := subject{name: strings.ToLower(fileName), body: strings.ToLower(content), raw: content}
	for _, r := range rules {
		if r.match(f) {
			return r.category
		}
	}
	return CategoryGeneral
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
