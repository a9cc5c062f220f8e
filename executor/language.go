package executor

import "strings"

// Language identifies the language a snippet is written in.
type Language string

// Known snippet languages. Only some of them have an Executor.
const (
	KQL        Language = "kql"
	SQL        Language = "sql"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Rust       Language = "rust"
	CPP        Language = "cpp"
	C          Language = "c"
	Java       Language = "java"
	Go         Language = "go"
	Ruby       Language = "ruby"
	PHP        Language = "php"
	CSharp     Language = "csharp"
	HTML       Language = "html"
	CSS        Language = "css"
	YAML       Language = "yaml"
	JSON       Language = "json"
	XML        Language = "xml"
	Markdown   Language = "markdown"
	Shell      Language = "shell"
)

var knownLanguages = []Language{
	KQL, SQL, Python, JavaScript, TypeScript, Rust, CPP, C, Java, Go,
	Ruby, PHP, CSharp, HTML, CSS, YAML, JSON, XML, Markdown, Shell,
}

// Languages returns every known snippet language.
func Languages() []Language {
	out := make([]Language, len(knownLanguages))
	copy(out, knownLanguages)
	return out
}

// Known reports whether l is one of the known snippet languages.
func (l Language) Known() bool {
	for _, k := range knownLanguages {
		if k == l {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// Normalize maps a language to the identity of the executor that runs it.
// TypeScript shares the JavaScript interpreter; there is no type checking.
func Normalize(l Language) Language {
	l = Language(strings.ToLower(strings.TrimSpace(string(l))))
	if l == TypeScript {
		return JavaScript
	}
	return l
}

// Parse resolves user input such as "js" or "py" to a Language.
// Unknown names are returned lowercased so callers can still report them.
func Parse(name string) Language {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "js", "mjs", "node":
		return JavaScript
	case "ts":
		return TypeScript
	case "py", "python3":
		return Python
	case "sh", "bash":
		return Shell
	case "c++":
		return CPP
	case "c#", "cs":
		return CSharp
	case "yml":
		return YAML
	case "md":
		return Markdown
	}
	return Language(name)
}

// FromExtension guesses a Language from a file extension (with or without
// the leading dot). It returns "" when nothing matches.
func FromExtension(ext string) Language {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "py":
		return Python
	case "js", "mjs", "cjs":
		return JavaScript
	case "ts", "mts":
		return TypeScript
	case "kql":
		return KQL
	case "sql":
		return SQL
	case "rs":
		return Rust
	case "cpp", "cc", "cxx", "hpp":
		return CPP
	case "c", "h":
		return C
	case "java":
		return Java
	case "go":
		return Go
	case "rb":
		return Ruby
	case "php":
		return PHP
	case "cs":
		return CSharp
	case "html", "htm":
		return HTML
	case "css":
		return CSS
	case "yaml", "yml":
		return YAML
	case "json":
		return JSON
	case "xml":
		return XML
	case "md":
		return Markdown
	case "sh", "bash":
		return Shell
	}
	return ""
}
