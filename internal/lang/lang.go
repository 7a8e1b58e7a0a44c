// Package lang declares the language tags used across the engine to route
// files to parsers and rules to files.
//
// This replaces the ZupIT-specific "horusec-devkit/pkg/enums/languages"
// dependency: that package only makes sense alongside the rest of the
// horusec-devkit module (auth, events, grpc types for the horusec
// platform) and pulling it in just for this one enum would drag in an
// unrelated, organization-specific dependency graph for no benefit.
package lang

// Language identifies the detected language/format of a source file.
type Language string

const (
	Unknown    Language = ""
	Dockerfile Language = "dockerfile"
	YAML       Language = "yaml"
	JSON       Language = "json"
	HCL        Language = "hcl"
	Python     Language = "python"
	Rust       Language = "rust"
	TypeScript Language = "typescript"
	Javascript Language = "javascript"
	Java       Language = "java"
	PHP        Language = "php"
	Go         Language = "go"
	Ruby       Language = "ruby"
)

// codeLanguages is the set of languages routed to the code parser rather
// than a document parser (§3 of the spec). Of these, only Javascript gets an
// AST/CFG (FileIR.Code); the others get a flat IR-Doc.
var codeLanguages = map[Language]bool{
	Python:     true,
	Rust:       true,
	TypeScript: true,
	Javascript: true,
	Java:       true,
	PHP:        true,
	Go:         true,
	Ruby:       true,
}

// IsCode reports whether l is one of the code languages, as opposed to a
// document language.
func (l Language) IsCode() bool { return codeLanguages[l] }

// String implements fmt.Stringer.
func (l Language) String() string { return string(l) }
