// Package extractor parses source files with tree-sitter and produces the
// symbol/identifier/relationship graph the rest of the index is built on.
package extractor

// SymbolKind classifies a declaration site.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolConstant  SymbolKind = "constant"
	SymbolVariable  SymbolKind = "variable"
)

// Position is a zero-indexed line/column location within a file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Symbol is a named declaration extracted from a source file.
type Symbol struct {
	// ID is sha256(path + "\x00" + kind + "\x00" + name + "\x00" + startByte)[:16]
	// hex-encoded, stable across re-extraction as long as the declaration's
	// textual position does not shift.
	ID         string     `json:"id"`
	FilePath   string     `json:"file_path"`
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	Language   string     `json:"language"`
	Signature  string     `json:"signature"`
	DocComment string     `json:"doc_comment,omitempty"`
	Start      Position   `json:"start"`
	End        Position   `json:"end"`
	StartByte  uint32     `json:"-"`
	EndByte    uint32     `json:"-"`
	// ParentID is the enclosing symbol's ID (e.g. a method's owning class),
	// empty for top-level declarations.
	ParentID string `json:"parent_id,omitempty"`
	// ExportedAPI is true when the declaration is part of the package/module's
	// public surface (capitalized in Go, `export` in TS/JS, no leading
	// underscore in Python).
	ExportedAPI bool `json:"exported_api"`
}

// IdentifierKind classifies an identifier occurrence within a symbol's body.
type IdentifierKind string

const (
	IdentifierReference IdentifierKind = "reference"
	IdentifierCall      IdentifierKind = "call"
	IdentifierImport    IdentifierKind = "import"
)

// Identifier is one occurrence of a name being used inside a symbol's body.
type Identifier struct {
	Name          string         `json:"name"`
	Kind          IdentifierKind `json:"kind"`
	FilePath      string         `json:"file_path"`
	ContainingID  string         `json:"containing_symbol_id"`
	Position      Position       `json:"position"`
}

// RelationshipKind classifies an edge between two symbols.
type RelationshipKind string

const (
	RelationCall      RelationshipKind = "call"
	RelationImport    RelationshipKind = "import"
	RelationExtends   RelationshipKind = "extends"
	RelationImplements RelationshipKind = "implements"
	RelationReference RelationshipKind = "reference"
)

// Relationship is a directed edge from one symbol/file to another. ToSymbolID
// is empty when the target could not be resolved at extraction time (cross-file
// resolution happens later in storage, per naming-variant matching).
type Relationship struct {
	FromSymbolID string           `json:"from_symbol_id"`
	ToSymbolID   string           `json:"to_symbol_id,omitempty"`
	ToName       string           `json:"to_name"`
	Kind         RelationshipKind `json:"kind"`
	FilePath     string           `json:"file_path"`
	Position     Position         `json:"position"`
}

// Import is a module/package import statement, tracked separately from
// relationships so the import-validation query (§4.7.9) can check it against
// the target workspace's actual module graph without first resolving symbols.
type Import struct {
	FilePath   string   `json:"file_path"`
	Path       string   `json:"path"`
	Alias      string   `json:"alias,omitempty"`
	Position   Position `json:"position"`
}

// Result is everything extracted from one file.
type Result struct {
	FilePath      string
	Language      string
	Symbols       []Symbol
	Identifiers   []Identifier
	Relationships []Relationship
	Imports       []Import
	// Malformed is true when the parser produced an error node anywhere in the
	// tree; the file is still indexed best-effort (per spec's Malformed kind —
	// partial results are kept, not discarded).
	Malformed bool
}
