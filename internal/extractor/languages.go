package extractor

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig names the tree-sitter node types that delimit each kind of
// declaration (and call/import expression) for one language.
type LanguageConfig struct {
	Name           string
	Extensions     []string
	FunctionTypes  []string
	MethodTypes    []string
	ClassTypes     []string
	InterfaceTypes []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string
	// CallTypes are call-expression node types harvested as RelationCall edges.
	CallTypes []string
	// ImportTypes are import/require statement node types.
	ImportTypes []string
	// IdentifierType is the leaf node type representing a bare name reference.
	IdentifierType string
	// NameField is the tree-sitter field name holding a declaration's identifier.
	NameField string
}

// LanguageRegistry maps file extensions and language names to their configs
// and compiled tree-sitter grammars.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry with Go/TypeScript/TSX/JavaScript/JSX/Python.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	return r
}

func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

func (r *LanguageRegistry) registerLanguage(cfg *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
	r.tsLanguages[cfg.Name] = tsLang
	for _, ext := range cfg.Extensions {
		r.extToLang[ext] = cfg.Name
	}
}

func (r *LanguageRegistry) registerGo() {
	cfg := &LanguageConfig{
		Name:           "go",
		Extensions:     []string{".go"},
		FunctionTypes:  []string{"function_declaration"},
		MethodTypes:    []string{"method_declaration"},
		ClassTypes:     []string{},
		TypeDefTypes:   []string{"type_declaration"},
		InterfaceTypes: []string{},
		ConstantTypes:  []string{"const_declaration"},
		VariableTypes:  []string{"var_declaration"},
		CallTypes:      []string{"call_expression"},
		ImportTypes:    []string{"import_declaration"},
		IdentifierType: "identifier",
		NameField:      "name",
	}
	r.registerLanguage(cfg, golang.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	ts := &LanguageConfig{
		Name:           "typescript",
		Extensions:     []string{".ts"},
		FunctionTypes:  []string{"function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		InterfaceTypes: []string{"interface_declaration"},
		TypeDefTypes:   []string{"type_alias_declaration"},
		ConstantTypes:  []string{"lexical_declaration"},
		VariableTypes:  []string{"variable_declaration"},
		CallTypes:      []string{"call_expression"},
		ImportTypes:    []string{"import_statement"},
		IdentifierType: "identifier",
		NameField:      "name",
	}
	r.registerLanguage(ts, typescript.GetLanguage())

	tsxCfg := *ts
	tsxCfg.Name = "tsx"
	tsxCfg.Extensions = []string{".tsx"}
	r.registerLanguage(&tsxCfg, tsx.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	js := &LanguageConfig{
		Name:           "javascript",
		Extensions:     []string{".js", ".mjs"},
		FunctionTypes:  []string{"function_declaration", "function"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		InterfaceTypes: []string{},
		TypeDefTypes:   []string{},
		ConstantTypes:  []string{"lexical_declaration"},
		VariableTypes:  []string{"variable_declaration"},
		CallTypes:      []string{"call_expression"},
		ImportTypes:    []string{"import_statement"},
		IdentifierType: "identifier",
		NameField:      "name",
	}
	r.registerLanguage(js, javascript.GetLanguage())

	jsx := *js
	jsx.Name = "jsx"
	jsx.Extensions = []string{".jsx"}
	r.registerLanguage(&jsx, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerPython() {
	cfg := &LanguageConfig{
		Name:           "python",
		Extensions:     []string{".py"},
		FunctionTypes:  []string{"function_definition"},
		MethodTypes:    []string{},
		ClassTypes:     []string{"class_definition"},
		InterfaceTypes: []string{},
		TypeDefTypes:   []string{},
		ConstantTypes:  []string{},
		VariableTypes:  []string{"assignment"},
		CallTypes:      []string{"call"},
		ImportTypes:    []string{"import_statement", "import_from_statement"},
		IdentifierType: "identifier",
		NameField:      "name",
	}
	r.registerLanguage(cfg, python.GetLanguage())
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the shared, read-only language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
