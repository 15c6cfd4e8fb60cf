package tokenizer

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GoLanguage tokenizes Go source
var GoLanguage = LanguageSpec{
	Name:       "go",
	Extensions: []string{".go"},
	Grammar:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(golang.Language()) },
	Skip:       []string{"comment"},
	Atomic:     []string{"interpreted_string_literal", "raw_string_literal", "rune_literal"},
	Classes: map[string]string{
		"identifier":                 "ID",
		"field_identifier":           "ID",
		"package_identifier":         "ID",
		"type_identifier":            "ID",
		"int_literal":                "NUM",
		"float_literal":              "NUM",
		"imaginary_literal":          "NUM",
		"raw_string_literal":         "STR",
		"interpreted_string_literal": "STR",
		"rune_literal":               "CHAR",
		"true":                       "BOOL",
		"false":                      "BOOL",
		"nil":                        "NIL",
	},
}

// PythonLanguage tokenizes Python source
var PythonLanguage = LanguageSpec{
	Name:       "python",
	Extensions: []string{".py", ".pyw"},
	Grammar:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(python.Language()) },
	Skip:       []string{"comment"},
	Atomic:     []string{"string"},
	Classes: map[string]string{
		"identifier": "ID",
		"integer":    "NUM",
		"float":      "NUM",
		"string":     "STR",
		"true":       "BOOL",
		"false":      "BOOL",
		"none":       "NONE",
	},
}

// JavaScriptLanguage tokenizes JavaScript source
var JavaScriptLanguage = LanguageSpec{
	Name:       "javascript",
	Extensions: []string{".js", ".jsx", ".mjs"},
	Grammar:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(javascript.Language()) },
	Skip:       []string{"comment"},
	Atomic:     []string{"string", "template_string", "regex"},
	Classes:    jsClasses(),
}

// TypeScriptLanguage tokenizes TypeScript source
var TypeScriptLanguage = LanguageSpec{
	Name:       "typescript",
	Extensions: []string{".ts", ".tsx"},
	Grammar:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(typescript.LanguageTypescript()) },
	Skip:       []string{"comment"},
	Atomic:     []string{"string", "template_string", "regex"},
	Classes: func() map[string]string {
		classes := jsClasses()
		classes["type_identifier"] = "ID"
		return classes
	}(),
}

// JavaLanguage tokenizes Java source
var JavaLanguage = LanguageSpec{
	Name:       "java",
	Extensions: []string{".java"},
	Grammar:    func() *tree_sitter.Language { return tree_sitter.NewLanguage(java.Language()) },
	Skip:       []string{"comment", "line_comment", "block_comment"},
	Atomic:     []string{"string_literal", "character_literal"},
	Classes: map[string]string{
		"identifier":                     "ID",
		"type_identifier":                "ID",
		"decimal_integer_literal":        "NUM",
		"hex_integer_literal":            "NUM",
		"octal_integer_literal":          "NUM",
		"binary_integer_literal":         "NUM",
		"decimal_floating_point_literal": "NUM",
		"hex_floating_point_literal":     "NUM",
		"string_literal":                 "STR",
		"character_literal":              "STR",
		"true":                           "BOOL",
		"false":                          "BOOL",
		"null_literal":                   "NULL",
	},
}

func jsClasses() map[string]string {
	return map[string]string{
		"identifier":          "ID",
		"property_identifier": "ID",
		"number":              "NUM",
		"string":              "STR",
		"template_string":     "STR",
		"regex":               "REGEX",
		"true":                "BOOL",
		"false":               "BOOL",
		"null":                "NULL",
		"undefined":           "UNDEF",
	}
}

func codeLanguages() []LanguageSpec {
	return []LanguageSpec{GoLanguage, PythonLanguage, JavaScriptLanguage, TypeScriptLanguage, JavaLanguage}
}
