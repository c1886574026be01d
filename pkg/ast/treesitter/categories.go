package treesitter

import (
	"strings"

	"github.com/panbanda/typeone/pkg/parser"
	"github.com/panbanda/typeone/pkg/syntax"
)

// categoryTable overrides the suffix heuristic for node types whose
// grammar names do not reflect their role.
type categoryTable map[string]syntax.Category

var (
	javaCategories = categoryTable{
		"local_variable_declaration":      syntax.CategoryStatement,
		"explicit_constructor_invocation": syntax.CategoryStatement,
		"constructor_body":                syntax.CategoryBlock,
		"switch_block":                    syntax.CategoryBlock,
		"switch_block_statement_group":    syntax.CategoryStatement,
		"local_class_declaration":         syntax.CategoryStatement,
		"static_initializer":              syntax.CategoryDeclaration,
	}

	goCategories = categoryTable{
		"short_var_declaration": syntax.CategoryStatement,
		"var_declaration":       syntax.CategoryStatement,
		"const_declaration":     syntax.CategoryStatement,
		"statement_list":        syntax.CategoryOther,
	}

	jsCategories = categoryTable{
		"statement_block":      syntax.CategoryBlock,
		"lexical_declaration":  syntax.CategoryStatement,
		"variable_declaration": syntax.CategoryStatement,
		"class_body":           syntax.CategoryOther,
	}

	cFamilyCategories = categoryTable{
		"compound_statement": syntax.CategoryBlock,
		"declaration":        syntax.CategoryStatement,
	}

	rustCategories = categoryTable{
		"let_declaration": syntax.CategoryStatement,
	}

	rubyCategories = categoryTable{
		"body_statement": syntax.CategoryBlock,
		"do_block":       syntax.CategoryBlock,
	}

	phpCategories = categoryTable{
		"compound_statement": syntax.CategoryBlock,
	}

	bashCategories = categoryTable{
		"compound_statement": syntax.CategoryBlock,
		"do_group":           syntax.CategoryBlock,
	}

	csharpCategories = categoryTable{
		"local_declaration_statement": syntax.CategoryStatement,
	}

	emptyCategories = categoryTable{}
)

func categoriesFor(lang parser.Language) categoryTable {
	switch lang {
	case parser.LangJava:
		return javaCategories
	case parser.LangGo:
		return goCategories
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return jsCategories
	case parser.LangC, parser.LangCPP:
		return cFamilyCategories
	case parser.LangRust:
		return rustCategories
	case parser.LangRuby:
		return rubyCategories
	case parser.LangPHP:
		return phpCategories
	case parser.LangBash:
		return bashCategories
	case parser.LangCSharp:
		return csharpCategories
	default:
		return emptyCategories
	}
}

// classify assigns a category to a named node type. Overrides win, then
// named leaves become tokens, then the grammar's naming conventions decide.
func (t categoryTable) classify(nodeType string, leaf bool) syntax.Category {
	if cat, ok := t[nodeType]; ok {
		return cat
	}
	if leaf {
		return syntax.CategoryToken
	}
	switch {
	case strings.HasSuffix(nodeType, "_statement"):
		return syntax.CategoryStatement
	case nodeType == "block" || strings.HasSuffix(nodeType, "_block"):
		return syntax.CategoryBlock
	case strings.HasSuffix(nodeType, "_declaration"),
		strings.HasSuffix(nodeType, "_definition"),
		strings.HasSuffix(nodeType, "_item"):
		return syntax.CategoryDeclaration
	case strings.HasSuffix(nodeType, "_expression"):
		return syntax.CategoryExpression
	default:
		return syntax.CategoryOther
	}
}
