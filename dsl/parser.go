// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package dsl

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"

	"github.com/seedwing/policy-engine/source"
)

// MaxNestingDepth bounds type-expression nesting during post-parse
// validation, mirroring the teacher's condition-depth guard.
const MaxNestingDepth = 64

var dogmaParser *participle.Parser[CompilationUnit]

func init() {
	var err error
	dogmaParser, err = NewParser()
	if err != nil {
		panic(fmt.Sprintf("dsl: failed to build Dogma parser: %v", err))
	}
}

// NewParser builds a fresh participle parser for the Dogma grammar.
// MaxLookahead is required because type_expr's alternatives (expr/list/
// object/const/type-ref) are not resolvable with a single token of
// lookahead once generics and postfixes are in play.
func NewParser() (*participle.Parser[CompilationUnit], error) {
	return participle.Build[CompilationUnit](
		participle.Lexer(dogmaLexer),
		participle.Unquote("String"),
		participle.Elide("Comment", "whitespace"),
		participle.UseLookahead(participle.MaxLookahead),
	)
}

// BuildError is the error layer produced while compiling Dogma sources,
// strictly distinct from runtime errors and policy failures (§7).
type BuildError struct {
	Kind     BuildErrorKind
	Location source.Location
	Span     source.Span
	Message  string
}

// BuildErrorKind distinguishes the three build-error shapes named in §7.
type BuildErrorKind int

const (
	// ErrPatternNotFound means a TypeRef's path resolved to no pattern.
	ErrPatternNotFound BuildErrorKind = iota
	// ErrParser means the lexer/parser rejected the source text.
	ErrParser
	// ErrArgumentMismatch means a Bound pattern's argument count does not
	// equal its primary's declared parameter count.
	ErrArgumentMismatch
)

func (k BuildErrorKind) String() string {
	switch k {
	case ErrPatternNotFound:
		return "pattern-not-found"
	case ErrParser:
		return "parser"
	case ErrArgumentMismatch:
		return "argument-mismatch"
	default:
		return "unknown"
	}
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
}

// Parse parses a single Dogma source file's text, registering it with
// cache under loc, and returns its CompilationUnit or a list of build
// errors. Parser failures are reported best-effort: participle stops at
// the first syntax error, so exactly one ErrParser BuildError is returned
// in that case (§4.1: "recovery is best-effort; every recovered error is
// still reported").
func Parse(cache *source.Cache, loc source.Location, text string) (*CompilationUnit, []*BuildError) {
	cache.Insert(loc, text)

	unit, err := dogmaParser.ParseString(loc.Name, text)
	if err != nil {
		pos := participleErrorPosition(err)
		return nil, []*BuildError{{
			Kind:     ErrParser,
			Location: loc,
			Span:     source.Span{Start: pos, End: pos},
			Message:  err.Error(),
		}}
	}

	if errs := validateCompilationUnit(loc, unit); len(errs) > 0 {
		return unit, errs
	}
	return unit, nil
}

// participleErrorPosition best-effort-extracts a byte offset from a
// participle error for span construction.
func participleErrorPosition(err error) int {
	if pe, ok := err.(participle.Error); ok {
		return pe.Position().Offset
	}
	return 0
}

// validateCompilationUnit runs post-parse structural checks: reserved
// words, nesting depth, and duplicate field names within object patterns.
func validateCompilationUnit(loc source.Location, unit *CompilationUnit) []*BuildError {
	var errs []*BuildError
	seen := make(map[string]bool, len(unit.Patterns))
	for _, p := range unit.Patterns {
		if IsReservedWord(p.Name) {
			errs = append(errs, &BuildError{
				Kind:     ErrParser,
				Location: loc,
				Span:     span(p.Pos),
				Message:  fmt.Sprintf("reserved word %q cannot be used as a pattern name", p.Name),
			})
		}
		if seen[p.Name] {
			errs = append(errs, &BuildError{
				Kind:     ErrParser,
				Location: loc,
				Span:     span(p.Pos),
				Message:  fmt.Sprintf("duplicate pattern name %q", p.Name),
			})
		}
		seen[p.Name] = true

		for _, param := range p.Params {
			if IsReservedWord(param) {
				errs = append(errs, &BuildError{
					Kind:     ErrParser,
					Location: loc,
					Span:     span(p.Pos),
					Message:  fmt.Sprintf("reserved word %q cannot be used as a parameter name", param),
				})
			}
		}

		if p.Body != nil {
			if err := validateTypeExpr(loc, p.Body, 0); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

func validateTypeExpr(loc source.Location, t *TypeExpr, depth int) *BuildError {
	if depth > MaxNestingDepth {
		return &BuildError{
			Kind:     ErrParser,
			Location: loc,
			Span:     span(t.Pos),
			Message:  fmt.Sprintf("type expression nesting exceeds maximum of %d", MaxNestingDepth),
		}
	}
	for _, and := range t.Terms {
		for _, chain := range and.Terms {
			for _, term := range chain.Terms {
				if err := validateTypePrimary(loc, term, depth+1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateTypePrimary(loc source.Location, p *TypePrimary, depth int) *BuildError {
	switch {
	case p.List != nil:
		return validateTypeExpr(loc, p.List.Element, depth+1)
	case p.Object != nil:
		fieldNames := make(map[string]bool, len(p.Object.Fields))
		for _, f := range p.Object.Fields {
			if fieldNames[f.Name] {
				return &BuildError{
					Kind:     ErrParser,
					Location: loc,
					Span:     span(f.Pos),
					Message:  fmt.Sprintf("duplicate field name %q", f.Name),
				}
			}
			fieldNames[f.Name] = true
			if err := validateTypeExpr(loc, f.Pattern, depth+1); err != nil {
				return err
			}
		}
	case p.Ref != nil:
		for _, arg := range p.Ref.Args {
			if err := validateTypeExpr(loc, arg, depth+1); err != nil {
				return err
			}
		}
		for _, post := range p.Ref.Postfix {
			if post.Refine != nil {
				if err := validateTypeExpr(loc, post.Refine, depth+1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func span(pos lexer.Position) source.Span {
	return source.Span{Start: pos.Offset, End: pos.Offset}
}

// Build returns an oops-coded error summarizing a non-empty list of build
// errors, for callers that want a single `error` rather than the raw list.
func Build(errs []*BuildError) error {
	if len(errs) == 0 {
		return nil
	}
	return oops.Code("BUILD_FAILED").
		With("error_count", len(errs)).
		With("first_error", errs[0].Error()).
		Errorf("dsl: %d build error(s), first: %s", len(errs), errs[0].Error())
}
