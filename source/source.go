// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package source tracks named Dogma source texts and byte-offset spans so
// parse and build errors can be rendered with line/column context, the way
// the teacher's dsl.ParseError carries Line/Column back to the caller.
package source

import (
	"fmt"
	"strings"
)

// Location identifies a single source file by its fully-qualified name
// (e.g. "from::my::package").
type Location struct {
	Name string
}

func (l Location) String() string { return l.Name }

// Span is a byte-offset range within a single source, inclusive of Start
// and exclusive of End.
type Span struct {
	Start int
	End   int
}

// Cache holds the original text of every source handed to the builder, so
// a Span can be rendered back into line/column/snippet form for
// diagnostics without re-reading from disk.
type Cache struct {
	texts map[string]string
	lines map[string][]int // cumulative byte offset of the start of each line
}

// NewCache creates an empty source cache.
func NewCache() *Cache {
	return &Cache{texts: make(map[string]string), lines: make(map[string][]int)}
}

// Insert registers the text for a named source, computing its line-start
// offsets for later span rendering.
func (c *Cache) Insert(loc Location, text string) {
	c.texts[loc.Name] = text
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	c.lines[loc.Name] = offsets
}

// Text returns the full text registered for loc.
func (c *Cache) Text(loc Location) (string, bool) {
	t, ok := c.texts[loc.Name]
	return t, ok
}

// Position is a 1-based line and column within a source.
type Position struct {
	Line   int
	Column int
}

// Resolve converts a byte offset into a 1-based line/column for loc. If loc
// is unknown or offset is out of range, it returns the zero Position.
func (c *Cache) Resolve(loc Location, offset int) Position {
	starts, ok := c.lines[loc.Name]
	if !ok {
		return Position{}
	}
	if offset < 0 || offset > len(c.texts[loc.Name]) {
		return Position{}
	}
	line := 0
	for i, s := range starts {
		if s > offset {
			break
		}
		line = i
	}
	return Position{Line: line + 1, Column: offset - starts[line] + 1}
}

// Snippet renders the line containing span.Start, with a caret pointing at
// the offending column, for inclusion in diagnostic messages.
func (c *Cache) Snippet(loc Location, span Span) string {
	text, ok := c.texts[loc.Name]
	if !ok {
		return ""
	}
	pos := c.Resolve(loc, span.Start)
	lineStart := span.Start
	for lineStart > 0 && text[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := span.Start
	for lineEnd < len(text) && text[lineEnd] != '\n' {
		lineEnd++
	}
	line := text[lineStart:lineEnd]
	caretCol := pos.Column - 1
	if caretCol < 0 {
		caretCol = 0
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%4d | %s\n", pos.Line, line)
	b.WriteString(strings.Repeat(" ", 7+caretCol))
	b.WriteString("^")
	return b.String()
}
