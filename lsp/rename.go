package lsp

import (
	"context"
	"errors"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/yui-knk/norikra"
	"github.com/yui-knk/norikra/analysis"
)

// Rename errors.
var (
	ErrInvalidName  = errors.New("invalid name")
	ErrNameConflict = errors.New("name already in use")
)

// PrepareRename handles textDocument/prepareRename requests.
// Stream names and aliases can be renamed; fields belong to the event type
// and cannot.
func (s *Server) PrepareRename(_ context.Context, params *protocol.PrepareRenameParams) (*protocol.Range, error) {
	s.logger.Debug("PrepareRename",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)

	sym := symbolAt(doc.Analysis, pos)
	if sym.kind != symbolStream && sym.kind != symbolAlias {
		return nil, nil //nolint:nilnil
	}

	return rangePtr(spanToRange(sym.span)), nil
}

// Rename handles textDocument/rename requests.
// Renaming a stream touches its FROM entries and stream-qualified fields,
// the same sites as RewriteEventTypeName. Renaming an alias touches its
// declaration and the fields it qualifies.
func (s *Server) Rename(_ context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	s.logger.Debug("Rename",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character),
		zap.String("newName", params.NewName))

	doc, ok := s.analyzedDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	q := doc.Analysis
	pos := analysis.PositionToLexer(params.Position.Line, params.Position.Character)

	sym := symbolAt(q, pos)

	var spans []analysis.Span

	switch sym.kind {
	case symbolStream:
		spans = streamReferenceSpans(q, sym.name, true)
	case symbolAlias:
		spans = aliasReferenceSpans(q, sym.member, true)
	case symbolNone, symbolField:
		return nil, nil //nolint:nilnil
	}

	if err := validateNewName(params.NewName); err != nil {
		return nil, err
	}

	if err := checkRenameConflicts(q, sym, params.NewName); err != nil {
		return nil, err
	}

	edits := make([]protocol.TextEdit, 0, len(spans))
	for _, span := range spans {
		edits = append(edits, protocol.TextEdit{Range: spanToRange(span), NewText: params.NewName})
	}

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentURI][]protocol.TextEdit{doc.URI: edits},
	}, nil
}

func validateNewName(newName string) error {
	if norikra.IsIdentifier(newName) {
		return nil
	}

	if norikra.IsKeyword(newName) {
		return fmt.Errorf("%w: %q is a reserved word", ErrInvalidName, newName)
	}

	return fmt.Errorf("%w: %q is not an identifier", ErrInvalidName, newName)
}

// checkRenameConflicts rejects library class names and names another FROM
// entry of the statement already answers to, at any nesting depth.
func checkRenameConflicts(q *analysis.AnalyzedQuery, sym symbol, newName string) error {
	if newName == sym.name {
		return nil
	}

	if pkg, ok := analysis.LibraryClassPackage(newName); ok {
		return fmt.Errorf("%w: %q would hide library class %s.%s", ErrNameConflict, newName, pkg, newName)
	}

	for _, scope := range q.Scopes.Scopes {
		for _, m := range scope.Members {
			renamed := m == sym.member || (sym.kind == symbolStream && m.Stream == sym.name)
			if renamed {
				continue
			}

			if m.Alias == newName || m.Stream == newName {
				return fmt.Errorf("%w: %q is already declared in FROM", ErrNameConflict, newName)
			}
		}
	}

	return nil
}
