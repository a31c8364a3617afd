package lsp

import (
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/yui-knk/norikra/analysis"
)

// spanToRange converts an analysis.Span to an LSP protocol.Range.
// participle uses 1-based line/column, LSP uses 0-based.
func spanToRange(span analysis.Span) protocol.Range {
	end := span.End
	if end.Line == 0 {
		end = span.Start
	}

	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(max(0, span.Start.Line-1)),   //nolint:gosec // G115: values are small line numbers
			Character: uint32(max(0, span.Start.Column-1)), //nolint:gosec // G115: values are small column numbers
		},
		End: protocol.Position{
			Line:      uint32(max(0, end.Line-1)),   //nolint:gosec // G115: values are small line numbers
			Character: uint32(max(0, end.Column-1)), //nolint:gosec // G115: values are small column numbers
		},
	}
}

func rangePtr(r protocol.Range) *protocol.Range {
	return &r
}

// documentName returns the file path of file URIs and the URI itself
// otherwise, e.g. for unsaved buffers.
func documentName(u protocol.DocumentURI) string {
	if strings.HasPrefix(string(u), uri.FileScheme+"://") {
		return u.Filename()
	}

	return string(u)
}
