package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// recordingClient receives the server's diagnostics. Other client methods
// are never called by the server and would panic on the nil interface.
type recordingClient struct {
	protocol.Client

	diagnostics chan *protocol.PublishDiagnosticsParams
}

func (c *recordingClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	c.diagnostics <- params

	return nil
}

func TestRun_PublishesDiagnostics(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverSide, clientSide := net.Pipe()

	done := make(chan error, 1)

	go func() {
		done <- run(ctx, zap.NewNop(), serverSide, serverSide)
	}()

	client := &recordingClient{diagnostics: make(chan *protocol.PublishDiagnosticsParams, 1)}

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide))
	conn.Go(ctx, protocol.ClientHandler(client, jsonrpc2.MethodNotFoundHandler))

	server := protocol.ServerDispatcher(conn, zap.NewNop())

	result, err := server.Initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "norikra-lsp", result.ServerInfo.Name)

	docURI := uri.File("/queries/join.epl")

	err = server.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI,
			Version: 1,
			Text:    "select product from StreamA as a, StreamB as b",
		},
	})
	require.NoError(t, err)

	select {
	case params := <-client.diagnostics:
		assert.Equal(t, docURI, params.URI)
		require.Len(t, params.Diagnostics, 1)
		assert.Equal(t, "ambiguous-field", params.Diagnostics[0].Code)
	case <-ctx.Done():
		t.Fatal("no diagnostics published")
	}

	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("server did not stop after the connection closed")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := newLogger("DEBUG")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("loud")
	require.Error(t, err)
}
