package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/aretw0/sflsweep"
	httpadapter "github.com/aretw0/sflsweep/pkg/adapters/http"
	"github.com/aretw0/sflsweep/pkg/adapters/mcp"
)

// Transports supported by ServeMCP.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions contains the configuration for the mcp command.
type MCPOptions struct {
	Path      string
	Transport string
	Addr      string // Listen address of the SSE transport
	Progress  ProgressOptions
	LogLevel  string
	LogFormat string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ServeMCP exposes the sweep at opts.Path to MCP clients until ctx is done
// or, on stdio, until the client closes its input.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	// Stdout carries the protocol; logs go to stderr.
	logger, err := createLogger(stderr, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}

	sw, err := sflsweep.Load(opts.Path, sflsweep.WithLogger(logger))
	if err != nil {
		return err
	}

	backend, err := openProgress(ctx, opts.Progress)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Warn("failed to close progress store", "err", err)
		}
	}()

	srv := mcp.NewServer(sw, backend.store)

	switch opts.Transport {
	case "", TransportStdio:
		logger.Info("serving sweep over MCP", "transport", TransportStdio, "sweep", sw.Name())
		err := srv.Serve(ctx, stdin, stdout)
		if err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("mcp server failed: %w", err)
		}
		return nil

	case TransportSSE:
		host, port, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", opts.Addr, err)
		}
		if host == "" {
			host = "localhost"
		}
		baseURL := "http://" + net.JoinHostPort(host, port)

		server := httpadapter.NewServer(opts.Addr, srv.SSEHandler(baseURL), logger)
		if _, err := server.Start(); err != nil {
			return fmt.Errorf("failed to start mcp server: %w", err)
		}
		logger.Info("serving sweep over MCP", "transport", TransportSSE, "url", baseURL+"/sse", "sweep", sw.Name())

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)

	default:
		return fmt.Errorf("unknown transport %q (expected %s or %s)", opts.Transport, TransportStdio, TransportSSE)
	}
}
