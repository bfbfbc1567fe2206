package mcp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aretw0/sflsweep"
	mcpadapter "github.com/aretw0/sflsweep/pkg/adapters/mcp"
	"github.com/aretw0/sflsweep/pkg/adapters/memory"
	"github.com/aretw0/sflsweep/pkg/casename"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/resolve"
	"github.com/aretw0/sflsweep/pkg/space"
	"github.com/aretw0/sflsweep/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweep(t *testing.T, withGPT2Rule bool) *sflsweep.Sweep {
	t.Helper()
	s := space.New()
	require.NoError(t, s.DefineAxis("model_name", domain.String("llama2"), domain.String("gpt2")))
	require.NoError(t, s.DefineAxis("sp1", domain.Int(6), domain.Int(15)))

	rules := resolve.NewTable("model_name", true)
	require.NoError(t, rules.Add(domain.String("llama2"), domain.NewConfiguration(
		domain.Field{Name: "gma_lr", Value: domain.Float(0.09)},
	)))
	if withGPT2Rule {
		require.NoError(t, rules.Add(domain.String("gpt2"), domain.NewConfiguration(
			domain.Field{Name: "gma_lr", Value: domain.Float(0.01)},
		)))
	}

	sw, err := sflsweep.New(sweep.Plan{
		Name:     "sfl-dra",
		Space:    s,
		Rules:    rules,
		Template: casename.MustParse("sfl-{model_name}-sp{sp1}"),
		Program:  domain.Program{Command: "python", Args: []string{"sfl_with_attacker.py"}},
	})
	require.NoError(t, err)
	return sw
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type toolResult struct {
	IsError           bool            `json:"isError"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	Content           []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// call sends one JSON-RPC request through the server and decodes the reply.
func call(t *testing.T, srv *mcpadapter.Server, method string, params any) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	reply := srv.MCPServer().HandleMessage(context.Background(), raw)
	data, err := json.Marshal(reply)
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func callTool(t *testing.T, srv *mcpadapter.Server, name string, args map[string]any) toolResult {
	t.Helper()
	resp := call(t, srv, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, resp.Error)

	var res toolResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	return res
}

func initialize(t *testing.T, srv *mcpadapter.Server) {
	t.Helper()
	resp := call(t, srv, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
	})
	require.Nil(t, resp.Error)
}

func TestServer_ListTools(t *testing.T) {
	t.Run("With Progress Store", func(t *testing.T) {
		srv := mcpadapter.NewServer(newSweep(t, true), memory.NewStore())
		initialize(t, srv)

		resp := call(t, srv, "tools/list", map[string]any{})
		require.Nil(t, resp.Error)

		var list struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		}
		require.NoError(t, json.Unmarshal(resp.Result, &list))
		var names []string
		for _, tool := range list.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"plan", "validate", "status", "list_progress"}, names)
	})

	t.Run("Without Progress Store", func(t *testing.T) {
		srv := mcpadapter.NewServer(newSweep(t, true), nil)
		initialize(t, srv)

		resp := call(t, srv, "tools/list", map[string]any{})
		require.Nil(t, resp.Error)
		assert.NotContains(t, string(resp.Result), `"status"`)
		assert.Contains(t, string(resp.Result), `"plan"`)
	})
}

func TestServer_Plan(t *testing.T) {
	srv := mcpadapter.NewServer(newSweep(t, true), nil)
	initialize(t, srv)

	res := callTool(t, srv, "plan", map[string]any{"from": 1, "limit": 2})
	require.False(t, res.IsError, "%+v", res.Content)

	var plan mcpadapter.PlanResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &plan))
	assert.Equal(t, "sfl-dra", plan.Sweep)
	assert.Equal(t, 4, plan.Total)
	require.Len(t, plan.Cases, 2)

	assert.Equal(t, 1, plan.Cases[0].Index)
	assert.Equal(t, "sfl-llama2-sp15", plan.Cases[0].Name)
	assert.Equal(t, []string{"python", "sfl_with_attacker.py", "--model_name=llama2", "--sp1=15", "--gma_lr=0.09"}, plan.Cases[0].Command)
	assert.Equal(t, "sfl-gpt2-sp6", plan.Cases[1].Name)

	res = callTool(t, srv, "plan", map[string]any{"from": -1})
	assert.True(t, res.IsError)
}

func TestServer_PlanReportsUnresolvedCases(t *testing.T) {
	srv := mcpadapter.NewServer(newSweep(t, false), nil)
	initialize(t, srv)

	res := callTool(t, srv, "plan", nil)
	require.False(t, res.IsError)

	var plan mcpadapter.PlanResponse
	require.NoError(t, json.Unmarshal(res.StructuredContent, &plan))
	require.Len(t, plan.Cases, 4)
	assert.Empty(t, plan.Cases[0].Error)
	assert.Contains(t, plan.Cases[2].Error, "gpt2")
}

func TestServer_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		srv := mcpadapter.NewServer(newSweep(t, true), nil)
		initialize(t, srv)

		var resp mcpadapter.ValidateResponse
		res := callTool(t, srv, "validate", nil)
		require.NoError(t, json.Unmarshal(res.StructuredContent, &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, 4, resp.Total)
		assert.Empty(t, resp.Errors)
	})

	t.Run("Unresolved Selector", func(t *testing.T) {
		srv := mcpadapter.NewServer(newSweep(t, false), nil)
		initialize(t, srv)

		var resp mcpadapter.ValidateResponse
		res := callTool(t, srv, "validate", nil)
		require.NoError(t, json.Unmarshal(res.StructuredContent, &resp))
		assert.False(t, resp.Valid)
		assert.Len(t, resp.Errors, 2, "both gpt2 configurations miss a rule")
	})
}

func TestServer_Progress(t *testing.T) {
	store := memory.NewStore()
	saved := domain.Progress{
		Sweep:     "sfl-dra",
		SweepID:   "abc",
		State:     domain.StateAborted,
		Total:     4,
		NextIndex: 3,
		LastCase:  "sfl-gpt2-sp6",
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(context.Background(), "sfl-dra", saved))

	srv := mcpadapter.NewServer(newSweep(t, true), store)
	initialize(t, srv)

	t.Run("Status Of Loaded Sweep", func(t *testing.T) {
		res := callTool(t, srv, "status", nil)
		require.False(t, res.IsError)

		var got domain.Progress
		require.NoError(t, json.Unmarshal(res.StructuredContent, &got))
		assert.Equal(t, saved, got)
	})

	t.Run("Status Of Unknown Sweep", func(t *testing.T) {
		res := callTool(t, srv, "status", map[string]any{"sweep": "other"})
		assert.True(t, res.IsError)
	})

	t.Run("List", func(t *testing.T) {
		res := callTool(t, srv, "list_progress", nil)
		var got mcpadapter.ProgressListResponse
		require.NoError(t, json.Unmarshal(res.StructuredContent, &got))
		assert.Equal(t, []string{"sfl-dra"}, got.Sweeps)
	})

	t.Run("Resource", func(t *testing.T) {
		resp := call(t, srv, "resources/read", map[string]any{"uri": "sflsweep://progress/sfl-dra"})
		require.Nil(t, resp.Error)

		var read struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(resp.Result, &read))
		require.Len(t, read.Contents, 1)

		var got domain.Progress
		require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &got))
		assert.Equal(t, 3, got.NextIndex)
	})
}

func TestServer_DefinitionResource(t *testing.T) {
	srv := mcpadapter.NewServer(newSweep(t, true), nil)
	initialize(t, srv)

	resp := call(t, srv, "resources/read", map[string]any{"uri": "sflsweep://definition"})
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), "sfl-gpt2-sp15")
}

func TestServer_Serve(t *testing.T) {
	srv := mcpadapter.NewServer(newSweep(t, true), nil)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, inR, outW) }()

	go func() {
		fmt.Fprintln(inW, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`)
	}()

	line, err := bufio.NewReader(outR).ReadBytes('\n')
	require.NoError(t, err)

	var resp struct {
		ID     int `json:"id"`
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(line, &resp))
	assert.Equal(t, 1, resp.ID)
	assert.Equal(t, "sflsweep", resp.Result.ServerInfo.Name)

	cancel()
	_ = inW.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
