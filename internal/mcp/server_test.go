package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
)

// runSession feeds lines to a server and returns decoded responses in order.
func runSession(t *testing.T, lines ...string) []jsonrpcResponseView {
	t.Helper()
	reg := state.NewRegistry(state.NewMemoryStore(), memory.DefaultOptions())
	defer reg.Close()

	var out bytes.Buffer
	srv := NewServer(reg, WithIO(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out), WithVersion("test"))
	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resps []jsonrpcResponseView
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r jsonrpcResponseView
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad response line %q: %v", sc.Text(), err)
		}
		resps = append(resps, r)
	}
	return resps
}

type jsonrpcResponseView struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

type toolResult struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	IsError   bool   `json:"isError"`
	ErrorCode string `json:"errorCode"`
}

func decodeToolResult(t *testing.T, raw json.RawMessage) toolResult {
	t.Helper()
	var r toolResult
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("decode tool result: %v", err)
	}
	return r
}

func TestServer_Initialize(t *testing.T) {
	resps := runSession(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	if len(resps) != 1 {
		t.Fatalf("expected 1 response, got %d", len(resps))
	}
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	json.Unmarshal(resps[0].Result, &init)
	if init.ProtocolVersion != protocolVersion || init.ServerInfo.Name != "agentmind" || init.ServerInfo.Version != "test" {
		t.Errorf("unexpected initialize result: %s", resps[0].Result)
	}
}

func TestServer_NotificationsGetNoResponse(t *testing.T) {
	resps := runSession(t,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(resps) != 1 || string(resps[0].ID) != "2" {
		t.Fatalf("expected only the ping response, got %+v", resps)
	}
}

func TestServer_ToolsList(t *testing.T) {
	resps := runSession(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	var list struct {
		Tools []ToolDef `json:"tools"`
	}
	json.Unmarshal(resps[0].Result, &list)
	if len(list.Tools) != 10 {
		t.Errorf("expected 10 tools, got %d", len(list.Tools))
	}
}

func TestServer_ToolsCallRoundTrip(t *testing.T) {
	resps := runSession(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"memory_set_base_prompt","arguments":{"agent_id":"a","text":"You are Ada."}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"memory_get_context","arguments":{"agent_id":"a"}}}`,
	)
	if len(resps) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(resps))
	}

	r := decodeToolResult(t, resps[1].Result)
	if r.IsError {
		t.Fatalf("unexpected tool error: %+v", r)
	}
	var ctx struct {
		Context string `json:"context"`
	}
	json.Unmarshal([]byte(r.Content[0].Text), &ctx)
	if ctx.Context != "[BASE IDENTITY]\nYou are Ada." {
		t.Errorf("context = %q", ctx.Context)
	}
}

func TestServer_ToolErrorInResult(t *testing.T) {
	resps := runSession(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"memory_lane_for_summarization","arguments":{"agent_id":"a","lane":"tool"}}}`,
	)
	if resps[0].Error != nil {
		t.Fatalf("tool failures belong in the result, got rpc error %+v", resps[0].Error)
	}
	r := decodeToolResult(t, resps[0].Result)
	if !r.IsError || r.ErrorCode != "UNKNOWN_LANE" {
		t.Errorf("unexpected result: %+v", r)
	}
	if !strings.Contains(r.Content[0].Text, "Suggestion:") {
		t.Errorf("expected a suggestion line: %q", r.Content[0].Text)
	}
}

func TestServer_ProtocolErrors(t *testing.T) {
	resps := runSession(t,
		`{not json`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":"oops"}`,
	)
	if len(resps) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(resps))
	}
	want := []int{codeParseError, codeMethodNotFound, codeInvalidParams}
	for i, code := range want {
		if resps[i].Error == nil || resps[i].Error.Code != code {
			t.Errorf("response %d: want error %d, got %+v", i, code, resps[i].Error)
		}
	}
}

func TestServer_ContextCancelled(t *testing.T) {
	reg := state.NewRegistry(state.NewMemoryStore(), memory.DefaultOptions())
	defer reg.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := NewServer(reg, WithIO(strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &bytes.Buffer{}))
	if err := srv.Run(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
