package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jholhewres/nova/pkg/nova/dispatch"
)

func TestOpenAIOracleToolCall(t *testing.T) {
	t.Parallel()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","tool_calls":[{"id":"c1","type":"function","function":{"name":"file_operations","arguments":"{\"action\":\"read\",\"path\":\"a.txt\"}"}}]},"finish_reason":"tool_calls"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAIOracle(OracleConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil)
	reply, err := o.Next(context.Background(), "sys", []Message{{Role: RoleUser, Content: "read a.txt"}}, dispatch.Tools())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Args["path"] != "a.txt" {
		t.Fatalf("reply = %+v", reply)
	}
	if got.Model != "m" || len(got.Tools) != len(dispatch.Tools()) || got.Messages[0].Role != "system" {
		t.Errorf("request = %+v", got)
	}
}

func TestOpenAIOracleErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := NewOpenAIOracle(OracleConfig{BaseURL: srv.URL, APIKey: "k"}, nil)
	if _, err := o.Next(context.Background(), "", nil, nil); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v", err)
	}

	noKey := NewOpenAIOracle(OracleConfig{BaseURL: srv.URL}, nil)
	if _, err := noKey.Next(context.Background(), "", nil, nil); err == nil {
		t.Error("expected missing key error")
	}
}
