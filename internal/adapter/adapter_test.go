package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_ValidProviders(t *testing.T) {
	tests := []struct {
		provider string
	}{
		{ProviderClaude},
		{ProviderOpenAI},
		{ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			a, err := New(tt.provider, "", "test-key", "")
			if err != nil {
				t.Fatalf("New(%q) error: %v", tt.provider, err)
			}
			if a == nil {
				t.Fatalf("New(%q) returned nil adapter", tt.provider)
			}
			info := a.Info()
			if info.Provider != tt.provider {
				t.Errorf("Info().Provider = %q, want %q", info.Provider, tt.provider)
			}
			if info.Name == "" {
				t.Error("Info().Name should default to a model")
			}
		})
	}
}

func TestNew_InvalidProvider(t *testing.T) {
	_, err := New("gemini", "", "key", "")
	if err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNew_ModelOverride(t *testing.T) {
	a, err := New(ProviderOllama, "qwen2.5", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Info().Name != "qwen2.5" {
		t.Errorf("model: got %q", a.Info().Name)
	}
}

func TestCollect(t *testing.T) {
	ch := make(chan StreamChunk, 3)
	ch <- StreamChunk{Text: "Hello "}
	ch <- StreamChunk{Text: "World"}
	close(ch)

	got, err := Collect(context.Background(), ch)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello World" {
		t.Errorf("got %q", got)
	}
}

func TestCollect_Error(t *testing.T) {
	ch := make(chan StreamChunk, 2)
	ch <- StreamChunk{Text: "partial"}
	ch <- StreamChunk{Error: errors.New("boom")}
	close(ch)

	got, err := Collect(context.Background(), ch)
	if err == nil || err.Error() != "boom" {
		t.Errorf("expected boom, got %v", err)
	}
	if got != "partial" {
		t.Errorf("partial text: got %q", got)
	}
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Collect(ctx, make(chan StreamChunk)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOllamaComplete_NonStreaming(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"[\"llm\"]"},"done":true}`)
	}))
	defer server.Close()

	a := NewOllama(server.URL+"/", "")
	text, err := Complete(context.Background(), a, CompletionRequest{
		SystemPrompt: "sys",
		Context:      "examples",
		UserMessage:  "label this",
		MaxTokens:    64,
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != `["llm"]` {
		t.Errorf("text: got %q", text)
	}
	if got.Model != defaultOllamaModel || got.Stream {
		t.Errorf("request: model=%q stream=%v", got.Model, got.Stream)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages: %+v", got.Messages)
	}
	if user := got.Messages[1].Content; !strings.Contains(user, "examples") || !strings.HasSuffix(user, "label this") {
		t.Errorf("user message: %q", user)
	}
}

func TestOllamaComplete_Streaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range []string{"Hello ", "World"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
	}))
	defer server.Close()

	stream, err := NewOllama(server.URL, "m").Complete(context.Background(), CompletionRequest{
		UserMessage: "hi",
		Stream:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	text, err := Collect(context.Background(), stream)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello World" {
		t.Errorf("streamed text: got %q", text)
	}
}

func TestOllamaComplete_StopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 200; i++ {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":"t%d "},"done":false}`+"\n", i)
		}
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := NewOllama(server.URL, "m").Complete(ctx, CompletionRequest{
		UserMessage: "hi",
		Stream:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Nobody reads until the buffer is full.
	deadline := time.Now().Add(5 * time.Second)
	for len(stream) < cap(stream) {
		if time.Now().After(deadline) {
			t.Fatalf("buffer never filled: %d/%d", len(stream), cap(stream))
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	received := 0
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				if received != cap(stream) {
					t.Errorf("received %d chunks after cancel, want %d", received, cap(stream))
				}
				return
			}
			received++
		case <-timeout:
			t.Fatal("stream was not closed after cancel")
		}
	}
}

func TestOllamaComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model not found"}`)
	}))
	defer server.Close()

	_, err := Complete(context.Background(), NewOllama(server.URL, "missing"), CompletionRequest{UserMessage: "hi"})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected 404 error, got %v", err)
	}
}

func TestOpenAIComplete_NonStreaming(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path: got %q", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "[\"rag\"]"}, "finish_reason": "stop"}]
		}`)
	}))
	defer server.Close()

	a := NewOpenAI("test-key", "", server.URL+"/v1")
	text, err := Complete(context.Background(), a, CompletionRequest{UserMessage: "label"})
	if err != nil {
		t.Fatal(err)
	}
	if text != `["rag"]` {
		t.Errorf("text: got %q", text)
	}
	if body["model"] != defaultOpenAIModel {
		t.Errorf("model: got %v", body["model"])
	}
}

func TestClaudeComplete_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-6",
			"content": [{"type": "text", "text": "[\"agents\"]"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`)
	}))
	defer server.Close()

	a := NewClaude("test-key", "", server.URL+"/v1")
	text, err := Complete(context.Background(), a, CompletionRequest{UserMessage: "label"})
	if err != nil {
		t.Fatal(err)
	}
	if text != `["agents"]` {
		t.Errorf("text: got %q", text)
	}
}
