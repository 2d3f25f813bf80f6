package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecommend_NoProxyUsesCannedReply(t *testing.T) {
	reply, err := NewClient("").Recommend(context.Background(), nil, "space opera")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !strings.Contains(reply, `"space opera"`) || !strings.Contains(reply, "Science Fiction") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestRecommend_EmptyPrompt(t *testing.T) {
	if _, err := NewClient("").Recommend(context.Background(), nil, "  "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
}

func TestRecommend_UnreachableProxyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	reply, err := NewClient(addr).Recommend(context.Background(), nil, "mysteries")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if reply != CannedReply("mysteries") {
		t.Fatalf("reply = %q, want canned reply", reply)
	}
}

func TestRecommend_PostsPromptAndHistory(t *testing.T) {
	var got recommendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/recommend" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(recommendResponse{Reply: "Read Dune."})
	}))
	t.Cleanup(server.Close)

	history := []Turn{{Role: RoleAssistant, Content: Greeting}}
	reply, err := NewClient(server.URL+"/").Recommend(context.Background(), history, " desert planets ")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if reply != "Read Dune." {
		t.Fatalf("reply = %q", reply)
	}
	if got.Prompt != "desert planets" || len(got.History) != 1 || got.History[0].Role != RoleAssistant {
		t.Fatalf("request body = %#v", got)
	}
}

func TestRecommend_ProxyErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, recommendResponse{Error: "assistant upstream failed"})
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(server.URL).Recommend(context.Background(), nil, "poetry")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v, want status 502", err)
	}
}

func TestProxy_MissingKeyIs503AndClientFallsBack(t *testing.T) {
	proxy := httptest.NewServer(NewProxy(ProxyConfig{}))
	t.Cleanup(proxy.Close)

	resp, err := http.Post(proxy.URL+"/v1/recommend", "application/json", strings.NewReader(`{"prompt":"x"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("proxy did not assign X-Request-ID")
	}

	reply, err := NewClient(proxy.URL).Recommend(context.Background(), nil, "x")
	if err != nil || reply != CannedReply("x") {
		t.Fatalf("reply = %q, %v", reply, err)
	}
}

func TestProxy_ForwardsToUpstream(t *testing.T) {
	var gotKey, gotPath string
	var gotBody genRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Try "},{"text":"Foundation."}]}}]}`))
	}))
	t.Cleanup(upstream.Close)

	proxy := httptest.NewServer(NewProxy(ProxyConfig{Upstream: upstream.URL, Model: "test-model", APIKey: "secret"}))
	t.Cleanup(proxy.Close)

	history := []Turn{
		{Role: RoleAssistant, Content: Greeting},
		{Role: RoleUser, Content: "something old"},
		{Role: RoleAssistant, Content: "Try Homer."},
	}
	reply, err := NewClient(proxy.URL).Recommend(context.Background(), history, "now sci-fi")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if reply != "Try Foundation." {
		t.Fatalf("reply = %q", reply)
	}
	if gotKey != "secret" {
		t.Fatalf("upstream key = %q", gotKey)
	}
	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Fatalf("upstream path = %q", gotPath)
	}
	if gotBody.SystemInstruction == nil || len(gotBody.Contents) != 4 {
		t.Fatalf("upstream body = %#v", gotBody)
	}
	if gotBody.Contents[0].Role != "model" || gotBody.Contents[3].Parts[0].Text != "now sci-fi" {
		t.Fatalf("contents = %#v", gotBody.Contents)
	}
}

func TestProxy_UpstreamFailureIs502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(upstream.Close)

	proxy := httptest.NewServer(NewProxy(ProxyConfig{Upstream: upstream.URL, APIKey: "secret"}))
	t.Cleanup(proxy.Close)

	resp, err := http.Post(proxy.URL+"/v1/recommend", "application/json", strings.NewReader(`{"prompt":"x"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	var body recommendResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if strings.Contains(body.Error, "secret") {
		t.Fatalf("error leaks key: %q", body.Error)
	}
}

func TestProxy_RejectsBadRequests(t *testing.T) {
	proxy := httptest.NewServer(NewProxy(ProxyConfig{APIKey: "secret"}))
	t.Cleanup(proxy.Close)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"blank prompt", http.MethodPost, `{"prompt":"  "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, proxy.URL+"/v1/recommend", strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			_ = resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestProxy_Healthz(t *testing.T) {
	proxy := httptest.NewServer(NewProxy(ProxyConfig{}))
	t.Cleanup(proxy.Close)

	resp, err := http.Get(proxy.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["configured"] != false {
		t.Fatalf("healthz = %d %#v", resp.StatusCode, body)
	}
}
