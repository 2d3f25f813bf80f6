package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultUpstream = "https://generativelanguage.googleapis.com"
	defaultModel    = "gemini-1.5-flash"
	maxHistory      = 20
)

const instruction = "You are a friendly librarian for a community book-sharing library. " +
	"Recommend a few specific books that match what the reader describes, " +
	"with one sentence on why each fits. Keep the answer short."

// ProxyConfig holds the server-side settings of the proxy. APIKey never
// leaves this process.
type ProxyConfig struct {
	Upstream   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// Proxy forwards recommendation requests to the generative model.
type Proxy struct {
	cfg     ProxyConfig
	handler http.Handler
}

// NewProxy builds the proxy's routes wrapped in the access log.
func NewProxy(cfg ProxyConfig) *Proxy {
	if strings.TrimSpace(cfg.Upstream) == "" {
		cfg.Upstream = defaultUpstream
	}
	cfg.Upstream = strings.TrimRight(cfg.Upstream, "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	}

	p := &Proxy{cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/recommend", p.handleRecommend)
	mux.HandleFunc("GET /healthz", p.handleHealth)
	p.handler = withRequestID(withAccessLog(mux))
	return p
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// ListenAndServe runs the proxy on addr until ctx is cancelled.
func (p *Proxy) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("assistant proxy listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (p *Proxy) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"configured": p.cfg.APIKey != "",
	})
}

func (p *Proxy) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, recommendResponse{Error: "invalid request body"})
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, recommendResponse{Error: ErrEmptyPrompt.Error()})
		return
	}
	if p.cfg.APIKey == "" {
		writeJSON(w, http.StatusServiceUnavailable, recommendResponse{Error: "assistant is not configured"})
		return
	}

	reply, err := p.generate(r.Context(), req.History, req.Prompt)
	if err != nil {
		log.Printf("assistant upstream failed: %v", err)
		writeJSON(w, http.StatusBadGateway, recommendResponse{Error: "assistant upstream failed"})
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Reply: reply})
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	SystemInstruction *genContent  `json:"systemInstruction,omitempty"`
	Contents          []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

func (p *Proxy) generate(ctx context.Context, history []Turn, prompt string) (string, error) {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	body := genRequest{SystemInstruction: &genContent{Parts: []genPart{{Text: instruction}}}}
	for _, turn := range history {
		text := strings.TrimSpace(turn.Content)
		if text == "" {
			continue
		}
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, genContent{Role: role, Parts: []genPart{{Text: text}}})
	}
	body.Contents = append(body.Contents, genContent{Role: "user", Parts: []genPart{{Text: prompt}}})

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode upstream request: %w", err)
	}
	endpoint := p.cfg.Upstream + "/v1beta/models/" + url.PathEscape(p.cfg.Model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	var decoded genResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}
	var sb strings.Builder
	for _, cand := range decoded.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", fmt.Errorf("upstream returned no text")
	}
	return reply, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s -> %d (%s) id=%s", r.Method, r.URL.Path, sw.status,
			time.Since(start).Truncate(time.Millisecond), w.Header().Get("X-Request-ID"))
	})
}

// withRequestID echoes the caller's X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
