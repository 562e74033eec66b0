package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"tripflow/internal/app"
	"tripflow/internal/ratelimit"
	"tripflow/pkg/domain"
	"tripflow/pkg/store"
)

type fakeGenerator struct {
	fragments []string
	streamErr error
	title     string
	titleErr  error
}

func (f *fakeGenerator) GenerateText(context.Context, string, string) (string, error) {
	return f.title, f.titleErr
}

func (f *fakeGenerator) StreamChat(_ context.Context, _ string, _ []domain.ChatMessage, _ string, onText func(string) error) (string, error) {
	var full strings.Builder
	for _, fragment := range f.fragments {
		full.WriteString(fragment)
		if onText != nil {
			if err := onText(fragment); err != nil {
				return full.String(), err
			}
		}
	}
	return full.String(), f.streamErr
}

type testServerOptions struct {
	gen     *fakeGenerator
	store   store.Store
	limiter *ratelimit.FixedWindowLimiter
}

func newTestServer(t *testing.T, opts testServerOptions) *httptest.Server {
	t.Helper()
	cfg := app.Config{Store: opts.store}
	if opts.gen != nil {
		cfg.Generator = opts.gen
	}
	appCore, err := app.New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore, Limiter: opts.limiter}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func readSSEEvents(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	defer resp.Body.Close()
	var events []sseEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event sseEvent
		if err := json.Unmarshal([]byte(line[6:]), &event); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	return events
}

func TestChatStreamsFragmentsThenDone(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"부산 ", "3박4일 ", "일정입니다"}}
	mem := store.NewMemoryStore()
	srv := newTestServer(t, testServerOptions{gen: gen, store: mem})

	trip, _ := mem.CreateTrip(domain.Trip{Title: "새 여행"})
	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{
		"message": "3박4일 부산 여행 짜줘",
		"history": []domain.ChatMessage{},
		"tripId":  trip.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}

	events := readSSEEvents(t, resp)
	if len(events) < 2 {
		t.Fatalf("events = %+v, want at least one text and a done", events)
	}
	if events[len(events)-1].Type != "done" {
		t.Fatalf("last event = %+v, want done", events[len(events)-1])
	}
	var streamed strings.Builder
	for _, event := range events[:len(events)-1] {
		if event.Type != "text" {
			t.Fatalf("unexpected event before done: %+v", event)
		}
		streamed.WriteString(event.Content)
	}
	if streamed.String() != "부산 3박4일 일정입니다" {
		t.Fatalf("streamed = %q", streamed.String())
	}

	// The persisted assistant content equals the streamed concatenation.
	msgs, err := mem.ListMessages(trip.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("roles = %q/%q, want user then assistant", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != streamed.String() {
		t.Fatalf("persisted content %q != streamed %q", msgs[1].Content, streamed.String())
	}
}

func TestChatEmptyMessageRejectedWithoutWrites(t *testing.T) {
	mem := store.NewMemoryStore()
	srv := newTestServer(t, testServerOptions{gen: &fakeGenerator{fragments: []string{"x"}}, store: mem})

	trip, _ := mem.CreateTrip(domain.Trip{})
	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "", "tripId": trip.ID})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msgs, _ := mem.ListMessages(trip.ID); len(msgs) != 0 {
		t.Fatalf("messages = %d, want none", len(msgs))
	}
}

func TestChatWithoutAPIKeyIs500(t *testing.T) {
	srv := newTestServer(t, testServerOptions{store: store.NewMemoryStore()})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hello"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected a JSON error body")
	}
}

func TestChatMidStreamFailureEmitsErrorEvent(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"절반까지 "}, streamErr: errors.New("provider hiccup")}
	srv := newTestServer(t, testServerOptions{gen: gen})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hi"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 once streaming started", resp.StatusCode)
	}
	events := readSSEEvents(t, resp)
	if len(events) != 2 {
		t.Fatalf("events = %+v, want text then error", events)
	}
	if events[0].Type != "text" || events[1].Type != "error" {
		t.Fatalf("events = %+v, want text then error", events)
	}
	if !strings.Contains(events[1].Content, "provider hiccup") {
		t.Fatalf("error content = %q", events[1].Content)
	}
}

func TestChatImmediateProviderFailureIsJSONError(t *testing.T) {
	gen := &fakeGenerator{streamErr: errors.New("upstream down")}
	srv := newTestServer(t, testServerOptions{gen: gen})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hi"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when the stream never opened", resp.StatusCode)
	}
}

func TestChatStorelessTurnStillStreams(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"ok"}}
	srv := newTestServer(t, testServerOptions{gen: gen})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hi", "tripId": "t-1"})
	events := readSSEEvents(t, resp)
	if len(events) != 2 || events[1].Type != "done" {
		t.Fatalf("events = %+v, want text then done", events)
	}
}

func TestChatRateLimited(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewFixedWindowLimiter(redis.Addr(), "", "test:chat", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	gen := &fakeGenerator{fragments: []string{"ok"}}
	srv := newTestServer(t, testServerOptions{gen: gen, limiter: limiter})

	first := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hi"})
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.StatusCode)
	}
	second := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hi"})
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.StatusCode)
	}
}

func TestChatPreflight(t *testing.T) {
	srv := newTestServer(t, testServerOptions{gen: &fakeGenerator{}})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
