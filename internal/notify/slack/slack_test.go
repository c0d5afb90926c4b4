package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/triage"
)

func escalatedResult() *triage.Result {
	return &triage.Result{
		ID:               "01JN123",
		Category:         "tor-proxy",
		Classification:   classify.Escalate,
		Phase:            classify.PhaseAnalysis,
		Response:         "This query requires analysis of your environment.",
		ManualReview:     true,
		Duration:         3.4,
		InputTokensUsed:  800,
		OutputTokensUsed: 450,
		CreatedAt:        time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC),
	}
}

func TestSend_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)
	if err := n.Send(context.Background(), escalatedResult()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, fields, divider, response, divider, context = 7 blocks
	if len(blocks) != 7 {
		t.Errorf("blocks count = %d, want 7", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Manual Review Required") {
		t.Errorf("header text = %q, want manual review title", headerText)
	}
	if !strings.Contains(headerText, "tor-proxy") {
		t.Errorf("header text = %q, want category", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Error("header should carry the red circle for an escalation")
	}

	ctxBlock := blocks[6].(map[string]any)
	ctxText := ctxBlock["elements"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(ctxText, "01JN123") {
		t.Errorf("context text = %q, want triage ID", ctxText)
	}
}

func TestSend_DegradedTitle(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := escalatedResult()
	r.Classification = ""
	r.Phase = ""
	r.Errors = []triage.StageError{{Stage: triage.StageMatch, Message: "oracle down"}}

	if err := New(srv.URL).Send(context.Background(), r); err != nil {
		t.Fatalf("Send: %v", err)
	}

	header := got["blocks"].([]any)[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Triage Degraded") {
		t.Errorf("header text = %q, want degraded title", headerText)
	}
	if !strings.Contains(headerText, "\U0001f7e1") {
		t.Error("header should carry the yellow circle for degradation without escalation")
	}
}

func TestSend_EmptyWebhookIsNoop(t *testing.T) {
	t.Parallel()

	n := New("")
	if err := n.Send(context.Background(), escalatedResult()); err != nil {
		t.Fatalf("Send with empty webhook: %v", err)
	}
}

func TestSend_Non2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no_service", http.StatusGone)
	}))
	defer srv.Close()

	err := New(srv.URL).Send(context.Background(), escalatedResult())
	if err == nil {
		t.Fatal("expected error for non-2xx webhook response")
	}
	if !strings.Contains(err.Error(), "410") {
		t.Errorf("error = %v, want status code", err)
	}
}

func TestSend_TruncatesLongResponse(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := escalatedResult()
	r.Response = strings.Repeat("x", maxResponseLen+500)

	if err := New(srv.URL).Send(context.Background(), r); err != nil {
		t.Fatalf("Send: %v", err)
	}

	respBlock := got["blocks"].([]any)[4].(map[string]any)
	text := respBlock["text"].(map[string]any)["text"].(string)
	if !strings.Contains(text, "...") {
		t.Error("long response should be truncated with an ellipsis")
	}
	if len(text) > maxResponseLen+100 {
		t.Errorf("response block length = %d, want truncated near %d", len(text), maxResponseLen)
	}
}
