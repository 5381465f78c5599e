package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
)

func TestTelegramSink_EscapesHTMLAndPostsJSON(t *testing.T) {
	var captured struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sink := &TelegramSink{
		cfg:        TelegramConfig{Enabled: true, BotToken: "tok", ChatID: "123"},
		baseURL:    srv.URL,
		httpClient: srv.Client(),
		logger:     nil,
	}

	opp := &arbitrage.Opportunity{VenueA: types.VenuePoly, VenueB: types.VenueKalshi, Direction: types.DirectionAYesBNo, TitleA: "A <b>bold</b> & risky market"}
	if err := sink.send(context.Background(), formatTelegramMessage(opp)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/bottok/sendMessage" {
		t.Errorf("expected the bot-token path, got %s", gotPath)
	}
	if captured.ChatID != "123" {
		t.Errorf("expected chat_id 123, got %s", captured.ChatID)
	}
	if captured.ParseMode != "HTML" {
		t.Errorf("expected HTML parse mode, got %s", captured.ParseMode)
	}
	if !strings.Contains(captured.Text, "&lt;b&gt;") {
		t.Errorf("expected the message's angle brackets to be HTML-escaped, got %q", captured.Text)
	}
}

func TestTelegramSink_DisabledIsANoOp(t *testing.T) {
	sink := NewTelegramSink(TelegramConfig{Enabled: false}, nil)
	if err := sink.Notify(context.Background(), testOpportunity()); err != nil {
		t.Errorf("expected a disabled sink to no-op, got %v", err)
	}
}

func TestTelegramSink_MissingCredentialsErrors(t *testing.T) {
	sink := NewTelegramSink(TelegramConfig{Enabled: true}, nil)
	if err := sink.Notify(context.Background(), testOpportunity()); err == nil {
		t.Error("expected an error when bot_token/chat_id are unset")
	}
}
