package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

const (
	telegramSendTimeout = 15 * time.Second
	telegramAPIBaseURL  = "https://api.telegram.org"
)

// TelegramConfig holds the bot credentials and feature flag (spec §6
// notification.telegram).
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatID   string
}

// TelegramSink posts a formatted alert to a Telegram chat via the Bot API.
type TelegramSink struct {
	cfg        TelegramConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTelegramSink builds a TelegramSink. A disabled or incompletely
// configured sink logs a warning once at construction, matching the
// original notifier's startup warning. A disabled sink then no-ops on
// every Notify call; an enabled sink missing its bot token or chat id
// returns an error from every Notify call.
func NewTelegramSink(cfg TelegramConfig, logger *zap.Logger) *TelegramSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Warn("telegram-notifications-disabled")
	} else if cfg.BotToken == "" || cfg.ChatID == "" {
		logger.Warn("telegram-bot-token-or-chat-id-missing")
	}
	return &TelegramSink{
		cfg:        cfg,
		baseURL:    telegramAPIBaseURL,
		httpClient: &http.Client{Timeout: telegramSendTimeout},
		logger:     logger,
	}
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Notify(ctx context.Context, opp *arbitrage.Opportunity) error {
	if !t.cfg.Enabled {
		return nil
	}
	if t.cfg.BotToken == "" || t.cfg.ChatID == "" {
		return fmt.Errorf("telegram sink not configured")
	}

	return t.send(ctx, formatTelegramMessage(opp))
}

// SendTestMessage posts a connectivity check message to verify
// bot_token/chat_id. No command in this module calls it.
func (t *TelegramSink) SendTestMessage(ctx context.Context) error {
	if !t.cfg.Enabled {
		return fmt.Errorf("telegram notifications disabled")
	}
	return t.send(ctx, "Arbitrage scanner test message: Telegram configuration is working.")
}

func (t *TelegramSink) send(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.cfg.BotToken)

	escaped := htmlEscape(message)
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       escaped,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		ErrorCode   int    `json:"error_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram api error [%d]: %s", result.ErrorCode, result.Description)
	}

	return nil
}

// htmlEscape escapes the three characters Telegram's HTML parse mode
// treats as markup, mirroring the original notifier's escaping.
func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func formatTelegramMessage(opp *arbitrage.Opportunity) string {
	actionA, actionB := "Buy YES", "Buy NO"
	if opp.Direction == types.DirectionBYesANo {
		actionA, actionB = "Buy NO", "Buy YES"
	}

	sep := strings.Repeat("━", 21)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", sep)
	fmt.Fprintf(&b, "Edge: %.2f%%\n", opp.EdgePct)
	fmt.Fprintf(&b, "Combined price: %.2f%%\n\n", opp.CombinedPrice*100)
	fmt.Fprintf(&b, "Direction: %s %s + %s %s\n", opp.VenueA, actionA, opp.VenueB, actionB)
	fmt.Fprintf(&b, "%s\n\n", sep)
	fmt.Fprintf(&b, "%s\n  %s\n  %s\n\n", opp.VenueA, actionA, opp.TitleA)
	fmt.Fprintf(&b, "%s\n  %s\n  %s\n\n", opp.VenueB, actionB, opp.TitleB)
	fmt.Fprintf(&b, "%s\n", sep)
	fmt.Fprintf(&b, "Detected: %s\n", opp.LastSeenAt.Format("2006-01-02 15:04:05"))
	if opp.Derived {
		fmt.Fprintf(&b, "Note: one leg's quote is derived (1 - opposite side)\n")
	}
	fmt.Fprintf(&b, "Act promptly -- this system does not execute trades automatically.\n")

	return b.String()
}
