package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"SignalSentinel/internal/logger"
)

const (
	// DefaultTelegramAPI is the Telegram Bot API host.
	DefaultTelegramAPI = "https://api.telegram.org"
	// MaxMessageLen is the Bot API limit for one message.
	MaxMessageLen = 4096
)

// TelegramNotifier delivers reports to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	APIBase  string
	BotToken string
	ChatID   string
	Client   *http.Client
	Logger   *logger.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *logger.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:  DefaultTelegramAPI,
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
		Logger:   log,
	}
}

// Enabled reports whether credentials are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text as HTML, split into several messages when it exceeds
// MaxMessageLen.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, MaxMessageLen) {
		if err := t.sendOne(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendOne(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, result.Description)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

// SendWithRetry retries Send with exponential backoff.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		lastErr = t.Send(ctx, text)
		if lastErr == nil {
			return nil
		}
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		t.Logger.Warn("telegram send failed",
			zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries+1),
			zap.Duration("backoff", backoff), zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

const (
	preOpen  = "<pre>"
	preClose = "</pre>"
)

// splitMessage cuts text at line breaks so every part fits in limit bytes.
// A <pre> block spanning a cut is closed at the end of one part and
// reopened at the start of the next. A single line longer than the room
// left is hard-cut on a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	budget := limit - len(preClose)

	var (
		parts  []string
		cur    strings.Builder
		inPre  bool
		reopen bool
	)
	flush := func() {
		if inPre {
			cur.WriteString(preClose)
		}
		parts = append(parts, cur.String())
		cur.Reset()
		reopen = inPre
	}
	write := func(seg string) {
		if reopen {
			reopen = false
			if strings.HasPrefix(seg, preClose) {
				seg = seg[len(preClose):]
				inPre = false
			} else {
				cur.WriteString(preOpen)
			}
		}
		cur.WriteString(seg)
		inPre = preState(seg, inPre)
	}
	need := func(seg string) int {
		n := cur.Len() + len(seg)
		if reopen {
			n += len(preOpen)
		}
		return n
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for line != "" {
			if need(line) <= budget {
				write(line)
				break
			}
			if cur.Len() > 0 {
				flush()
				continue
			}
			room := budget
			if reopen {
				room -= len(preOpen)
			}
			n := runeCut(line, room)
			write(line[:n])
			line = line[n:]
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// preState reports whether a <pre> block is open after seg.
func preState(seg string, open bool) bool {
	o := strings.LastIndex(seg, preOpen)
	c := strings.LastIndex(seg, preClose)
	if o < 0 && c < 0 {
		return open
	}
	return o > c
}

// runeCut returns the largest prefix length of s that is at most n bytes
// and ends on a rune boundary. At least one rune is always taken.
func runeCut(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if n == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return n
}
