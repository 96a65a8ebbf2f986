package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/TARS911/dongfeng-minitraktor-sub001/config"
)

// TelegramSender posts events to a chat through the Bot API sendMessage method.
type TelegramSender struct {
	rc     *resty.Client
	apiURL string
	token  string
	chatId string
}

func NewTelegramSender(cfg config.TelegramConfig, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		rc:     resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		token:  cfg.BotToken,
		chatId: cfg.ChatId,
	}
}

func (t *TelegramSender) Name() string { return "telegram" }

type telegramMessage struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramReply struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramSender) Send(ctx context.Context, e Event) error {
	resp, err := t.rc.R().
		SetContext(ctx).
		SetBody(telegramMessage{ChatId: t.chatId, Text: formatTelegram(e), ParseMode: "HTML"}).
		Post(t.apiURL + "/bot" + t.token + "/sendMessage")
	if err != nil {
		// the request URL carries the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}

	var reply telegramReply
	_ = json.Unmarshal(resp.Body(), &reply)
	if !reply.Ok {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), reply.Description)
	}
	return nil
}

func formatTelegram(e Event) string {
	var sb strings.Builder
	sb.WriteString("<b>" + html.EscapeString(e.Title) + "</b>\n")
	for _, f := range e.Fields {
		sb.WriteString("\n<b>" + html.EscapeString(f.Label) + ":</b> " + html.EscapeString(f.Value))
	}
	sb.WriteString("\n\n<i>" + e.OccurredAt.In(moscow).Format("02.01.2006 15:04") + " МСК</i>")
	return sb.String()
}

var moscow = time.FixedZone("MSK", 3*60*60)
