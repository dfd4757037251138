package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookNotifier posts lead events to an automation endpoint. Events go
// through a bounded queue drained by a single worker: one delivery attempt,
// no retries, failures logged and swallowed. A full queue drops the event
// rather than blocking the mutation that produced it.
type WebhookNotifier struct {
	url    string
	client *http.Client
	queue  chan interfaces.LeadEvent
	log    *zap.SugaredLogger
	wg     sync.WaitGroup
	once   sync.Once
}

const notifierQueueSize = 64

func NewWebhookNotifier(url string, log *zap.SugaredLogger) *WebhookNotifier {
	n := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		queue:  make(chan interfaces.LeadEvent, notifierQueueSize),
		log:    log,
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

func (n *WebhookNotifier) Notify(event interfaces.LeadEvent) {
	select {
	case n.queue <- event:
	default:
		n.log.Warnw("notifier queue full, dropping event", "event", event.Event, "leadId", event.LeadID)
	}
}

// Close stops the worker after the queued events have been attempted.
func (n *WebhookNotifier) Close() {
	n.once.Do(func() { close(n.queue) })
	n.wg.Wait()
}

func (n *WebhookNotifier) worker() {
	defer n.wg.Done()
	for event := range n.queue {
		n.deliver(n.url, event)
		if event.Event == "created" {
			// New leads also kick off the external scoring flow.
			n.deliver(n.url+"/lead-intake", map[string]string{
				"recordId": event.LeadID,
				"clientId": event.ClientID,
			})
		}
	}
}

func (n *WebhookNotifier) deliver(url string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.log.Errorw("notifier marshal failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		n.log.Errorw("notifier request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warnw("webhook delivery failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warnw("webhook delivery rejected", "url", url, "status", resp.StatusCode)
	}
}

// TelegramNotifier mirrors lead events into an operations chat. Optional:
// a missing or invalid token disables it silently.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zap.SugaredLogger
}

func NewTelegramNotifier(token string, chatID int64, log *zap.SugaredLogger) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Warnf("Telegram bot token issue: %v. Telegram notifications disabled.", err)
		return &TelegramNotifier{log: log}
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}
}

func (t *TelegramNotifier) Notify(event interfaces.LeadEvent) {
	if t.bot == nil {
		return
	}
	text := fmt.Sprintf("Lead %s: %s (client %s)", event.Event, event.LeadID, event.ClientID)
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warnw("telegram notification failed", "error", err)
	}
}

// FanoutNotifier delivers each event to every configured sink.
type FanoutNotifier []interfaces.Notifier

func (f FanoutNotifier) Notify(event interfaces.LeadEvent) {
	for _, n := range f {
		n.Notify(event)
	}
}
