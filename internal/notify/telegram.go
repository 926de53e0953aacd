package notify

import (
	"context"
	"time"

	"ethos/backend/internal/localization"
	"ethos/backend/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	queueSize   = 64
	sendTimeout = 10 * time.Second
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type alert struct {
	event    Event
	caseCode string
}

// TelegramNotifier posts alerts to a single HR chat from a background worker.
type TelegramNotifier struct {
	sender    Sender
	chatID    int64
	localizer *localization.Localizer
	lang      string
	queue     chan alert
}

// NewTelegramNotifier authorizes the bot and returns a notifier for chatID.
// Call Run to start delivery.
func NewTelegramNotifier(token string, chatID int64, l *localization.Localizer, lang string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	logger.Info("telegram notifier authorized", "account", bot.Self.UserName)
	return NewTelegramNotifierWithSender(bot, chatID, l, lang), nil
}

// NewTelegramNotifierWithSender is NewTelegramNotifier with an explicit sender.
func NewTelegramNotifierWithSender(sender Sender, chatID int64, l *localization.Localizer, lang string) *TelegramNotifier {
	if !l.HasLang(lang) {
		lang = localization.DefaultLang
	}
	return &TelegramNotifier{
		sender:    sender,
		chatID:    chatID,
		localizer: l,
		lang:      lang,
		queue:     make(chan alert, queueSize),
	}
}

// Notify queues an alert. When the queue is full the alert is dropped.
func (n *TelegramNotifier) Notify(_ context.Context, event Event, caseCode string) {
	select {
	case n.queue <- alert{event: event, caseCode: caseCode}:
	default:
		logger.Warn("notification queue full, alert dropped", "event", string(event), "case_code", caseCode)
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (n *TelegramNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-n.queue:
			n.deliver(a)
		}
	}
}

func (n *TelegramNotifier) deliver(a alert) {
	text := n.localizer.Format(n.lang, string(a.event), a.caseCode)
	msg := tgbotapi.NewMessage(n.chatID, text)

	done := make(chan error, 1)
	go func() {
		_, err := n.sender.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("telegram notification failed", "event", string(a.event), "case_code", a.caseCode, "error", err)
		}
	case <-time.After(sendTimeout):
		logger.Error("telegram notification timed out", "event", string(a.event), "case_code", a.caseCode)
	}
}
