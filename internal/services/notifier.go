package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"
)

// ServiceNotifier is the notification sink: it records an in-app message and
// pushes to whatever external channels the recipient connected. External
// delivery is fire-and-forget; failures are logged, never propagated.
type ServiceNotifier struct {
	container  *do.Injector
	postgresDB *bun.DB
	redisDB    redis.UniversalClient
	botToken   string
	webhook    *httpclient.Client

	botOnce sync.Once
	bot     *tele.Bot
}

func NewServiceNotifier(container *do.Injector, botToken string) (*ServiceNotifier, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	webhook := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetryCount(2),
	)

	return &ServiceNotifier{
		container:  container,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		botToken:   botToken,
		webhook:    webhook,
	}, nil
}

// Notify writes the in-app message synchronously and fans out to push
// channels in the background.
func (service *ServiceNotifier) Notify(ctx context.Context, fromID string, to *models.User, text string) error {
	message := &models.Message{
		ID:        uuid.NewString(),
		FromID:    fromID,
		ToID:      to.ID,
		Body:      text,
		Kind:      models.MessageKindSystem,
		CreatedAt: time.Now(),
	}

	_, err := datastore.InsertMessage(ctx, service.postgresDB, message)
	if err != nil {
		return err
	}

	go service.push(to, text)

	return nil
}

// DeliverContent sends one content message per URL from the seller to the
// buyer (automatic pack fulfillment).
func (service *ServiceNotifier) DeliverContent(ctx context.Context, fromID string, toID string, urls []string) error {
	now := time.Now()
	for _, url := range urls {
		message := &models.Message{
			ID:        uuid.NewString(),
			FromID:    fromID,
			ToID:      toID,
			Body:      url,
			Kind:      models.MessageKindContent,
			// fulfillment of a paid pack: born unlocked for the buyer
			UnlockedFor: []string{toID},
			CreatedAt:   now,
		}
		if _, err := datastore.InsertMessage(ctx, service.postgresDB, message); err != nil {
			return err
		}
	}

	return nil
}

// Inbox lists the user's messages, newest first. Paid content stays masked
// until the viewer appears in the message's unlock set.
func (service *ServiceNotifier) Inbox(ctx context.Context, user *models.User, page int, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 0 {
		page = 0
	}

	messages, err := datastore.ListMessagesForUser(ctx, service.postgresDB, user.ID, limit, page*limit)
	if err != nil {
		return nil, err
	}

	for _, message := range messages {
		if message.Kind == models.MessageKindContent && !message.UnlockedForUser(user.ID) {
			message.Body = ""
		}
	}

	return messages, nil
}

func (service *ServiceNotifier) push(to *models.User, text string) {
	if to.TelegramChatID != nil {
		if err := service.sendTelegram(*to.TelegramChatID, text); err != nil {
			log.Println("telegram push failed:", "user:", to.ID, err)
		}
	}

	if to.WebhookURL != nil && *to.WebhookURL != "" {
		if err := service.sendWebhook(*to.WebhookURL, to.ID, text); err != nil {
			log.Println("webhook push failed:", "user:", to.ID, err)
		}
	}
}

// telegramBot builds the send-only bot on first use and reuses it for every
// push afterwards; tele.NewBot does a getMe roundtrip, too expensive per
// message.
func (service *ServiceNotifier) telegramBot() *tele.Bot {
	service.botOnce.Do(func() {
		b, err := tele.NewBot(tele.Settings{Token: service.botToken})
		if err != nil {
			log.Println("telegram bot init failed:", err)
			return
		}
		service.bot = b
	})
	return service.bot
}

func (service *ServiceNotifier) sendTelegram(chatID int64, text string) error {
	if service.botToken == "" {
		return nil
	}

	b := service.telegramBot()
	if b == nil {
		return errors.New("telegram bot unavailable")
	}

	_, err := b.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	return err
}

func (service *ServiceNotifier) sendWebhook(url string, userID string, text string) error {
	payload, err := json.Marshal(map[string]string{
		"user_id": userID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	res, err := service.webhook.Post(url, bytes.NewReader(payload), headers)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return nil
}
