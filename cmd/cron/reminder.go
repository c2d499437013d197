package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/datastore/redis_store"
	"safeconnect/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	tele "gopkg.in/telebot.v3"
)

const CRONJOB_TIME_PREMIUM_REMINDER = "CRONJOB_TIME_PREMIUM_REMINDER"

type PremiumReminderJob struct {
	Redis     redis.UniversalClient
	Db        *bun.DB
	BotClient *tele.Bot
}

func NewPremiumReminderJob(redis redis.UniversalClient, db *bun.DB, botClient *tele.Bot) *PremiumReminderJob {
	return &PremiumReminderJob{
		Redis:     redis,
		Db:        db,
		BotClient: botClient,
	}
}

func (j *PremiumReminderJob) Start(cronRunner *cron.Cron) {
	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, CRONJOB_TIME_PREMIUM_REMINDER)
	if err != nil {
		fmt.Println(err)
		return
	}

	if timeline == nil || timeline.Value == "" {
		fmt.Println("No timeline found")
		return
	}

	_, err = cronRunner.AddFunc(timeline.Value, j.runScheduledTask)
	log.Println("Premium Reminder Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", timeline.Value, err)
}

func (j *PremiumReminderJob) runScheduledTask() {
	ctx := context.Background()
	log.Println("Start scan expiring subscriptions ...")

	windowHours := services.DEFAULT_PREMIUM_REMINDER_HOURS
	windowConfig, _ := datastore.GetConfigByKey(ctx, j.Db, services.CONFIG_PREMIUM_REMINDER_HOURS)
	if windowConfig != nil && windowConfig.Value != "" {
		if parsed, err := strconv.Atoi(windowConfig.Value); err == nil {
			windowHours = parsed
		}
	}

	now := time.Now()
	users, err := datastore.ListUsersWithPremiumExpiring(ctx, j.Db, now, now.Add(time.Duration(windowHours)*time.Hour))
	if err != nil {
		log.Println(err)
		return
	}

	log.Println("Number of users with expiring subscriptions:", len(users))

	textConfig, _ := datastore.GetConfigByKey(ctx, j.Db, services.CONFIG_TEXT_PREMIUM_REMINDER)
	text := services.DEFAULT_TEXT_PREMIUM_REMINDER
	if textConfig != nil && textConfig.Value != "" {
		text = textConfig.Value
	}

	for _, user := range users {
		if user.TelegramChatID == nil {
			continue
		}

		account, err := datastore.FindAccountByUserID(ctx, j.Db, user.ID)
		if err != nil || account == nil || account.PremiumUntil == nil {
			continue
		}

		// each (user, expiry) pair gets at most one reminder
		first, err := redis_store.MarkReminderSent(ctx, j.Redis, user.ID, *account.PremiumUntil)
		if err != nil {
			log.Println("User:", user.ID, "error marking reminder:", err)
			continue
		}
		if !first {
			continue
		}

		_, err = j.BotClient.Send(tele.ChatID(*user.TelegramChatID), text, &tele.SendOptions{
			ParseMode: tele.ModeHTML,
		})
		if err != nil {
			log.Println("User:", user.ID, user.Username, "error sending reminder:", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	log.Println("Done scan expiring subscriptions ...")
}
