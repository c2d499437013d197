package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient coin balance")
var ErrSelfTransfer = errors.New("cannot transfer coins to yourself")
var ErrDuplicateReference = errors.New("payment reference already submitted")
var ErrWithdrawalRole = errors.New("only announcers can request withdrawals")
var ErrEntryDecided = errors.New("ledger entry already decided")
var ErrBoostLock = errors.New("boost purchase locked")
var ErrDecisionLock = errors.New("ledger decision locked")

const (
	// wallet economics, fixed by contract
	TRANSFER_COMMISSION_PERCENT = 20
	BOOST_COST_COINS            = 100
	BOOST_DURATION              = 12 * time.Hour
	BOOST_COOLDOWN              = 24 * time.Hour
	MIN_WITHDRAWAL_COINS        = 100
	WITHDRAWAL_FIAT_PER_COIN    = 80
	SUBSCRIPTION_MONTH_DAYS     = 30
	DIAMOND_BONUS_BOOSTS        = 5

	CONFIG_FEED_LIMIT                 = "FEED_LIMIT"
	CONFIG_LEDGER_PAGE_LIMIT          = "LEDGER_PAGE_LIMIT"
	CONFIG_PREMIUM_REMINDER_HOURS     = "PREMIUM_REMINDER_HOURS"
	CONFIG_TRANSFER_LIMIT_PER_MINUTE  = "TRANSFER_LIMIT_PER_MINUTE"
	CONFIG_DEPOSIT_LIMIT_PER_MINUTE   = "DEPOSIT_LIMIT_PER_MINUTE"
	CONFIG_TEXT_TRANSFER_NOTIFICATION = "TEXT_TRANSFER_NOTIFICATION"
	CONFIG_TEXT_PREMIUM_REMINDER      = "TEXT_PREMIUM_REMINDER"

	DEFAULT_TEXT_PREMIUM_REMINDER      = "Your premium subscription expires within a day. Renew to keep your perks."
	DEFAULT_TEXT_TRANSFER_NOTIFICATION = "You received %d coins from @%s."

	DEFAULT_FEED_LIMIT                = 20
	DEFAULT_LEDGER_PAGE_LIMIT         = 20
	DEFAULT_PREMIUM_REMINDER_HOURS    = 24
	DEFAULT_TRANSFER_LIMIT_PER_MINUTE = 12
	DEFAULT_DEPOSIT_LIMIT_PER_MINUTE  = 6

	CACHE_TTL_5_SECONDS  = 5 * time.Second
	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_5_MINS     = 5 * time.Minute
)

func LockKeyBoostPurchase(userID string) string {
	return fmt.Sprintf("lock:boost-purchase:%s", userID)
}

func LockKeyLedgerDecision(entryID string) string {
	return fmt.Sprintf("lock:ledger-decision:%s", entryID)
}

// db
func DBKeyUser(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func DBKeyAccount(userID string) string {
	return fmt.Sprintf("account:%s", userID)
}

func DBKeyAd(adID int64) string {
	return fmt.Sprintf("ad:%d", adID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyContentPack(packID string) string {
	return fmt.Sprintf("content_pack:%s", packID)
}

func LimitKeyTransfer(userID string) string {
	return fmt.Sprintf("limit:transfer:%s", userID)
}

func LimitKeyDeposit(userID string) string {
	return fmt.Sprintf("limit:deposit:%s", userID)
}
