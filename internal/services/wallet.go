package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/datastore/redis_store"
	"safeconnect/internal/interfaces"
	"safeconnect/internal/models"
	"safeconnect/internal/pkg/caching"

	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceWallet struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	rs                 *redsync.Redsync
	limiter            interfaces.Limiter

	serviceUser   *ServiceUser
	serviceConfig *ServiceConfig
	notifier      *ServiceNotifier
}

func NewServiceWallet(container *do.Injector) (*ServiceWallet, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[*ServiceNotifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceWallet{
		container, redisDB, postgresDB, readonlyPostgresDB, cache, readonlyCache, rs, rateLimiter,
		serviceUser, serviceConfig, notifier,
	}, nil
}

// Wallet returns the caller's account state, reading the write database so
// a just-completed operation is always visible.
func (service *ServiceWallet) Wallet(ctx context.Context, userID string) (*models.Account, error) {
	account, err := service.serviceUser.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return account, nil
}

func (service *ServiceWallet) Ledger(ctx context.Context, userID string, page int, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit, _ = service.serviceConfig.GetIntConfig(ctx, CONFIG_LEDGER_PAGE_LIMIT, DEFAULT_LEDGER_PAGE_LIMIT)
	}
	if page < 0 {
		page = 0
	}

	entries, err := datastore.ListLedgerEntriesByOwner(ctx, service.readonlyPostgresDB, userID, limit, page*limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entries, nil
}

func (service *ServiceWallet) Feed(ctx context.Context, userID string) ([]*models.ActivityItem, error) {
	feedLimit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_FEED_LIMIT, DEFAULT_FEED_LIMIT)
	items, err := redis_store.ListActivity(ctx, service.redisDB, userID, feedLimit)
	if err != nil && err != redis.Nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return items, nil
}

// SubmitDeposit records a pending deposit entry for later manual approval.
// The balance is untouched until the entry is approved.
func (service *ServiceWallet) SubmitDeposit(ctx context.Context, user *models.User, packageID string, referenceID string, bankRef string) (*models.LedgerEntry, error) {
	depositLimit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_DEPOSIT_LIMIT_PER_MINUTE, DEFAULT_DEPOSIT_LIMIT_PER_MINUTE)
	err := service.limiter.Allow(ctx, LimitKeyDeposit(user.ID), redis_rate.PerMinute(depositLimit))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, err
	}

	pkg, ok := models.FindCoinPackage(packageID)
	if !ok {
		return nil, errorx.Wrap(errors.New("unknown coin package"), errorx.Invalid)
	}

	if referenceID == "" {
		return nil, errorx.Wrap(errors.New("missing payment reference"), errorx.Invalid)
	}

	if err := service.checkReference(ctx, user.ID, referenceID); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("deposit %d coins (package %s)", pkg.Coins, pkg.ID)
	if bankRef != "" {
		description = fmt.Sprintf("%s, bank ref %s", description, bankRef)
	}

	entry := &models.LedgerEntry{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Kind:        models.LedgerKindDeposit,
		Amount:      pkg.Coins,
		FiatAmount:  pkg.FiatPrice,
		Currency:    models.CurrencyFiat,
		Status:      models.LedgerStatusPending,
		ReferenceID: &referenceID,
		PackageID:   &pkg.ID,
		Description: description,
		CreatedAt:   time.Now(),
	}

	entry, err = datastore.InsertLedgerEntry(ctx, service.postgresDB, entry)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entry, nil
}

// SubmitSubscriptionPurchase records a pending fiat subscription purchase.
// The plan grant happens on approval, never here.
func (service *ServiceWallet) SubmitSubscriptionPurchase(ctx context.Context, user *models.User, plan string, months int, referenceID string) (*models.LedgerEntry, error) {
	planPackage, ok := models.FindPremiumPlanPackage(plan)
	if !ok {
		return nil, errorx.Wrap(errors.New("unknown premium plan"), errorx.Invalid)
	}

	if months <= 0 {
		months = 1
	}

	if referenceID == "" {
		return nil, errorx.Wrap(errors.New("missing payment reference"), errorx.Invalid)
	}

	if err := service.checkReference(ctx, user.ID, referenceID); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Kind:        models.LedgerKindSubscription,
		Amount:      0,
		FiatAmount:  planPackage.FiatPrice * int64(months),
		Currency:    models.CurrencyFiat,
		Status:      models.LedgerStatusPending,
		ReferenceID: &referenceID,
		Plan:        &planPackage.Plan,
		Months:      months,
		Description: fmt.Sprintf("%s subscription, %d month(s)", planPackage.Plan, months),
		CreatedAt:   time.Now(),
	}

	entry, err := datastore.InsertLedgerEntry(ctx, service.postgresDB, entry)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entry, nil
}

type TransferRequest struct {
	RecipientID     string  `json:"recipient_id"`
	Amount          int     `json:"amount"`
	Reason          string  `json:"reason"`
	UnlockMessageID *string `json:"unlock_message_id"`
	PackID          *string `json:"pack_id"`
}

// Transfer moves coins between two accounts. The sender debit is the only
// hard gate; everything after the recipient credit is best-effort and never
// unwinds the balances.
func (service *ServiceWallet) Transfer(ctx context.Context, sender *models.User, req *TransferRequest) (*models.Account, error) {
	if err := validateTransfer(sender.ID, req.RecipientID, req.Amount); err != nil {
		return nil, errorx.Wrap(err, errorx.Invalid)
	}

	transferLimit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_TRANSFER_LIMIT_PER_MINUTE, DEFAULT_TRANSFER_LIMIT_PER_MINUTE)
	err := service.limiter.Allow(ctx, LimitKeyTransfer(sender.ID), redis_rate.PerMinute(transferLimit))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, err
	}

	senderAccount, err := datastore.DebitBalance(ctx, service.postgresDB, sender.ID, req.Amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(ErrInsufficientFunds, errorx.Invalid)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	credit := RecipientCredit(req.Amount)
	_, err = datastore.CreditBalance(ctx, service.postgresDB, req.RecipientID, credit)
	if err != nil {
		// the sender already paid; put the coins back before failing
		service.refund(ctx, sender.ID, req.Amount, "transfer credit failed")
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(errors.New("recipient not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.serviceUser.ClearAccountCache(ctx, sender.ID)
	service.serviceUser.ClearAccountCache(ctx, req.RecipientID)

	// side effects below are best-effort: the balances above are the source
	// of truth and are never unwound for a ledger or delivery failure
	service.transferSideEffects(ctx, sender, req, credit)

	return senderAccount, nil
}

func (service *ServiceWallet) transferSideEffects(ctx context.Context, sender *models.User, req *TransferRequest, credit int) {
	now := time.Now()

	if req.UnlockMessageID != nil && *req.UnlockMessageID != "" {
		message, err := datastore.FindMessageByID(ctx, service.postgresDB, *req.UnlockMessageID)
		switch {
		case err != nil:
			log.Println("unlock lookup failed:", "message:", *req.UnlockMessageID, err)
		case message.FromID != req.RecipientID:
			// only content sent by the paid counterparty can be unlocked
			log.Println("unlock skipped, wrong counterparty:", "message:", message.ID)
		default:
			if err := datastore.UnlockMessageForUser(ctx, service.postgresDB, message.ID, sender.ID); err != nil {
				log.Println("unlock message failed:", "message:", message.ID, err)
			}
		}
	}

	if req.PackID != nil && *req.PackID != "" {
		pack, err := datastore.FindContentPackByID(ctx, service.postgresDB, *req.PackID)
		if err != nil {
			log.Println("pack lookup failed:", "pack:", *req.PackID, err)
		} else if pack.OwnerID == req.RecipientID && len(pack.ContentURLs) > 0 {
			if err := service.notifier.DeliverContent(ctx, req.RecipientID, sender.ID, pack.ContentURLs); err != nil {
				log.Println("pack delivery failed:", "pack:", pack.ID, err)
			}
		}
	}

	spend := &models.LedgerEntry{
		ID:             uuid.NewString(),
		OwnerID:        sender.ID,
		Kind:           models.LedgerKindSpend,
		Amount:         req.Amount,
		Currency:       models.CurrencyCoins,
		Status:         models.LedgerStatusCompleted,
		CounterpartyID: &req.RecipientID,
		Description:    transferDescription("sent", req.Reason),
		CreatedAt:      now,
	}
	if _, err := datastore.InsertLedgerEntry(ctx, service.postgresDB, spend); err != nil {
		log.Println("spend ledger append failed:", "user:", sender.ID, err)
	}

	receive := &models.LedgerEntry{
		ID:             uuid.NewString(),
		OwnerID:        req.RecipientID,
		Kind:           models.LedgerKindReceive,
		Amount:         credit,
		Currency:       models.CurrencyCoins,
		Status:         models.LedgerStatusCompleted,
		CounterpartyID: &sender.ID,
		Description:    transferDescription("received", req.Reason),
		CreatedAt:      now,
	}
	if _, err := datastore.InsertLedgerEntry(ctx, service.postgresDB, receive); err != nil {
		log.Println("receive ledger append failed:", "user:", req.RecipientID, err)
	}

	recipient, err := service.serviceUser.FindUserByID(ctx, req.RecipientID)
	if err != nil {
		log.Println("recipient lookup failed:", "user:", req.RecipientID, err)
	} else {
		template, err := service.serviceConfig.GetStringConfig(ctx, CONFIG_TEXT_TRANSFER_NOTIFICATION, DEFAULT_TEXT_TRANSFER_NOTIFICATION)
		if err != nil {
			template = DEFAULT_TEXT_TRANSFER_NOTIFICATION
		}
		text := transferNotificationText(template, credit, sender.Username)
		if err := service.notifier.Notify(ctx, sender.ID, recipient, text); err != nil {
			log.Println("transfer notification failed:", "user:", recipient.ID, err)
		}
	}

	service.pushFeed(ctx, sender.ID, &models.ActivityItem{
		Kind: models.LedgerKindSpend, Amount: req.Amount, Counterparty: req.RecipientID,
		Description: spend.Description, CreatedAt: now,
	})
	service.pushFeed(ctx, req.RecipientID, &models.ActivityItem{
		Kind: models.LedgerKindReceive, Amount: credit, Counterparty: sender.ID,
		Description: receive.Description, CreatedAt: now,
	})
}

// RequestWithdrawal deducts the coins up front and parks a pending entry for
// manual review. Rejection later restores the coins; approval pays out.
func (service *ServiceWallet) RequestWithdrawal(ctx context.Context, user *models.User, amount int, destination string) (*models.LedgerEntry, error) {
	if amount < MIN_WITHDRAWAL_COINS {
		return nil, errorx.Wrap(fmt.Errorf("minimum withdrawal is %d coins", MIN_WITHDRAWAL_COINS), errorx.Invalid)
	}

	if destination == "" {
		return nil, errorx.Wrap(errors.New("missing destination account"), errorx.Invalid)
	}

	roles := []string{models.RoleAnnouncer, models.RoleAdmin}
	_, err := datastore.DebitBalanceWithRole(ctx, service.postgresDB, user.ID, amount, roles)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, errorx.Wrap(err, errorx.Service)
		}

		// the combined predicate failed; a follow-up read tells the caller
		// which half, purely for the error message
		account, readErr := service.serviceUser.FindAccountByUserIDNoCache(ctx, user.ID)
		if readErr != nil {
			return nil, errorx.Wrap(readErr, errorx.Service)
		}
		if !user.CanWithdraw() {
			return nil, errorx.Wrap(ErrWithdrawalRole, errorx.Authn)
		}
		if account.Balance < amount {
			return nil, errorx.Wrap(ErrInsufficientFunds, errorx.Invalid)
		}
		return nil, errorx.Wrap(errors.New("withdrawal rejected"), errorx.Service)
	}

	service.serviceUser.ClearAccountCache(ctx, user.ID)

	entry := &models.LedgerEntry{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Kind:        models.LedgerKindWithdrawal,
		Amount:      amount,
		FiatAmount:  WithdrawalFiat(amount),
		Currency:    models.CurrencyCoins,
		Status:      models.LedgerStatusPending,
		Destination: &destination,
		Description: fmt.Sprintf("withdrawal of %d coins to %s", amount, destination),
		CreatedAt:   time.Now(),
	}

	entry, err = datastore.InsertLedgerEntry(ctx, service.postgresDB, entry)
	if err != nil {
		// the deduction already happened; compensate before surfacing
		service.refund(ctx, user.ID, amount, "withdrawal entry insert failed")
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entry, nil
}

func (service *ServiceWallet) PendingEntries(ctx context.Context, admin *models.User, page int, limit int) ([]*models.LedgerEntry, error) {
	if !admin.IsAdmin() {
		return nil, errorx.Wrap(errors.New("admin only"), errorx.Authn)
	}

	if limit <= 0 {
		limit = DEFAULT_LEDGER_PAGE_LIMIT
	}
	if page < 0 {
		page = 0
	}

	entries, err := datastore.ListPendingLedgerEntries(ctx, service.readonlyPostgresDB, limit, page*limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entries, nil
}

// Decide finalizes a pending ledger entry. The status flip is a conditional
// update keyed on status=pending, so the deferred effect applies exactly
// once no matter how often an operator clicks.
func (service *ServiceWallet) Decide(ctx context.Context, admin *models.User, entryID string, approve bool, reason string) (*models.LedgerEntry, error) {
	if !admin.IsAdmin() {
		return nil, errorx.Wrap(errors.New("admin only"), errorx.Authn)
	}

	mutex := service.rs.NewMutex(LockKeyLedgerDecision(entryID))
	if err := mutex.TryLock(); err != nil {
		return nil, errorx.Wrap(ErrDecisionLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	status := models.LedgerStatusCompleted
	var rejectionReason *string
	if !approve {
		status = models.LedgerStatusRejected
		if reason == "" {
			reason = "rejected by operator"
		}
		rejectionReason = &reason
	}

	entry, err := datastore.DecideLedgerEntry(ctx, service.postgresDB, entryID, status, rejectionReason)
	if err != nil {
		if err == sql.ErrNoRows {
			// either the id is unknown or the entry was decided before
			if _, findErr := datastore.FindLedgerEntryByID(ctx, service.postgresDB, entryID); findErr == sql.ErrNoRows {
				return nil, errorx.Wrap(errors.New("ledger entry not found"), errorx.NotExist)
			}
			return nil, errorx.Wrap(ErrEntryDecided, errorx.Invalid)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if err := service.applyDecision(ctx, entry, approve); err != nil {
		return nil, err
	}

	service.serviceUser.ClearAccountCache(ctx, entry.OwnerID)
	service.notifyDecision(ctx, entry, approve, reason)

	return entry, nil
}

// applyDecision performs the deferred balance/plan effect for an entry whose
// status was just flipped by the caller.
func (service *ServiceWallet) applyDecision(ctx context.Context, entry *models.LedgerEntry, approve bool) error {
	now := time.Now()

	switch entry.Kind {
	case models.LedgerKindDeposit:
		if !approve {
			return nil // nothing was applied at submission time
		}
		if _, err := datastore.CreditBalance(ctx, service.postgresDB, entry.OwnerID, entry.Amount); err != nil {
			log.Println("deposit credit failed:", "entry:", entry.ID, err)
			return errorx.Wrap(err, errorx.Service)
		}
		service.pushFeed(ctx, entry.OwnerID, &models.ActivityItem{
			Kind: entry.Kind, Amount: entry.Amount, Description: entry.Description, CreatedAt: now,
		})

	case models.LedgerKindSubscription:
		if !approve || entry.Plan == nil {
			return nil
		}
		planPackage, ok := models.FindPremiumPlanPackage(*entry.Plan)
		if !ok {
			return errorx.Wrap(fmt.Errorf("entry %s references unknown plan %s", entry.ID, *entry.Plan), errorx.Service)
		}
		account, err := service.serviceUser.FindAccountByUserIDNoCache(ctx, entry.OwnerID)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		until := models.NextPremiumUntil(account, planPackage.Plan, now, entry.Months)
		if _, err := datastore.GrantPremium(ctx, service.postgresDB, entry.OwnerID, planPackage.Plan, until, planPackage.BonusBoosts); err != nil {
			log.Println("premium grant failed:", "entry:", entry.ID, err)
			return errorx.Wrap(err, errorx.Service)
		}

	case models.LedgerKindWithdrawal:
		if approve {
			return nil // coins already left the spendable balance
		}
		if _, err := datastore.CreditBalance(ctx, service.postgresDB, entry.OwnerID, entry.Amount); err != nil {
			log.Println("withdrawal restore failed:", "entry:", entry.ID, err)
			return errorx.Wrap(err, errorx.Service)
		}
	}

	return nil
}

func (service *ServiceWallet) notifyDecision(ctx context.Context, entry *models.LedgerEntry, approve bool, reason string) {
	owner, err := service.serviceUser.FindUserByID(ctx, entry.OwnerID)
	if err != nil {
		log.Println("owner lookup failed:", "entry:", entry.ID, err)
		return
	}

	var text string
	if approve {
		text = fmt.Sprintf("Your %s request was approved.", entry.Kind)
	} else {
		text = fmt.Sprintf("Your %s request was rejected: %s", entry.Kind, reason)
	}

	if err := service.notifier.Notify(ctx, entry.OwnerID, owner, text); err != nil {
		log.Println("decision notification failed:", "entry:", entry.ID, err)
	}
}

// refund is the compensating action for a debit whose follow-up step failed.
// A refund failure is the one state we cannot repair in-band, so it is
// logged with everything an operator needs.
func (service *ServiceWallet) refund(ctx context.Context, userID string, amount int, cause string) {
	if _, err := datastore.CreditBalance(ctx, service.postgresDB, userID, amount); err != nil {
		log.Println("REFUND FAILED:", "user:", userID, "amount:", amount, "cause:", cause, err)
		return
	}
	service.serviceUser.ClearAccountCache(ctx, userID)
	log.Println("refunded:", "user:", userID, "amount:", amount, "cause:", cause)
}

func (service *ServiceWallet) pushFeed(ctx context.Context, userID string, item *models.ActivityItem) {
	if err := redis_store.PushActivity(ctx, service.redisDB, userID, item); err != nil {
		log.Println("feed push failed:", "user:", userID, err)
	}
}

func (service *ServiceWallet) checkReference(ctx context.Context, ownerID string, referenceID string) error {
	used, err := datastore.HasEntryWithReference(ctx, service.postgresDB, ownerID, referenceID)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if used {
		return errorx.Wrap(ErrDuplicateReference, errorx.Invalid)
	}
	return nil
}

func validateTransfer(senderID string, recipientID string, amount int) error {
	if recipientID == "" {
		return errors.New("missing recipient")
	}
	if senderID == recipientID {
		return ErrSelfTransfer
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

// transferNotificationText renders the operator-editable template. The
// template lives in the config table, so a mis-edited row must degrade to the
// default instead of sending %! garbage to the recipient.
func transferNotificationText(template string, credit int, username string) string {
	text := fmt.Sprintf(template, credit, username)
	if strings.Contains(text, "%!") {
		return fmt.Sprintf(DEFAULT_TEXT_TRANSFER_NOTIFICATION, credit, username)
	}
	return text
}

func transferDescription(direction string, reason string) string {
	if reason == "" {
		return fmt.Sprintf("coins %s", direction)
	}
	return fmt.Sprintf("coins %s: %s", direction, reason)
}
