package services

import (
	"context"
	"testing"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransfer(t *testing.T) {
	assert.NoError(t, validateTransfer("alice", "bob", 100))

	err := validateTransfer("alice", "", 100)
	assert.EqualError(t, err, "missing recipient")

	err = validateTransfer("alice", "alice", 100)
	assert.ErrorIs(t, err, ErrSelfTransfer)

	err = validateTransfer("alice", "bob", 0)
	assert.EqualError(t, err, "amount must be positive")

	err = validateTransfer("alice", "bob", -10)
	assert.EqualError(t, err, "amount must be positive")
}

func TestTransferDescription(t *testing.T) {
	assert.Equal(t, "coins sent", transferDescription("sent", ""))
	assert.Equal(t, "coins received: unlock chat", transferDescription("received", "unlock chat"))
}

func TestTransferNotificationText(t *testing.T) {
	assert.Equal(t, "You got 160 coins from @alice!",
		transferNotificationText("You got %d coins from @%s!", 160, "alice"))

	// a mis-edited config row must not leak fmt noise to the recipient
	fallback := "You received 160 coins from @alice."
	assert.Equal(t, fallback, transferNotificationText("Coins from @%s: %d", 160, "alice"))
	assert.Equal(t, fallback, transferNotificationText("You received coins.", 160, "alice"))
	assert.Equal(t, fallback, transferNotificationText("%d %s %v", 160, "alice"))
}

func TestServiceWallet_Transfer(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	sender := seedFlowUser(t, db, "alice", models.RoleMember, 500)
	seedFlowUser(t, db, "bob", models.RoleAnnouncer, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	account, err := wallet.Transfer(ctx, sender, &TransferRequest{
		RecipientID: "bob",
		Amount:      200,
		Reason:      "unlock chat",
	})
	require.NoError(t, err)

	// sender pays face value, recipient receives it less the 20% commission
	assert.Equal(t, 300, account.Balance)
	assert.Equal(t, 300, accountBalance(t, db, "alice"))
	assert.Equal(t, 160, accountBalance(t, db, "bob"))

	sent, err := datastore.ListLedgerEntriesByOwner(ctx, db, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, models.LedgerKindSpend, sent[0].Kind)
	assert.Equal(t, 200, sent[0].Amount)

	received, err := datastore.ListLedgerEntriesByOwner(ctx, db, "bob", 10, 0)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, models.LedgerKindReceive, received[0].Kind)
	assert.Equal(t, 160, received[0].Amount)
}

func TestServiceWallet_Transfer_InsufficientFunds(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	sender := seedFlowUser(t, db, "alice", models.RoleMember, 100)
	seedFlowUser(t, db, "bob", models.RoleMember, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	_, err = wallet.Transfer(ctx, sender, &TransferRequest{RecipientID: "bob", Amount: 200})
	require.Error(t, err)

	assert.Equal(t, 100, accountBalance(t, db, "alice"))
	assert.Equal(t, 0, accountBalance(t, db, "bob"))
}

func TestServiceWallet_Transfer_RefundsWhenCreditFails(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	sender := seedFlowUser(t, db, "alice", models.RoleMember, 500)
	// the recipient exists but has no account row, so the credit update
	// matches nothing and the debit must be compensated
	_, err := datastore.CreateUser(ctx, db, &models.User{ID: "ghost", Username: "ghost", Role: models.RoleMember})
	require.NoError(t, err)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	_, err = wallet.Transfer(ctx, sender, &TransferRequest{RecipientID: "ghost", Amount: 200})
	require.Error(t, err)

	assert.Equal(t, 500, accountBalance(t, db, "alice"))

	// the failed transfer leaves no ledger trace on either side
	entries, err := datastore.ListLedgerEntriesByOwner(ctx, db, "alice", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServiceWallet_RequestWithdrawal(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	announcer := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	entry, err := wallet.RequestWithdrawal(ctx, announcer, 200, "bank-9")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusPending, entry.Status)
	assert.Equal(t, int64(16_000), entry.FiatAmount)

	// coins leave the spendable balance at request time
	assert.Equal(t, 300, accountBalance(t, db, "anna"))
}

func TestServiceWallet_RequestWithdrawal_Gates(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	member := seedFlowUser(t, db, "mia", models.RoleMember, 500)
	announcer := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 50)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	_, err = wallet.RequestWithdrawal(ctx, member, 200, "bank-9")
	require.Error(t, err)
	assert.ErrorContains(t, err, "announcer")
	assert.Equal(t, 500, accountBalance(t, db, "mia"))

	_, err = wallet.RequestWithdrawal(ctx, announcer, 200, "bank-9")
	require.Error(t, err)
	assert.Equal(t, 50, accountBalance(t, db, "anna"))

	_, err = wallet.RequestWithdrawal(ctx, announcer, 50, "bank-9")
	require.Error(t, err)
	assert.ErrorContains(t, err, "minimum withdrawal")
}

func TestServiceWallet_Decide_WithdrawalRejectionRestoresCoins(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	announcer := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)
	admin := seedFlowUser(t, db, "root", models.RoleAdmin, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	entry, err := wallet.RequestWithdrawal(ctx, announcer, 200, "bank-9")
	require.NoError(t, err)
	require.Equal(t, 300, accountBalance(t, db, "anna"))

	decided, err := wallet.Decide(ctx, admin, entry.ID, false, "payout details invalid")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusRejected, decided.Status)

	// rejection restores exactly what the request deducted
	assert.Equal(t, 500, accountBalance(t, db, "anna"))

	// the flip is one-shot; a repeat decision cannot double-credit
	_, err = wallet.Decide(ctx, admin, entry.ID, true, "")
	require.Error(t, err)
	assert.Equal(t, 500, accountBalance(t, db, "anna"))
}

func TestServiceWallet_Decide_WithdrawalApprovalKeepsDeduction(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	announcer := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)
	admin := seedFlowUser(t, db, "root", models.RoleAdmin, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	entry, err := wallet.RequestWithdrawal(ctx, announcer, 200, "bank-9")
	require.NoError(t, err)

	decided, err := wallet.Decide(ctx, admin, entry.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusCompleted, decided.Status)

	// the coins already left at request time; approval pays out fiat only
	assert.Equal(t, 300, accountBalance(t, db, "anna"))
}

func TestServiceWallet_Decide_DepositApprovalCredits(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	member := seedFlowUser(t, db, "mia", models.RoleMember, 0)
	admin := seedFlowUser(t, db, "root", models.RoleAdmin, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	entry, err := wallet.SubmitDeposit(ctx, member, "coins-500", "bank-tx-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusPending, entry.Status)

	// nothing lands before approval
	assert.Equal(t, 0, accountBalance(t, db, "mia"))

	// a second submission of the same proof is refused while one is live
	_, err = wallet.SubmitDeposit(ctx, member, "coins-500", "bank-tx-1", "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "reference")

	_, err = wallet.Decide(ctx, admin, entry.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, 500, accountBalance(t, db, "mia"))
}

func TestServiceWallet_Decide_AdminOnly(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	member := seedFlowUser(t, db, "mia", models.RoleMember, 0)

	wallet, err := do.Invoke[*ServiceWallet](injector)
	require.NoError(t, err)

	_, err = wallet.Decide(ctx, member, "whatever", true, "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "admin")
}
