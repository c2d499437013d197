package services

// TransferFee is the platform's cut of a peer transfer, rounded down.
func TransferFee(amount int) int {
	return amount * TRANSFER_COMMISSION_PERCENT / 100
}

// RecipientCredit is what the recipient's balance gains from a transfer of
// the given face value.
func RecipientCredit(amount int) int {
	return amount - TransferFee(amount)
}

// WithdrawalFiat converts a coin amount to the fiat payout at the fixed
// exchange rate.
func WithdrawalFiat(coins int) int64 {
	return int64(coins) * WITHDRAWAL_FIAT_PER_COIN
}
