package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferFee(t *testing.T) {
	tests := []struct {
		amount int
		fee    int
	}{
		{100, 20},
		{50, 10},
		{1, 0}, // integer division rounds the fee down
		{4, 0},
		{5, 1},
		{7, 1},
		{999, 199},
		{1000, 200},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.fee, TransferFee(tt.amount), "amount=%d", tt.amount)
	}
}

func TestRecipientCredit(t *testing.T) {
	// fee + credit always reconstructs the face value
	for _, amount := range []int{1, 5, 7, 99, 100, 1234} {
		assert.Equal(t, amount, TransferFee(amount)+RecipientCredit(amount), "amount=%d", amount)
	}

	assert.Equal(t, 80, RecipientCredit(100))
	assert.Equal(t, 1, RecipientCredit(1))
}

func TestWithdrawalFiat(t *testing.T) {
	assert.Equal(t, int64(8_000), WithdrawalFiat(MIN_WITHDRAWAL_COINS))
	assert.Equal(t, int64(12_000), WithdrawalFiat(150))
	assert.Equal(t, int64(80), WithdrawalFiat(1))
}
