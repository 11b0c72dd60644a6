package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForPoints(t *testing.T) {
	tests := []struct {
		balance int
		want    MembershipTier
	}{
		{0, TierBronze},
		{999, TierBronze},
		{1000, TierSilver},
		{4999, TierSilver},
		{5000, TierGold},
		{9999, TierGold},
		{10000, TierPlatinum},
		{250000, TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForPoints(tt.balance), "balance %d", tt.balance)
	}
}

func TestTierDropsWithBalance(t *testing.T) {
	// Tier is derived purely from the current balance, so spending points
	// can demote a customer
	assert.Equal(t, TierGold, TierForPoints(5000))
	assert.Equal(t, TierSilver, TierForPoints(5000-4000))
}
