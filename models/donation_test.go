package models

import (
	"testing"
	"time"
)

func TestDonationIsTerminal(t *testing.T) {
	cases := []struct {
		status   string
		terminal bool
	}{
		{DonationPending, false},
		{DonationSuccess, true},
		{DonationFailed, true},
		{DonationCancelled, true},
	}
	for _, tc := range cases {
		d := Donation{PaymentStatus: tc.status}
		if got := d.IsTerminal(); got != tc.terminal {
			t.Errorf("status %s: IsTerminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestRewardRedeemable(t *testing.T) {
	rewardID := uint(7)
	now := time.Now()

	base := Donation{
		RewardID:      &rewardID,
		PaymentStatus: DonationSuccess,
		RewardStatus:  RewardPending,
		CreatedAt:     now.Add(-24 * time.Hour),
	}
	if !base.RewardRedeemable(now) {
		t.Fatal("recent successful donation with pending reward should be redeemable")
	}

	noReward := base
	noReward.RewardID = nil
	if noReward.RewardRedeemable(now) {
		t.Error("donation without reward should not be redeemable")
	}

	notSettled := base
	notSettled.PaymentStatus = DonationPending
	if notSettled.RewardRedeemable(now) {
		t.Error("pending donation should not be redeemable")
	}

	alreadyRedeemed := base
	alreadyRedeemed.RewardStatus = RewardRedeemed
	if alreadyRedeemed.RewardRedeemable(now) {
		t.Error("already redeemed reward should not be redeemable again")
	}

	expired := base
	expired.CreatedAt = now.Add(-RewardRedemptionWindow - time.Hour)
	if expired.RewardRedeemable(now) {
		t.Error("reward outside the redemption window should not be redeemable")
	}

	atBoundary := base
	atBoundary.CreatedAt = now.Add(-RewardRedemptionWindow)
	if !atBoundary.RewardRedeemable(now) {
		t.Error("reward exactly at the window boundary should still be redeemable")
	}
}

func TestRewardAvailable(t *testing.T) {
	qty := 5
	r := Reward{IsActive: true, Quantity: &qty, ClaimedCount: 4}
	if !r.Available() {
		t.Error("reward with remaining quantity should be available")
	}
	r.ClaimedCount = 5
	if r.Available() {
		t.Error("sold-out reward should not be available")
	}
	r = Reward{IsActive: true}
	if !r.Available() {
		t.Error("unlimited active reward should be available")
	}
	r.IsActive = false
	if r.Available() {
		t.Error("inactive reward should not be available")
	}
}

func TestProjectAcceptsDonations(t *testing.T) {
	cases := []struct {
		status   string
		isActive bool
		accepts  bool
	}{
		{ProjectActive, true, true},
		{ProjectFunded, true, true},
		{ProjectDraft, true, false},
		{ProjectClosed, true, false},
		{ProjectActive, false, false},
	}
	for _, tc := range cases {
		p := Project{Status: tc.status, IsActive: tc.isActive}
		if got := p.AcceptsDonations(); got != tc.accepts {
			t.Errorf("status=%s active=%v: AcceptsDonations() = %v, want %v", tc.status, tc.isActive, got, tc.accepts)
		}
	}
}

func TestFundingProgress(t *testing.T) {
	p := Project{TargetAmount: 10000, CurrentAmount: 2500}
	if got := p.FundingProgress(); got != 25 {
		t.Errorf("FundingProgress() = %v, want 25", got)
	}
	p.TargetAmount = 0
	if got := p.FundingProgress(); got != 0 {
		t.Errorf("zero target: FundingProgress() = %v, want 0", got)
	}
}
