package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/blockchain"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
)

func newRedeemFixture(minter *fakeMinter) (*RedeemService, *fakeWalletStore, *fakeRedemptions) {
	store := newFakeWalletStore()
	recs := &fakeRedemptions{}
	svc := NewRedeemService(store, recs, minter, testPointsConfig(), NewWalletLocks())
	svc.now = func() time.Time { return baseTime }
	return svc, store, recs
}

func enrollWithPoints(store *fakeWalletStore, pts float64) {
	store.rows[testWalletLC] = &models.StakingWallet{
		Wallet:     testWalletLC,
		LastPoints: pts,
		LastUpdate: baseTime.Add(-time.Hour),
		LastBalln:  1000,
		LastNFTs:   2,
	}
}

func TestRedeemInvalidWallet(t *testing.T) {
	svc, _, _ := newRedeemFixture(&fakeMinter{})

	_, err := svc.Redeem(context.Background(), "nope")
	require.Error(t, err)
	require.Equal(t, errors.ErrInvalidInput, errors.CodeOf(err))
}

func TestRedeemNotEnrolled(t *testing.T) {
	minter := &fakeMinter{}
	svc, _, recs := newRedeemFixture(minter)

	_, err := svc.Redeem(context.Background(), testWallet)
	require.Error(t, err)
	require.Equal(t, errors.ErrNotEnrolled, errors.CodeOf(err))
	require.Zero(t, minter.calls)
	require.Len(t, recs.recs, 0)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	minter := &fakeMinter{}
	svc, store, recs := newRedeemFixture(minter)
	enrollWithPoints(store, 100)

	_, err := svc.Redeem(context.Background(), testWallet)
	require.Error(t, err)
	require.Equal(t, errors.ErrInsufficientPoints, errors.CodeOf(err))

	// no state change, no mint attempt
	require.Equal(t, 100.0, store.rows[testWalletLC].LastPoints)
	require.Zero(t, minter.calls)
	require.Len(t, recs.recs, 0)
}

func TestRedeemSuccess(t *testing.T) {
	tokenID := "1234"
	minter := &fakeMinter{result: &blockchain.MintResult{TxHash: "0xabc", TokenID: &tokenID}}
	svc, store, recs := newRedeemFixture(minter)
	enrollWithPoints(store, 3333)

	res, err := svc.Redeem(context.Background(), testWallet)
	require.NoError(t, err)
	require.Equal(t, "0xabc", res.TxHash)
	require.NotNil(t, res.TokenID)
	require.Equal(t, "1234", *res.TokenID)
	require.Equal(t, 0.0, res.Points)

	require.Equal(t, 0.0, store.rows[testWalletLC].LastPoints)
	require.Equal(t, baseTime, store.rows[testWalletLC].LastUpdate)
	require.Len(t, recs.recs, 1)
	require.Equal(t, 3333.0, recs.recs[0].CostPoints)
	require.Equal(t, "0xabc", recs.recs[0].TxHash)
}

func TestRedeemSuccessWithoutTokenID(t *testing.T) {
	// token id parsing is best-effort; its absence is not a failure
	minter := &fakeMinter{result: &blockchain.MintResult{TxHash: "0xdef", TokenID: nil}}
	svc, store, recs := newRedeemFixture(minter)
	enrollWithPoints(store, 4000)

	res, err := svc.Redeem(context.Background(), testWallet)
	require.NoError(t, err)
	require.Nil(t, res.TokenID)
	require.InDelta(t, 667.0, store.rows[testWalletLC].LastPoints, 1e-9)
	require.Len(t, recs.recs, 1)
	require.Nil(t, recs.recs[0].TokenID)
}

func TestRedeemMintFailureCompensates(t *testing.T) {
	minter := &fakeMinter{err: stderrors.New("rpc timeout")}
	svc, store, recs := newRedeemFixture(minter)
	enrollWithPoints(store, 5000)

	_, err := svc.Redeem(context.Background(), testWallet)
	require.Error(t, err)
	require.Equal(t, errors.ErrRedemptionFailed, errors.CodeOf(err))

	// full restoration, no redemption record
	require.Equal(t, 5000.0, store.rows[testWalletLC].LastPoints)
	require.Len(t, recs.recs, 0)
}

func TestRedeemCompensationFailureIsCritical(t *testing.T) {
	minter := &fakeMinter{err: stderrors.New("mint reverted")}
	svc, store, _ := newRedeemFixture(minter)
	enrollWithPoints(store, 5000)

	// first UpdateLocked (deduction) succeeds, second (compensation) fails
	store.errOnUpdate = 2
	store.updateErr = stderrors.New("connection lost")

	_, err := svc.Redeem(context.Background(), testWallet)
	require.Error(t, err)
	require.Equal(t, errors.ErrCriticalInconsistency, errors.CodeOf(err))

	// the deduction stuck: this is exactly the state requiring reconciliation
	require.Equal(t, 5000.0-3333.0, store.rows[testWalletLC].LastPoints)
}

func TestRedeemExactCost(t *testing.T) {
	minter := &fakeMinter{result: &blockchain.MintResult{TxHash: "0x1"}}
	svc, store, _ := newRedeemFixture(minter)
	enrollWithPoints(store, 3333)

	res, err := svc.Redeem(context.Background(), testWallet)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Points)
	require.Equal(t, 0.0, store.rows[testWalletLC].LastPoints)
}

func TestRedeemCanceledRequestStillCompensates(t *testing.T) {
	minter := &fakeMinter{err: context.Canceled}
	svc, store, _ := newRedeemFixture(minter)
	enrollWithPoints(store, 4000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Redeem(ctx, testWallet)
	require.Error(t, err)
	require.Equal(t, errors.ErrRedemptionFailed, errors.CodeOf(err))
	require.Equal(t, 4000.0, store.rows[testWalletLC].LastPoints)
}
