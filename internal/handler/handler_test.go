package handler_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/blockchain"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/handler"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/models"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/service"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "text", "stderr"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const wallet = "0x4afc7838167b77530278483c3d8c1ffe698a912e"

type memStore struct {
	rows map[string]*models.StakingWallet
}

func (m *memStore) Get(_ context.Context, w string) (*models.StakingWallet, error) {
	if row, ok := m.rows[w]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) Enroll(_ context.Context, w string, bal float64, nfts int64, now time.Time) (*models.StakingWallet, bool, error) {
	if row, ok := m.rows[w]; ok {
		row.LastUpdate, row.LastBalln, row.LastNFTs = now, bal, nfts
		cp := *row
		return &cp, false, nil
	}
	row := &models.StakingWallet{Wallet: w, LastUpdate: now, LastBalln: bal, LastNFTs: nfts}
	m.rows[w] = row
	cp := *row
	return &cp, true, nil
}

func (m *memStore) UpdateLocked(_ context.Context, w string, fn func(*models.StakingWallet) error) (*models.StakingWallet, error) {
	row, ok := m.rows[w]
	if !ok {
		return nil, nil
	}
	cp := *row
	if err := fn(&cp); err != nil {
		return nil, err
	}
	*row = cp
	out := cp
	return &out, nil
}

type memLog struct{ entries []models.PointsLog }

func (m *memLog) Append(_ context.Context, e *models.PointsLog) error {
	m.entries = append(m.entries, *e)
	return nil
}

type memRecs struct{ recs []models.Redemption }

func (m *memRecs) Append(_ context.Context, r *models.Redemption) error {
	m.recs = append(m.recs, *r)
	return nil
}

type stubChain struct {
	bal  float64
	nfts int64
}

func (s *stubChain) TokenBalance(context.Context, string) (float64, error) { return s.bal, nil }
func (s *stubChain) NFTCount(context.Context, string) (int64, error)      { return s.nfts, nil }

type stubMinter struct {
	res *blockchain.MintResult
	err error
}

func (s *stubMinter) Mint(context.Context, string) (*blockchain.MintResult, error) {
	return s.res, s.err
}

type fixture struct {
	store   *memStore
	staking *handler.StakingHandler
	redeem  *handler.RedeemHandler
}

func newFixture(minter *stubMinter) *fixture {
	store := &memStore{rows: make(map[string]*models.StakingWallet)}
	cfg := &config.PointsConfig{
		RedeemCost: 3333, TargetDays: 28, SpeedCap: 1000,
		PerNFTBoost: 0.005, MaxBoost: 0.25, LogInterval: 600,
	}
	locks := service.NewWalletLocks()
	stakingSvc := service.NewStakingService(store, &memLog{}, &stubChain{bal: 1000, nfts: 1}, cfg, locks)
	redeemSvc := service.NewRedeemService(store, &memRecs{}, minter, cfg, locks)
	return &fixture{
		store:   store,
		staking: handler.NewStakingHandler(stakingSvc),
		redeem:  handler.NewRedeemHandler(redeemSvc),
	}
}

func TestEnrollEndpoint(t *testing.T) {
	f := newFixture(&stubMinter{})

	req := httptest.NewRequest(http.MethodPost, "/api/staking/enroll",
		strings.NewReader(`{"wallet":"`+wallet+`"}`))
	rec := httptest.NewRecorder()
	f.staking.Enroll(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, wallet, body["wallet"])
	require.Equal(t, true, body["created"])
}

func TestEnrollRejectsGet(t *testing.T) {
	f := newFixture(&stubMinter{})

	req := httptest.NewRequest(http.MethodGet, "/api/staking/enroll", nil)
	rec := httptest.NewRecorder()
	f.staking.Enroll(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEnrollInvalidWallet(t *testing.T) {
	f := newFixture(&stubMinter{})

	req := httptest.NewRequest(http.MethodPost, "/api/staking/enroll",
		strings.NewReader(`{"wallet":"xyz"}`))
	rec := httptest.NewRecorder()
	f.staking.Enroll(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointsEndpointNotEnrolled(t *testing.T) {
	f := newFixture(&stubMinter{})

	req := httptest.NewRequest(http.MethodGet, "/api/staking/points/"+wallet, nil)
	rec := httptest.NewRecorder()
	f.staking.GetPoints(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPointsEndpoint(t *testing.T) {
	f := newFixture(&stubMinter{})
	f.store.rows[wallet] = &models.StakingWallet{
		Wallet:     wallet,
		LastPoints: 50,
		LastUpdate: time.Now().Add(-time.Minute),
		LastBalln:  1000,
		LastNFTs:   1,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/staking/points/"+wallet, nil)
	rec := httptest.NewRecorder()
	f.staking.GetPoints(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, wallet, status["wallet"])
	require.GreaterOrEqual(t, status["points"].(float64), 50.0)
	require.Equal(t, false, status["reset"])
}

func TestRedeemEndpointInsufficient(t *testing.T) {
	f := newFixture(&stubMinter{})
	f.store.rows[wallet] = &models.StakingWallet{
		Wallet: wallet, LastPoints: 10, LastUpdate: time.Now(),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/staking/redeem",
		strings.NewReader(`{"wallet":"`+wallet+`"}`))
	rec := httptest.NewRecorder()
	f.redeem.Redeem(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedeemEndpointSuccess(t *testing.T) {
	tokenID := "77"
	f := newFixture(&stubMinter{res: &blockchain.MintResult{TxHash: "0xbeef", TokenID: &tokenID}})
	f.store.rows[wallet] = &models.StakingWallet{
		Wallet: wallet, LastPoints: 4000, LastUpdate: time.Now(),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/staking/redeem",
		strings.NewReader(`{"wallet":"`+wallet+`"}`))
	rec := httptest.NewRecorder()
	f.redeem.Redeem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["ok"])
	require.Equal(t, "0xbeef", body["txHash"])
	require.Equal(t, "77", body["tokenId"])
}

func TestRedeemEndpointMintFailure(t *testing.T) {
	f := newFixture(&stubMinter{err: stderrors.New("rpc timeout")})
	f.store.rows[wallet] = &models.StakingWallet{
		Wallet: wallet, LastPoints: 4000, LastUpdate: time.Now(),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/staking/redeem",
		strings.NewReader(`{"wallet":"`+wallet+`"}`))
	rec := httptest.NewRecorder()
	f.redeem.Redeem(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 4000.0, f.store.rows[wallet].LastPoints)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
