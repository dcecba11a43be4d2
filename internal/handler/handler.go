package handler

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/blockchain"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/repository"
	"github.com/0xODanny/BallnBallrz-Mint-App/internal/service"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message, "code": code})
}

// writeAppError 按错误分类映射HTTP状态码
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	status := http.StatusInternalServerError

	switch code {
	case errors.ErrInvalidInput, errors.ErrInsufficientPoints:
		status = http.StatusBadRequest
	case errors.ErrNotEnrolled:
		status = http.StatusNotFound
	case errors.ErrChainUnavailable:
		status = http.StatusServiceUnavailable
	case errors.ErrRedemptionFailed:
		status = http.StatusBadGateway
	case errors.ErrCriticalInconsistency, errors.ErrStoreWrite:
		status = http.StatusInternalServerError
	}

	writeError(w, status, code, err.Error())
}

type walletRequest struct {
	Wallet string `json:"wallet"`
}

func decodeWalletBody(r *http.Request) (string, bool) {
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	return req.Wallet, req.Wallet != ""
}

type StakingHandler struct {
	stakingSvc *service.StakingService
}

func NewStakingHandler(stakingSvc *service.StakingService) *StakingHandler {
	return &StakingHandler{stakingSvc: stakingSvc}
}

func (h *StakingHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	wallet, ok := decodeWalletBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput, "wallet is required")
		return
	}

	res, err := h.stakingSvc.Enroll(r.Context(), wallet)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *StakingHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput,
			"invalid path format, expected /api/staking/points/{wallet}")
		return
	}

	status, err := h.stakingSvc.GetPoints(r.Context(), pathParts[3])
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

type RedeemHandler struct {
	redeemSvc *service.RedeemService
}

func NewRedeemHandler(redeemSvc *service.RedeemService) *RedeemHandler {
	return &RedeemHandler{redeemSvc: redeemSvc}
}

func (h *RedeemHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	wallet, ok := decodeWalletBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput, "wallet is required")
		return
	}

	res, err := h.redeemSvc.Redeem(r.Context(), wallet)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"txHash":  res.TxHash,
		"tokenId": res.TokenID,
		"points":  res.Points,
	})
}

type HistoryHandler struct {
	pointsLogRepo  *repository.PointsLogRepository
	redemptionRepo *repository.RedemptionRepository
}

func NewHistoryHandler(pointsLogRepo *repository.PointsLogRepository, redemptionRepo *repository.RedemptionRepository) *HistoryHandler {
	return &HistoryHandler{pointsLogRepo: pointsLogRepo, redemptionRepo: redemptionRepo}
}

func (h *HistoryHandler) GetPointsHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput,
			"invalid path format, expected /api/staking/history/{wallet}")
		return
	}

	wallet, err := service.NormalizeWallet(pathParts[3])
	if err != nil {
		writeAppError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	ctx := r.Context()
	entries, err := h.pointsLogRepo.GetByWallet(ctx, wallet, offset, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to get history: "+err.Error())
		return
	}

	total, err := h.pointsLogRepo.CountByWallet(ctx, wallet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to count history: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    entries,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (h *HistoryHandler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput,
			"invalid path format, expected /api/staking/redemptions/{wallet}")
		return
	}

	wallet, err := service.NormalizeWallet(pathParts[3])
	if err != nil {
		writeAppError(w, err)
		return
	}

	recs, err := h.redemptionRepo.GetByWallet(r.Context(), wallet, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to get redemptions: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": recs})
}

type StatsHandler struct {
	walletRepo     *repository.WalletRepository
	redemptionRepo *repository.RedemptionRepository
}

func NewStatsHandler(walletRepo *repository.WalletRepository, redemptionRepo *repository.RedemptionRepository) *StatsHandler {
	return &StatsHandler{walletRepo: walletRepo, redemptionRepo: redemptionRepo}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	ctx := r.Context()

	wallets, err := h.walletRepo.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to count wallets: "+err.Error())
		return
	}

	totalPoints, err := h.walletRepo.SumPoints(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to sum points: "+err.Error())
		return
	}

	redemptions, err := h.redemptionRepo.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.ErrStoreWrite, "failed to count redemptions: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallets":     wallets,
		"totalPoints": totalPoints,
		"redemptions": redemptions,
	})
}

type TokenURIHandler struct {
	chain *blockchain.Client
}

func NewTokenURIHandler(chain *blockchain.Client) *TokenURIHandler {
	return &TokenURIHandler{chain: chain}
}

func (h *TokenURIHandler) GetTokenURI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.ErrInvalidInput, "method not allowed")
		return
	}

	raw := r.URL.Query().Get("token_id")
	tokenID, ok := new(big.Int).SetString(raw, 10)
	if raw == "" || !ok || tokenID.Sign() < 0 {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidInput, "token_id is required")
		return
	}

	uri, err := h.chain.TokenURI(r.Context(), tokenID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"tokenUri": uri})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
