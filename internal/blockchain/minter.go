package blockchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/logger"
)

// MintResult 铸造结果
// TokenID 从Transfer事件尽力解析，解析不到不算失败
type MintResult struct {
	TxHash  string
	TokenID *string
}

// Minter 管理员铸造客户端，持有铸造私钥
type Minter struct {
	client      *Client
	key         *ecdsa.PrivateKey
	from        common.Address
	signer      types.Signer
	mintTimeout time.Duration
}

// NewMinter 创建铸造客户端
func NewMinter(chainCfg *config.ChainConfig, client *Client) (*Minter, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(chainCfg.MinterKey, "0x"))
	if err != nil {
		return nil, errors.New(errors.ErrConfigLoad, "铸造私钥解析失败", err)
	}

	timeout := time.Duration(chainCfg.MintTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Minter{
		client:      client,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		signer:      types.LatestSignerForChainID(new(big.Int).SetUint64(chainCfg.ChainID)),
		mintTimeout: timeout,
	}, nil
}

// Mint 调用adminMint为目标钱包铸造一个Ballrz，同步等待上链确认
// 确认等待受mint_timeout约束，超时按铸造失败处理
func (m *Minter) Mint(ctx context.Context, wallet string) (*MintResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.mintTimeout)
	defer cancel()

	to := common.HexToAddress(wallet)
	eth := m.client.client

	nonce, err := eth.PendingNonceAt(ctx, m.from)
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable, "获取nonce失败", err)
	}

	gasPrice, err := eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable, "获取gas价格失败", err)
	}

	data, err := m.client.erc721ABI.Pack("adminMint", to)
	if err != nil {
		return nil, err
	}

	gasLimit, err := eth.EstimateGas(ctx, ethereum.CallMsg{
		From: m.from,
		To:   &m.client.nftAddr,
		Data: data,
	})
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable, "估算gas失败", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &m.client.nftAddr,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := types.SignTx(tx, m.signer, m.key)
	if err != nil {
		return nil, err
	}

	if err := eth.SendTransaction(ctx, signed); err != nil {
		return nil, errors.New(errors.ErrChainUnavailable, "发送mint交易失败", err)
	}

	receipt, err := bind.WaitMined(ctx, eth, signed)
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable, "等待mint确认失败", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.New(errors.ErrChainUnavailable, "mint交易执行回滚", nil)
	}

	result := &MintResult{TxHash: receipt.TxHash.Hex()}
	result.TokenID = m.parseMintedTokenID(receipt, to)
	if result.TokenID == nil {
		logger.WithFields(map[string]interface{}{
			"wallet":  wallet,
			"tx_hash": result.TxHash,
		}).Warn("mint成功但未解析到tokenId")
	}

	return result, nil
}

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// parseMintedTokenID 从回执日志中解析新铸造的tokenId
// 匹配NFT合约上 0x0 -> wallet 的Transfer事件，匹配不到返回nil
func (m *Minter) parseMintedTokenID(receipt *types.Receipt, to common.Address) *string {
	for _, log := range receipt.Logs {
		if log.Address != m.client.nftAddr || len(log.Topics) != 4 {
			continue
		}
		if log.Topics[0] != transferTopic {
			continue
		}

		from := common.BytesToAddress(log.Topics[1].Bytes())
		dest := common.BytesToAddress(log.Topics[2].Bytes())
		if from != (common.Address{}) || dest != to {
			continue
		}

		tokenID := new(big.Int).SetBytes(log.Topics[3].Bytes()).String()
		return &tokenID
	}
	return nil
}
