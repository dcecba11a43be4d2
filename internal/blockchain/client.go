package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/0xODanny/BallnBallrz-Mint-App/internal/config"
	"github.com/0xODanny/BallnBallrz-Mint-App/pkg/errors"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

const erc721ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"inputs":[{"name":"to","type":"address"}],"name":"adminMint","outputs":[],"type":"function"}
]`

// Client 链上读取客户端，查询BALLN余额与Ballrz持仓
type Client struct {
	chainCfg  *config.ChainConfig
	client    *ethclient.Client
	erc20ABI  abi.ABI
	erc721ABI abi.ABI
	tokenAddr common.Address
	nftAddr   common.Address
}

// NewClient 创建链上客户端
func NewClient(chainCfg *config.ChainConfig) (*Client, error) {
	client, err := ethclient.Dial(chainCfg.RPCURL)
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable,
			fmt.Sprintf("连接RPC失败: %s", chainCfg.RPCURL), err)
	}

	erc20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	erc721, err := abi.JSON(strings.NewReader(erc721ABIJSON))
	if err != nil {
		return nil, err
	}

	return &Client{
		chainCfg:  chainCfg,
		client:    client,
		erc20ABI:  erc20,
		erc721ABI: erc721,
		tokenAddr: common.HexToAddress(chainCfg.TokenAddress),
		nftAddr:   common.HexToAddress(chainCfg.NFTAddress),
	}, nil
}

// Close 关闭链上客户端连接
func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) call(ctx context.Context, contractABI abi.ABI, addr common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, errors.New(errors.ErrChainUnavailable,
			fmt.Sprintf("合约调用失败: %s", method), err)
	}

	return contractABI.Unpack(method, out)
}

// TokenBalance 查询钱包的BALLN余额，按代币精度换算为浮点数
func (c *Client) TokenBalance(ctx context.Context, wallet string) (float64, error) {
	owner := common.HexToAddress(wallet)

	rawOut, err := c.call(ctx, c.erc20ABI, c.tokenAddr, "balanceOf", owner)
	if err != nil {
		return 0, err
	}
	raw, ok := rawOut[0].(*big.Int)
	if !ok {
		return 0, errors.New(errors.ErrChainUnavailable, "balanceOf返回值类型异常", nil)
	}

	decOut, err := c.call(ctx, c.erc20ABI, c.tokenAddr, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return 0, errors.New(errors.ErrChainUnavailable, "decimals返回值类型异常", nil)
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	balance, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), divisor).Float64()
	return balance, nil
}

// NFTCount 查询钱包持有的Ballrz数量
func (c *Client) NFTCount(ctx context.Context, wallet string) (int64, error) {
	owner := common.HexToAddress(wallet)

	out, err := c.call(ctx, c.erc721ABI, c.nftAddr, "balanceOf", owner)
	if err != nil {
		return 0, err
	}
	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New(errors.ErrChainUnavailable, "balanceOf返回值类型异常", nil)
	}

	return count.Int64(), nil
}

// TokenURI 查询指定tokenId的元数据URI
func (c *Client) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := c.call(ctx, c.erc721ABI, c.nftAddr, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", errors.New(errors.ErrChainUnavailable, "tokenURI返回值类型异常", nil)
	}
	return uri, nil
}
