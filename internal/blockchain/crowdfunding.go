package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

const campaignTuple = `[
	{"name":"id","type":"uint256"},
	{"name":"creator","type":"address"},
	{"name":"title","type":"string"},
	{"name":"description","type":"string"},
	{"name":"targetAmount","type":"uint256"},
	{"name":"raisedAmount","type":"uint256"},
	{"name":"deadline","type":"uint256"},
	{"name":"isActive","type":"bool"},
	{"name":"metadataHash","type":"string"},
	{"name":"image","type":"string"},
	{"name":"category","type":"string"}
]`

// CrowdfundingABI is the subset of the NeoFlow crowdfunding contract used by the service.
const CrowdfundingABI = `[
	{"type":"function","name":"createCampaign","stateMutability":"nonpayable",
	 "inputs":[{"name":"_target","type":"uint256"},{"name":"_deadline","type":"uint256"},{"name":"_metadataHash","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"fundCampaign","stateMutability":"payable",
	 "inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdrawFunds","stateMutability":"nonpayable",
	 "inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getAllCampaigns","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"tuple[]","components":` + campaignTuple + `}]},
	{"type":"function","name":"getUserCampaigns","stateMutability":"view",
	 "inputs":[{"name":"_user","type":"address"}],
	 "outputs":[{"name":"","type":"tuple[]","components":` + campaignTuple + `}]},
	{"type":"event","name":"CampaignCreated","anonymous":false,
	 "inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"creator","type":"address","indexed":true},
	           {"name":"target","type":"uint256","indexed":false},{"name":"deadline","type":"uint256","indexed":false},
	           {"name":"metadataHash","type":"string","indexed":false}]}
]`

// onchainCampaign mirrors the Campaign struct returned by the contract
type onchainCampaign struct {
	Id           *big.Int
	Creator      common.Address
	Title        string
	Description  string
	TargetAmount *big.Int
	RaisedAmount *big.Int
	Deadline     *big.Int
	IsActive     bool
	MetadataHash string
	Image        string
	Category     string
}

// CrowdfundingClient talks to the crowdfunding contract. Writes are signed
// with the configured relayer key; without one the client is read only.
type CrowdfundingClient struct {
	client          *ethclient.Client
	contract        *bind.BoundContract
	abi             abi.ABI
	contractAddress common.Address
	privateKey      *ecdsa.PrivateKey
	chainID         *big.Int
}

// NewCrowdfundingClient creates a new contract client
func NewCrowdfundingClient(rpcURL, contractAddr, privateKeyHex string) (*CrowdfundingClient, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}

	parsed, err := ParseCrowdfundingABI()
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}

	var privateKey *ecdsa.PrivateKey
	if privateKeyHex != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	address := common.HexToAddress(contractAddr)
	return &CrowdfundingClient{
		client:          client,
		contract:        bind.NewBoundContract(address, parsed, client, client, client),
		abi:             parsed,
		contractAddress: address,
		privateKey:      privateKey,
		chainID:         chainID,
	}, nil
}

// ParseCrowdfundingABI parses the embedded contract ABI
func ParseCrowdfundingABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(CrowdfundingABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse crowdfunding ABI: %w", err)
	}
	return parsed, nil
}

// CreateCampaign submits a new campaign and returns the id assigned by the contract
func (c *CrowdfundingClient) CreateCampaign(ctx context.Context, target *big.Int, deadline time.Time, metadataRef string) (string, error) {
	receipt, err := c.transact(ctx, "createCampaign", nil, target, big.NewInt(deadline.Unix()), metadataRef)
	if err != nil {
		return "", err
	}

	id, err := CampaignIDFromReceipt(c.abi, receipt)
	if err != nil {
		return "", newContractError("createCampaign", err)
	}

	logger.Info("Campaign created on chain",
		zap.String("campaign_id", id),
		zap.String("tx", receipt.TxHash.Hex()),
	)
	return id, nil
}

// Contribute sends amount wei to a campaign
func (c *CrowdfundingClient) Contribute(ctx context.Context, id string, amount *big.Int) (string, error) {
	campaignID, err := parseCampaignID(id)
	if err != nil {
		return "", err
	}
	receipt, err := c.transact(ctx, "fundCampaign", amount, campaignID)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// Withdraw releases the raised funds of a campaign to its creator
func (c *CrowdfundingClient) Withdraw(ctx context.Context, id string) (string, error) {
	campaignID, err := parseCampaignID(id)
	if err != nil {
		return "", err
	}
	receipt, err := c.transact(ctx, "withdrawFunds", nil, campaignID)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// ListAllCampaigns reads every campaign from the contract
func (c *CrowdfundingClient) ListAllCampaigns(ctx context.Context) ([]*models.RawCampaign, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllCampaigns"); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return decodeCampaigns(out)
}

// ListCampaignsByCreator reads the campaigns created by address
func (c *CrowdfundingClient) ListCampaignsByCreator(ctx context.Context, creator string) ([]*models.RawCampaign, error) {
	if !common.IsHexAddress(creator) {
		return nil, fmt.Errorf("invalid creator address %q", creator)
	}
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getUserCampaigns", common.HexToAddress(creator)); err != nil {
		return nil, fmt.Errorf("failed to list creator campaigns: %w", err)
	}
	return decodeCampaigns(out)
}

func (c *CrowdfundingClient) transact(ctx context.Context, method string, value *big.Int, args ...interface{}) (*types.Receipt, error) {
	if c.privateKey == nil {
		return nil, newContractError(method, ErrReadOnly)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	auth.Value = value

	tx, err := c.contract.Transact(auth, method, args...)
	if err != nil {
		return nil, newContractError(method, err)
	}

	logger.Info("Contract transaction submitted",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
	)

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, newContractError(method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, newContractError(method, fmt.Errorf("%w: status %d in %s", ErrTransactionFailed, receipt.Status, tx.Hash().Hex()))
	}
	return receipt, nil
}

// CampaignIDFromReceipt extracts the id from the CampaignCreated log of a receipt
func CampaignIDFromReceipt(parsed abi.ABI, receipt *types.Receipt) (string, error) {
	event, ok := parsed.Events["CampaignCreated"]
	if !ok {
		return "", fmt.Errorf("ABI has no CampaignCreated event")
	}
	for _, log := range receipt.Logs {
		if len(log.Topics) < 2 || log.Topics[0] != event.ID {
			continue
		}
		return new(big.Int).SetBytes(log.Topics[1].Bytes()).String(), nil
	}
	return "", fmt.Errorf("no CampaignCreated event in transaction %s", receipt.TxHash.Hex())
}

func decodeCampaigns(out []interface{}) ([]*models.RawCampaign, error) {
	if len(out) == 0 {
		return nil, nil
	}
	tuples, ok := abi.ConvertType(out[0], new([]onchainCampaign)).(*[]onchainCampaign)
	if !ok {
		return nil, fmt.Errorf("unexpected campaign list type %T", out[0])
	}

	campaigns := make([]*models.RawCampaign, 0, len(*tuples))
	for _, t := range *tuples {
		campaigns = append(campaigns, &models.RawCampaign{
			ID:           t.Id,
			Creator:      t.Creator.Hex(),
			Title:        t.Title,
			Description:  t.Description,
			Image:        t.Image,
			Category:     t.Category,
			TargetAmount: t.TargetAmount,
			RaisedAmount: t.RaisedAmount,
			Deadline:     t.Deadline,
			IsActive:     t.IsActive,
			MetadataHash: t.MetadataHash,
		})
	}
	return campaigns, nil
}

func parseCampaignID(id string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(id, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCampaignID, id)
	}
	return n, nil
}

// Signer returns the address that signs writes, or "" for a read only client
func (c *CrowdfundingClient) Signer() string {
	if c.privateKey == nil {
		return ""
	}
	return crypto.PubkeyToAddress(c.privateKey.PublicKey).Hex()
}

// Close closes the client connection
func (c *CrowdfundingClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// HealthCheck verifies blockchain connection
func (c *CrowdfundingClient) HealthCheck(ctx context.Context) error {
	_, err := c.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("blockchain health check failed: %w", err)
	}
	return nil
}
