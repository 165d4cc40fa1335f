package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Connect returns the wallet backed by the chain's configured signer.
//
// Parameters:
// - ctx: the context for managing the request.
// - chain: the chain to connect the wallet on.
//
// Returns:
// - *types.Wallet: the wallet address and chain.
// - error: an error if no signer is configured.
func (e *evm) Connect(ctx context.Context, chain types.Chain) (*types.Wallet, error) {
	e.signerMutex.RLock()
	signer := e.signer
	e.signerMutex.RUnlock()

	if signer == nil {
		return nil, errors.New("signer not initialized")
	}

	return &types.Wallet{
		Address: signer.Address().Hex(),
		Chain:   chain,
	}, nil
}

// GetBalance gets the native asset balance for the given address.
//
// Parameters:
// - ctx: the context for managing the request.
// - address: the address to check balance for.
//
// Returns:
// - *big.Int: the native balance in base units.
// - error: an error if the client is not initialized or the read fails.
func (e *evm) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	balance, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get native balance")
	}
	return balance, nil
}

// SwitchChain verifies the connected RPC endpoint actually serves the
// requested chain. A mismatched endpoint must fail here, before any
// transaction is built against the wrong network.
//
// Parameters:
// - ctx: the context for managing the request.
// - chain: the chain the caller is about to transact on.
//
// Returns:
// - error: an error if the endpoint's chain ID does not match the configuration.
func (e *evm) SwitchChain(ctx context.Context, chain types.Chain) error {
	if chain != e.config.Name {
		return errors.Errorf("chain %s is not served by this client (configured for %s)", chain, e.config.Name)
	}

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return errors.New("client not initialized")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain ID")
	}
	if chainID.Uint64() != e.config.ChainID {
		return errors.Errorf("endpoint serves chain ID %d, expected %d", chainID.Uint64(), e.config.ChainID)
	}

	return nil
}

// SendTransaction signs and broadcasts the prepared payload. The payload's
// value is a hex quantity; its gas limit is always estimated fresh rather
// than trusted from the payload.
//
// Parameters:
// - ctx: the context for managing the request.
// - payload: the transaction payload to send.
//
// Returns:
// - string: the transaction hash.
// - error: an error if the client or signer is not initialized, or if building, signing or broadcasting fails.
func (e *evm) SendTransaction(ctx context.Context, payload *types.SwapTransaction) (string, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	e.signerMutex.RLock()
	signer := e.signer
	e.signerMutex.RUnlock()

	if client == nil || signer == nil {
		return "", errors.New("client or signer not initialized")
	}

	value := big.NewInt(0)
	if payload.Value != "" {
		parsed, err := hexutil.DecodeBig(payload.Value)
		if err != nil {
			return "", errors.Wrap(err, "failed to decode transaction value")
		}
		value = parsed
	}

	var data []byte
	if payload.Data != "" {
		decoded, err := hexutil.Decode(payload.Data)
		if err != nil {
			return "", errors.Wrap(err, "failed to decode transaction data")
		}
		data = decoded
	}

	nonce, err := client.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		return "", errors.Wrap(err, "failed to get nonce")
	}

	tx, err := e.prepareTransaction(ctx, nonce, payload.To, value, data)
	if err != nil {
		return "", err
	}

	signedTx, err := e.signAndSendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	return signedTx.Hash().Hex(), nil
}

// prepareTransaction prepares a transaction with the given parameters.
//
// Parameters:
// - ctx: the context for managing the request.
// - nonce: the nonce for the transaction.
// - toAddress: the recipient address of the transaction.
// - value: the amount of native asset to send with the transaction.
// - data: the input data for the transaction.
//
// Returns:
// - *ethtypes.Transaction: the prepared transaction.
// - error: an error if the gas estimation or gas price retrieval fails.
func (e *evm) prepareTransaction(ctx context.Context, nonce uint64, toAddress string, value *big.Int, data []byte) (*ethtypes.Transaction, error) {
	estimatedGas, err := e.EstimateGas(ctx, toAddress, value, data)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to estimate gas")
		return nil, errors.Wrap(err, "failed to estimate gas")
	}

	gasLimit := uint64(float64(estimatedGas) * 1.1)

	to := common.HexToAddress(toAddress)

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	if e.config.TxType == TxTypeEIP1559 {
		gasPriceData, err := e.getEIP1559GasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get EIP-1559 gas price")
		}

		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:    big.NewInt(0).SetUint64(e.config.ChainID),
			Nonce:      nonce,
			GasFeeCap:  gasPriceData.MaxFeePerGas,
			GasTipCap:  gasPriceData.MaxPriorityFeePerGas,
			Gas:        gasLimit,
			To:         &to,
			Value:      value,
			Data:       data,
			AccessList: nil,
		}), nil
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(150))
	gasPrice = new(big.Int).Div(gasPrice, big.NewInt(100))

	return ethtypes.NewTransaction(
		nonce,
		to,
		value,
		gasLimit,
		gasPrice,
		data,
	), nil
}

// signAndSendTransaction signs and sends the prepared transaction.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the prepared transaction to be signed and sent.
//
// Returns:
// - *ethtypes.Transaction: the signed and sent transaction.
// - error: an error if the client or signer is not initialized, or if the signing or sending fails.
func (e *evm) signAndSendTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	e.signerMutex.RLock()
	signer := e.signer
	e.signerMutex.RUnlock()

	if client == nil || signer == nil {
		return nil, errors.New("client or signer not initialized")
	}

	chainID := big.NewInt(0).SetUint64(e.config.ChainID)

	signedTx, err := signer.SignTx(tx, chainID)
	if err != nil {
		e.logger.WithError(err).Error("Failed to sign transaction")
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err = client.SendTransaction(ctx, signedTx); err != nil {
		e.logger.WithError(err).Error("Failed to send transaction")
		return nil, errors.Wrap(err, "failed to send transaction")
	}

	return signedTx, nil
}

// WaitForReceipt polls for the transaction receipt until the configured
// number of confirmation blocks has passed.
//
// Parameters:
// - ctx: the context for managing the request.
// - txHash: the hash of the transaction to wait for.
//
// Returns:
// - *types.Receipt: the mined receipt, whether successful or reverted.
// - error: an error if the client is not initialized or the wait times out.
func (e *evm) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(receiptTimeout)
	hash := common.HexToHash(txHash)

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", txHash).Error("WaitForReceipt: context done")
			return nil, ctx.Err()

		case <-ticker.C:
			if time.Now().After(deadline) {
				return nil, errors.Errorf("timed out waiting for receipt of %s", txHash)
			}

			receipt, err := client.TransactionReceipt(ctx, hash)
			if err != nil {
				if errors.Is(err, ethereum.NotFound) {
					continue
				}
				return nil, errors.Wrap(err, "failed to get transaction receipt")
			}

			currentBlock, err := client.BlockNumber(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "failed to get current block number")
			}

			// Wait for required block confirmations.
			if currentBlock < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
				continue
			}

			return &types.Receipt{
				TxHash:      txHash,
				Status:      receipt.Status,
				BlockNumber: receipt.BlockNumber.Uint64(),
			}, nil
		}
	}
}
