package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Allowance reads the spender's remaining allowance on the token for the
// owner. The native pseudo-address has no allowance concept and always
// reads as unlimited.
//
// Parameters:
// - ctx: the context for managing the request.
// - tokenAddress: the token contract address.
// - owner: the token holder's address.
// - spender: the address allowed to spend.
//
// Returns:
// - *big.Int: the remaining allowance in base units.
// - error: an error if the client is not initialized or the call fails.
func (e *evm) Allowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error) {
	if strings.EqualFold(tokenAddress, NativeAssetAddress) {
		return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), nil
	}

	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	tokenAbi, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token ABI")
	}

	data, err := tokenAbi.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack allowance data")
	}

	tokenAddr := common.HexToAddress(tokenAddress)
	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &tokenAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call allowance")
	}

	if len(result) == 0 {
		return nil, errors.New("empty result from allowance call")
	}

	allowance := new(big.Int)
	allowance.SetBytes(result)

	return allowance, nil
}

// Approve submits an approval granting the spender the given allowance on
// the token and returns the transaction hash without waiting for it to mine.
//
// Parameters:
// - ctx: the context for managing the request.
// - tokenAddress: the token contract address.
// - spender: the address to grant the allowance to.
// - amount: the allowance in base units.
//
// Returns:
// - string: the approval transaction hash.
// - error: an error if the client or signer is not initialized, or if building or sending fails.
func (e *evm) Approve(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	e.signerMutex.RLock()
	signer := e.signer
	e.signerMutex.RUnlock()

	if client == nil || signer == nil {
		return "", errors.New("client or signer not initialized")
	}

	tokenAbi, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse token ABI")
	}

	data, err := tokenAbi.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return "", errors.Wrap(err, "failed to pack approve data")
	}

	nonce, err := client.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		return "", errors.Wrap(err, "failed to get nonce")
	}

	tx, err := e.prepareTransaction(ctx, nonce, tokenAddress, big.NewInt(0), data)
	if err != nil {
		return "", err
	}

	signedTx, err := e.signAndSendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	return signedTx.Hash().Hex(), nil
}
