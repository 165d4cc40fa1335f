package dbconfig

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/dbconfig/models"
)

// GetChains returns all chains from the database, optionally filtering by active status.
func (r *DBConfig) GetChains(ctx context.Context, activeOnly bool) ([]models.Chain, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	query := `
      SELECT
          id,
          chain_id,
          name,
          chain_type,
          rpc_url,
          quote_endpoint,
          native_token,
          wrapped_native_token,
          route_proxy_address,
          approve_proxy_address,
          explorer_tx_url,
          tx_type,
          wait_n_blocks,
          active,
          created_at,
          updated_at
      FROM chains
  `

	var args []interface{}
	if activeOnly {
		query += " WHERE active = $1"
		args = append(args, true)
	}

	query += " ORDER BY chain_id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer rows.Close()

	var chains []models.Chain
	for rows.Next() {
		chain, err := scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, *chain)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	return chains, nil
}

// GetChainByName returns the chain registered under the given name.
func (r *DBConfig) GetChainByName(ctx context.Context, name types.Chain) (*models.Chain, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, `
       SELECT
           id,
           chain_id,
           name,
           chain_type,
           rpc_url,
           quote_endpoint,
           native_token,
           wrapped_native_token,
           route_proxy_address,
           approve_proxy_address,
           explorer_tx_url,
           tx_type,
           wait_n_blocks,
           active,
           created_at,
           updated_at
       FROM chains
       WHERE name = $1
    `, name.String())

	chain, err := scanChain(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrChainNotFound
	}
	if err != nil {
		return nil, err
	}

	return chain, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChain(s scanner) (*models.Chain, error) {
	var chain models.Chain
	var chainType sql.NullString
	var wrappedNative sql.NullString
	var explorerTxURL sql.NullString

	err := s.Scan(
		&chain.ID,
		&chain.ChainID,
		&chain.Name,
		&chainType,
		&chain.RpcUrl,
		&chain.QuoteEndpoint,
		&chain.NativeToken,
		&wrappedNative,
		&chain.RouteProxyAddress,
		&chain.ApproveProxyAddress,
		&explorerTxURL,
		&chain.TxType,
		&chain.WaitNBlocks,
		&chain.Active,
		&chain.CreatedAt,
		&chain.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	if chainType.Valid {
		chain.Type = strings.ToUpper(chainType.String)
	}
	if wrappedNative.Valid {
		chain.WrappedNativeToken = wrappedNative.String
	}
	if explorerTxURL.Valid {
		chain.ExplorerTxURL = explorerTxURL.String
	}

	return &chain, nil
}

// ToChainConfig converts a database chain row into the runtime configuration.
func ToChainConfig(chain *models.Chain) *types.ChainConfig {
	return &types.ChainConfig{
		Name:                types.Chain(chain.Name),
		ChainType:           types.ParseChainType(chain.Type),
		ChainID:             chain.ChainID,
		RpcUrl:              chain.RpcUrl,
		QuoteEndpoint:       chain.QuoteEndpoint,
		NativeToken:         chain.NativeToken,
		WrappedNativeToken:  chain.WrappedNativeToken,
		RouteProxyAddress:   chain.RouteProxyAddress,
		ApproveProxyAddress: chain.ApproveProxyAddress,
		ExplorerTxURL:       chain.ExplorerTxURL,
		TxType:              chain.TxType,
		WaitNBlocks:         chain.WaitNBlocks,
	}
}
