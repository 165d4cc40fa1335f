package dbconfig

import (
	"context"
	"database/sql"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/dbconfig/models"
)

// GetTokens returns the token list for a chain. With bridgeableOnly set,
// only tokens the bridge network carries on that chain are returned; this
// is the list cross-chain route candidates pivot on.
func (r *DBConfig) GetTokens(ctx context.Context, chainID uint64, bridgeableOnly bool) ([]models.Token, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	query := `
      SELECT
          id,
          chain_id,
          address,
          name,
          symbol,
          decimals,
          logo_uri,
          bridgeable,
          active,
          created_at,
          updated_at
      FROM tokens
      WHERE chain_id = $1 AND active = TRUE
  `

	args := []interface{}{chainID}
	if bridgeableOnly {
		query += " AND bridgeable = TRUE"
	}

	query += " ORDER BY symbol ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var token models.Token
		var logoURI sql.NullString

		err := rows.Scan(
			&token.ID,
			&token.ChainID,
			&token.Address,
			&token.Name,
			&token.Symbol,
			&token.Decimals,
			&logoURI,
			&token.Bridgeable,
			&token.Active,
			&token.CreatedAt,
			&token.UpdatedAt,
		)
		if err != nil {
			return nil, errors.ErrDatabaseConnect
		}

		if logoURI.Valid {
			token.LogoURI = logoURI.String
		}

		tokens = append(tokens, token)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	return tokens, nil
}

// GetTokenByAddress returns a single token on a chain by contract address.
func (r *DBConfig) GetTokenByAddress(ctx context.Context, chainID uint64, address string) (*models.Token, error) {
	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}
	defer db.Close()

	var token models.Token
	var logoURI sql.NullString

	err = db.QueryRowContext(ctx, `
       SELECT
           id,
           chain_id,
           address,
           name,
           symbol,
           decimals,
           logo_uri,
           bridgeable,
           active,
           created_at,
           updated_at
       FROM tokens
       WHERE chain_id = $1 AND LOWER(address) = LOWER($2)
    `, chainID, address).Scan(
		&token.ID,
		&token.ChainID,
		&token.Address,
		&token.Name,
		&token.Symbol,
		&token.Decimals,
		&logoURI,
		&token.Bridgeable,
		&token.Active,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.ErrTokenNotFound
	}
	if err != nil {
		return nil, errors.ErrDatabaseConnect
	}

	if logoURI.Valid {
		token.LogoURI = logoURI.String
	}

	return &token, nil
}

// ToToken converts a database token row into the runtime token type.
func ToToken(token *models.Token) types.Token {
	return types.Token{
		Address:  token.Address,
		Name:     token.Name,
		Symbol:   token.Symbol,
		Decimals: token.Decimals,
		LogoURI:  token.LogoURI,
	}
}
