package models

import (
	"time"
)

type Token struct {
	ID         int64
	ChainID    uint64
	Address    string
	Name       string
	Symbol     string
	Decimals   int
	LogoURI    string
	Bridgeable bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
