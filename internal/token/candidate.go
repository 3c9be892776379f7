package token

import (
	"fmt"

	dErrors "tokengate/pkg/domainerrors"
)

const (
	minNameLen   = 3
	maxNameLen   = 30
	minSymbolLen = 3
	maxSymbolLen = 5
	maxSupply    = 1_000_000_000
)

// Candidate is a submitted token awaiting the creation gate. Immutable once
// submitted; the pipeline never mutates it.
type Candidate struct {
	Name            string
	Symbol          string
	TotalSupply     int64
	LogoRef         string
	CreatorWalletID string
}

// Validate rejects malformed candidates before any evaluator runs. A failure
// here produces no fraud log.
func (c Candidate) Validate() error {
	if l := len(c.Name); l < minNameLen || l > maxNameLen {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("name must be %d-%d characters", minNameLen, maxNameLen))
	}
	if l := len(c.Symbol); l < minSymbolLen || l > maxSymbolLen {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("symbol must be %d-%d characters", minSymbolLen, maxSymbolLen))
	}
	for _, r := range c.Symbol {
		if r < 'A' || r > 'Z' {
			return dErrors.New(dErrors.CodeBadRequest, "symbol must be uppercase letters only")
		}
	}
	if c.TotalSupply < 1 || c.TotalSupply > maxSupply {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("total supply must be in [1,%d]", int64(maxSupply)))
	}
	if c.CreatorWalletID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "creator wallet id is required")
	}
	return nil
}
