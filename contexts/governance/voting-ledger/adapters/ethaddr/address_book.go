package ethaddr

import (
	"fmt"
	"strings"

	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	"ballotbox/contexts/governance/voting-ledger/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressBook speaks 20-byte hex account addresses. Every address leaving it
// is in EIP-55 checksum form, so equal accounts compare equal as strings.
type AddressBook struct{}

func (AddressBook) Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if !common.IsHexAddress(value) {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, value)
	}
	address := common.HexToAddress(value)
	if address == (common.Address{}) {
		return "", fmt.Errorf("%w: zero address", domainerrors.ErrInvalidAddress)
	}
	return address.Hex(), nil
}

// LedgerAddress derives the address a ledger deployed by admin with the given
// nonce lives at, the same way a contract creation address is derived.
func (b AddressBook) LedgerAddress(admin string, nonce uint64) (string, error) {
	normalized, err := b.Normalize(admin)
	if err != nil {
		return "", err
	}
	return crypto.CreateAddress(common.HexToAddress(normalized), nonce).Hex(), nil
}

var _ ports.AddressBook = AddressBook{}
