package withdrawals

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"

	"github.com/microearn/backend/internal/models"
)

var bankAccountRE = regexp.MustCompile(`^[A-Za-z0-9]{6,34}$`)

// ValidatePayout checks the destination for method and returns a copy
// holding only the field that method uses.
func ValidatePayout(method models.PayoutMethod, d models.PayoutDetails) (models.PayoutDetails, error) {
	switch method {
	case models.PayoutPaypal:
		addr, err := mail.ParseAddress(strings.TrimSpace(d.Email))
		if err != nil || addr.Name != "" {
			return models.PayoutDetails{}, fmt.Errorf("%w: invalid paypal email", models.ErrValidation)
		}
		return models.PayoutDetails{Email: addr.Address}, nil

	case models.PayoutBank:
		acct := strings.ReplaceAll(strings.TrimSpace(d.AccountNumber), " ", "")
		if !bankAccountRE.MatchString(acct) {
			return models.PayoutDetails{}, fmt.Errorf("%w: account number must be 6 to 34 letters or digits", models.ErrValidation)
		}
		return models.PayoutDetails{AccountNumber: strings.ToUpper(acct)}, nil

	case models.PayoutCrypto:
		addr := strings.TrimSpace(d.WalletAddress)
		if validEthereumAddress(addr) || validBitcoinAddress(addr) {
			return models.PayoutDetails{WalletAddress: addr}, nil
		}
		return models.PayoutDetails{}, fmt.Errorf("%w: wallet must be an Ethereum or Bitcoin mainnet address", models.ErrValidation)
	}
	return models.PayoutDetails{}, fmt.Errorf("%w: unknown payment method %q", models.ErrValidation, method)
}

// validEthereumAddress accepts all-lower or all-upper hex, and mixed case
// only with a correct EIP-55 checksum.
func validEthereumAddress(s string) bool {
	if !common.IsHexAddress(s) || !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

func validBitcoinAddress(s string) bool {
	if s == "" {
		return false
	}
	addr, err := btcutil.DecodeAddress(s, &chaincfg.MainNetParams)
	return err == nil && addr.IsForNet(&chaincfg.MainNetParams)
}
