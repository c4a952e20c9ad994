package withdrawals

import (
	"errors"
	"testing"

	"github.com/microearn/backend/internal/models"
)

func TestValidatePayout(t *testing.T) {
	cases := []struct {
		name    string
		method  models.PayoutMethod
		details models.PayoutDetails
		ok      bool
	}{
		{"paypal", models.PayoutPaypal, models.PayoutDetails{Email: "worker@example.com"}, true},
		{"paypal with name", models.PayoutPaypal, models.PayoutDetails{Email: "Bob <bob@example.com>"}, false},
		{"paypal garbage", models.PayoutPaypal, models.PayoutDetails{Email: "not-an-email"}, false},
		{"paypal missing", models.PayoutPaypal, models.PayoutDetails{AccountNumber: "12345678"}, false},
		{"bank", models.PayoutBank, models.PayoutDetails{AccountNumber: "DE89 3704 0044 0532 0130 00"}, true},
		{"bank too short", models.PayoutBank, models.PayoutDetails{AccountNumber: "12345"}, false},
		{"bank symbols", models.PayoutBank, models.PayoutDetails{AccountNumber: "1234-5678"}, false},
		{"eth lower", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}, true},
		{"eth checksum", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, true},
		{"eth bad checksum", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD"}, false},
		{"eth short", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "0x5aaeb6053f3e94c9b9a09f"}, false},
		{"btc p2pkh", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"}, true},
		{"btc bech32", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"}, true},
		{"btc testnet", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"}, false},
		{"btc bad checksum", models.PayoutCrypto, models.PayoutDetails{WalletAddress: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb"}, false},
		{"unknown method", "venmo", models.PayoutDetails{Email: "a@b.co"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ValidatePayout(c.method, c.details)
			if c.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !c.ok && !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidatePayoutKeepsOnlyMethodField(t *testing.T) {
	got, err := ValidatePayout(models.PayoutBank, models.PayoutDetails{AccountNumber: "gb29nwbk60161331926819", Email: "x@y.z"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "" || got.AccountNumber != "GB29NWBK60161331926819" {
		t.Errorf("details: %+v", got)
	}
}
