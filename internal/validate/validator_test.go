package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/microearn/backend/internal/models"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestCreateTaskSchema(t *testing.T) {
	v := newTestValidator(t)

	if err := v.Check(CreateTask, []byte(`{"title":"Like a video","description":"Watch and like","coins_per_worker":5,"required_workers":10,"category":"social_media"}`)); err != nil {
		t.Fatalf("expected valid task, got: %v", err)
	}

	cases := []struct {
		name  string
		input string
	}{
		{"missing title", `{"description":"d","coins_per_worker":1,"required_workers":1}`},
		{"zero coins", `{"title":"t","description":"d","coins_per_worker":0,"required_workers":1}`},
		{"fractional workers", `{"title":"t","description":"d","coins_per_worker":1,"required_workers":1.5}`},
		{"title too long", `{"title":"` + strings.Repeat("x", 201) + `","description":"d","coins_per_worker":1,"required_workers":1}`},
		{"unknown field", `{"title":"t","description":"d","coins_per_worker":1,"required_workers":1,"current_workers":3}`},
		{"bad deadline", `{"title":"t","description":"d","coins_per_worker":1,"required_workers":1,"deadline":"tomorrow"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Check(CreateTask, []byte(tc.input))
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}
}

func TestWithdrawalSchemaRequiresMethodDetails(t *testing.T) {
	v := newTestValidator(t)

	ok := []string{
		`{"coins":200,"payment_method":"paypal","payment_details":{"email":"a@b.co"}}`,
		`{"coins":200,"payment_method":"bank","payment_details":{"account_number":"12345678"}}`,
		`{"coins":200,"payment_method":"crypto","payment_details":{"wallet_address":"0xabc"}}`,
	}
	for _, in := range ok {
		if err := v.Check(Withdrawal, []byte(in)); err != nil {
			t.Errorf("%s: %v", in, err)
		}
	}

	bad := []string{
		`{"coins":200,"payment_method":"paypal","payment_details":{"account_number":"1"}}`,
		`{"coins":200,"payment_method":"crypto","payment_details":{}}`,
		`{"coins":200,"payment_method":"cash","payment_details":{}}`,
	}
	for _, in := range bad {
		if err := v.Check(Withdrawal, []byte(in)); !errors.Is(err, models.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestDecode(t *testing.T) {
	v := newTestValidator(t)
	var req struct {
		Role string `json:"role"`
	}
	if err := v.Decode(strings.NewReader(`{"role":"buyer"}`), SelectRole, &req); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Role != "buyer" {
		t.Errorf("role: got %q", req.Role)
	}
	if err := v.Decode(strings.NewReader(`{"role":"admin"}`), SelectRole, &req); !errors.Is(err, models.ErrValidation) {
		t.Errorf("admin role should be rejected, got %v", err)
	}
	if err := v.Decode(strings.NewReader(`not json`), SelectRole, &req); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad JSON should be a validation error, got %v", err)
	}
}

func TestUnknownSchema(t *testing.T) {
	v := newTestValidator(t)
	if err := v.Check("nope", []byte(`{}`)); err == nil || errors.Is(err, models.ErrValidation) {
		t.Errorf("unknown schema should be a programming error, got %v", err)
	}
}
