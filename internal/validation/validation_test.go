package validation_test

import (
	"errors"
	"testing"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/validation"
)

func TestValidateUUID(t *testing.T) {
	if err := validation.ValidateUUID("550e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Errorf("Expected valid UUID, got %v", err)
	}
	if err := validation.ValidateUUID("not-a-uuid"); !errors.Is(err, validation.ErrInvalidUUID) {
		t.Errorf("Expected ErrInvalidUUID, got %v", err)
	}
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		req        any
		wantFields []string
	}{
		{
			name: "valid buy",
			req: request.BuyRequest{
				UserID:               "550e8400-e29b-41d4-a716-446655440000",
				InvestmentPropertyID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			},
		},
		{
			name:       "buy missing ids",
			req:        request.BuyRequest{},
			wantFields: []string{"userId", "investmentPropertyId"},
		},
		{
			name:       "buy malformed user id",
			req:        request.BuyRequest{UserID: "abc", InvestmentPropertyID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
			wantFields: []string{"userId"},
		},
		{
			name:       "escrow bad email",
			req:        request.InitiateEscrowRequest{ContactEmail: "tenant-at-example"},
			wantFields: []string{"contactEmail"},
		},
		{
			name: "escrow blank email left to the machine",
			req:  request.InitiateEscrowRequest{},
		},
		{
			name: "unknown appreciation model",
			req: request.CreateInvestmentPropertyRequest{
				PropertyID:        "550e8400-e29b-41d4-a716-446655440000",
				AppreciationModel: "linear",
			},
			wantFields: []string{"appreciationModel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Struct(tt.req)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}

			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *validation.Error, got %v", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Errorf("Expected %d field errors, got %v", len(tt.wantFields), verr.Fields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("Expected error for field %q, got %v", f, verr.Fields)
				}
			}
		})
	}
}
