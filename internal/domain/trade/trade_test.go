package trade

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid", req: CreateRequest{Cards: []CreateCard{{CardID: "c1", Type: Offering}, {CardID: "c2", Type: Receiving}}}},
		{name: "no cards", req: CreateRequest{}, wantErr: "at least one card is required"},
		{name: "missing id", req: CreateRequest{Cards: []CreateCard{{Type: Offering}}}, wantErr: "cards[0]: card id is required"},
		{name: "bad type", req: CreateRequest{Cards: []CreateCard{{CardID: "c1", Type: "SELLING"}}}, wantErr: `cards[0]: invalid type "SELLING": must be OFFERING or RECEIVING`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestWithout(t *testing.T) {
	trades := []Trade{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := Without(trades, "b")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(trades) != 3 {
		t.Fatal("input slice must not be modified")
	}
}

func TestFilters_Unconditioned(t *testing.T) {
	if !(Filters{RPP: 100}).Unconditioned() {
		t.Fatal("rpp alone should be unconditioned")
	}
	if (Filters{UserID: "u1"}).Unconditioned() {
		t.Fatal("user filter should be conditioned")
	}
	if (Filters{Page: 2}).FirstPage() {
		t.Fatal("page 2 is not the first page")
	}
}
