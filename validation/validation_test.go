package validation

import "testing"

// TestValidateAddress verifies hex address validation
func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"checksummed", "0x3BEa30431539669E94B2E79149654586F7746A16", true},
		{"lowercase", "0x3bea30431539669e94b2e79149654586f7746a16", true},
		{"uppercase hex", "0x3BEA30431539669E94B2E79149654586F7746A16", true},
		{"missing prefix", "3BEa30431539669E94B2E79149654586F7746A16", false},
		{"too short", "0x3BEa3043", false},
		{"too long", "0x3BEa30431539669E94B2E79149654586F7746A1600", false},
		{"non hex", "0xZBEa30431539669E94B2E79149654586F7746A16", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateAddress(%q) error = %v, valid = %v", tt.address, err, tt.valid)
			}
		})
	}
}

// TestValidateBaseUnits verifies base-unit string validation
func TestValidateBaseUnits(t *testing.T) {
	tests := []struct {
		name  string
		units string
		valid bool
	}{
		{"positive", "100500000", true},
		{"one", "1", true},
		{"zero", "0", false},
		{"negative", "-5", false},
		{"decimal", "1.5", false},
		{"empty", "", false},
		{"letters", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseUnits(tt.units)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateBaseUnits(%q) error = %v, valid = %v", tt.units, err, tt.valid)
			}
		})
	}
}

// TestValidatePositiveDecimal verifies decimal amount validation
func TestValidatePositiveDecimal(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		valid  bool
	}{
		{"integer", "100", true},
		{"decimal", "100.50", true},
		{"small", "0.000001", true},
		{"zero", "0", false},
		{"zero point zero", "0.0", false},
		{"negative", "-1", false},
		{"empty", "", false},
		{"trailing dot", "1.", false},
		{"scientific", "1e6", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveDecimal(tt.amount)
			if (err == nil) != tt.valid {
				t.Errorf("ValidatePositiveDecimal(%q) error = %v, valid = %v", tt.amount, err, tt.valid)
			}
		})
	}
}
