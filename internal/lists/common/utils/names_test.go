package utils

import "testing"

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already canonical", input: "example.com", expected: "example.com"},
		{name: "mixed case", input: "ExAmPlE.CoM", expected: "example.com"},
		{name: "trailing dots", input: "example.com..", expected: "example.com"},
		{name: "whitespace", input: "  example.com.  ", expected: "example.com"},
		{name: "wildcard kept", input: "*.Example.com", expected: "*.example.com"},
		{name: "empty", input: "", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalName(tt.input); got != tt.expected {
				t.Errorf("CanonicalName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "ascii", input: "Foo.Example.", expected: "foo.example"},
		{name: "idn", input: "bücher.example", expected: "xn--bcher-kva.example"},
		{name: "wildcard idn", input: "*.bücher.example", expected: "*.xn--bcher-kva.example"},
		{name: "empty", input: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeInput(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeInput(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestApexDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"www.example.com", "example.com"},
		{"example.com.", "example.com"},
		{"*.evil.example.co.uk", "example.co.uk"},
		{"user.github.io", "user.github.io"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		if got := ApexDomain(tt.input); got != tt.expected {
			t.Errorf("ApexDomain(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsPublicSuffix(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"com", true},
		{"co.uk", true},
		{"example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPublicSuffix(tt.input); got != tt.expected {
			t.Errorf("IsPublicSuffix(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
