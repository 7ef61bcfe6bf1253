package urlutil

import "testing"

func TestIsHTTPScheme(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "https scheme",
			input:    "https://example.com",
			expected: true,
		},
		{
			name:     "http scheme",
			input:    "http://example.com",
			expected: true,
		},
		{
			name:     "mailto scheme",
			input:    "mailto:user@example.com",
			expected: false,
		},
		{
			name:     "javascript scheme",
			input:    "javascript:void(0)",
			expected: false,
		},
		{
			name:     "ftp scheme",
			input:    "ftp://files.example.com",
			expected: false,
		},
		{
			name:     "empty string",
			input:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsHTTPScheme(tt.input)
			if got != tt.expected {
				t.Errorf("IsHTTPScheme(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://Example.com/page", "example.com"},
		{"http://localhost:8080/", "localhost"},
		{"not a url", "unknown"},
		{"::", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Hostname(tt.input); got != tt.expected {
				t.Errorf("Hostname(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dotted host", "https://www.example.com/a/b", "www-example-com"},
		{"port dropped", "http://127.0.0.1:3000", "127-0-0-1"},
		{"unparseable", "%%", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlugString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Desktop", "desktop"},
		{"Mobile (portrait)", "mobile-portrait"},
		{"  --  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SlugString(tt.input); got != tt.expected {
				t.Errorf("SlugString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
