package crawler

import (
	"errors"
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	base, err := Normalize("https://docs.example.com/guide/", nil)
	if err != nil {
		t.Fatalf("normalize base: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		base *url.URL
		want string
	}{
		{
			name: "absolute url unchanged",
			raw:  "https://docs.example.com/api",
			want: "https://docs.example.com/api",
		},
		{
			name: "fragment stripped",
			raw:  "https://docs.example.com/api#section-2",
			want: "https://docs.example.com/api",
		},
		{
			name: "host lowercased",
			raw:  "https://Docs.Example.COM/API",
			want: "https://docs.example.com/API",
		},
		{
			name: "default https port stripped",
			raw:  "https://docs.example.com:443/api",
			want: "https://docs.example.com/api",
		},
		{
			name: "default http port stripped",
			raw:  "http://docs.example.com:80/api",
			want: "http://docs.example.com/api",
		},
		{
			name: "non-default port preserved",
			raw:  "https://docs.example.com:8443/api",
			want: "https://docs.example.com:8443/api",
		},
		{
			name: "empty path becomes root",
			raw:  "https://docs.example.com",
			want: "https://docs.example.com/",
		},
		{
			name: "query preserved",
			raw:  "https://docs.example.com/search?q=frontier&page=2",
			want: "https://docs.example.com/search?q=frontier&page=2",
		},
		{
			name: "schemeless gets default scheme",
			raw:  "//docs.example.com/api",
			want: "https://docs.example.com/api",
		},
		{
			name: "relative resolved against base",
			raw:  "../install",
			base: base,
			want: "https://docs.example.com/install",
		},
		{
			name: "root-relative resolved against base",
			raw:  "/changelog",
			base: base,
			want: "https://docs.example.com/changelog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tt.raw, tt.base)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if Key(got) != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, Key(got), tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://docs.example.com",
		"HTTP://Docs.Example.Com:80/Path/?a=1#frag",
		"https://docs.example.com:8443/x",
	}
	for _, raw := range inputs {
		once, err := Normalize(raw, nil)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", raw, err)
		}
		twice, err := Normalize(Key(once), nil)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)): %v", raw, err)
		}
		if Key(once) != Key(twice) {
			t.Errorf("normalization not idempotent for %q: %q != %q", raw, Key(once), Key(twice))
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		"mailto:team@example.com",
		"javascript:void(0)",
		"ftp://example.com/file",
		"relative/path",
		"http://",
		"://bad",
	}
	for _, raw := range invalid {
		if _, err := Normalize(raw, nil); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Normalize(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}
