package extract

import (
	"reflect"
	"testing"
)

func TestAnchors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		html  string
		limit int
		want  []string
	}{
		{
			name: "document order",
			html: `<html><body>
				<a href="/first">1</a>
				<a href="https://x.test/second">2</a>
				<a href="../third">3</a>
			</body></html>`,
			want: []string{"/first", "https://x.test/second", "../third"},
		},
		{
			name: "duplicates removed",
			html: `<a href="/a">1</a><a href="/b">2</a><a href="/a">3</a>`,
			want: []string{"/a", "/b"},
		},
		{
			name: "anchors without href ignored",
			html: `<a name="top">anchor</a><a href="/real">link</a>`,
			want: []string{"/real"},
		},
		{
			name: "blank hrefs ignored",
			html: `<a href="">empty</a><a href="   ">spaces</a><a href="/ok">ok</a>`,
			want: []string{"/ok"},
		},
		{
			name:  "limit caps results",
			html:  `<a href="/a">1</a><a href="/b">2</a><a href="/c">3</a>`,
			limit: 2,
			want:  []string{"/a", "/b"},
		},
		{
			name: "no anchors",
			html: `<html><body><p>plain text</p></body></html>`,
			want: nil,
		},
		{
			name: "malformed markup still yields anchors",
			html: `<div><a href="/a">unclosed<a href="/b">`,
			want: []string{"/a", "/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Anchors([]byte(tt.html), tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Anchors = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain title",
			html: `<html><head><title>Getting Started</title></head></html>`,
			want: "Getting Started",
		},
		{
			name: "whitespace collapsed",
			html: "<title>\n  Getting\n  Started  \t</title>",
			want: "Getting Started",
		},
		{
			name: "missing title",
			html: `<html><body><h1>Heading</h1></body></html>`,
			want: DefaultTitle,
		},
		{
			name: "empty title element",
			html: `<title>   </title>`,
			want: DefaultTitle,
		},
		{
			name: "first title wins",
			html: `<title>One</title><title>Two</title>`,
			want: "One",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Title([]byte(tt.html)); got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}
