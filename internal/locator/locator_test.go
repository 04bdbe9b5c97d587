package locator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testBase = "https://kwsong.github.io/biodigitalviz/images"

func TestResolve(t *testing.T) {
	r := Resolver{BaseURL: testBase}

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"bare filename", "foo.png", testBase + "/foo.png", true},
		{"filename with spaces around", " moss.jpg ", testBase + "/moss.jpg", true},
		{"absolute https", "https://example.org/a.jpg", "https://example.org/a.jpg", true},
		{"absolute http", "http://example.org/a.jpg", "http://example.org/a.jpg", true},
		{
			"google redirect unwrapped",
			"https://www.google.com/url?sa=i&url=https%3A%2F%2Fexample.org%2Fa.jpg&psig=x",
			"https://example.org/a.jpg",
			true,
		},
		{
			"google redirect without target",
			"https://www.google.com/url?sa=i",
			"https://www.google.com/url?sa=i",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolve_BaseWithTrailingSlash(t *testing.T) {
	r := Resolver{BaseURL: testBase + "/"}
	got, _ := r.Resolve("foo.png")
	if got != testBase+"/foo.png" {
		t.Errorf("expected single slash join, got %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://www.google.com/imgres?imgurl=https://example.org/b.png&imgrefurl=https://example.org",
			"https://example.org/b.png",
		},
		{
			"https://www.google.co.uk/url?q=https%253A%252F%252Fexample.org%252Fc.gif",
			"https://example.org/c.gif",
		},
		{
			"https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.org%2Fd.jpg&h=AT0",
			"https://example.org/d.jpg",
		},
		{
			"https://www.google.com/url?url=not-a-url",
			"https://www.google.com/url?url=not-a-url",
		},
		{
			"https://example.org/url?url=https://other.org/e.jpg",
			"https://example.org/url?url=https://other.org/e.jpg",
		},
	}

	for _, tt := range tests {
		if got := Unwrap(tt.in); got != tt.want {
			t.Errorf("Unwrap(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestIsIndirect(t *testing.T) {
	urls := []string{
		"https://www.google.com/search?q=moss&tbm=isch",
		"https://www.google.com/url?sa=i",
		"https://www.google.de/imgres?imgrefurl=x",
		"https://www.bing.com/images/search?q=moss",
		"https://duckduckgo.com/?q=moss&iax=images",
		"https://images.app.goo.gl/abc123",
	}
	direct := []string{
		"https://kwsong.github.io/biodigitalviz/images/foo.png",
		"https://example.org/search/moss.jpg",
		"https://duckduckgo.com/assets/logo.png",
		"https://upload.wikimedia.org/wikipedia/commons/a/a9/Example.jpg",
	}

	var gotIndirect, gotDirect []string
	for _, u := range urls {
		if !IsIndirect(u) {
			gotIndirect = append(gotIndirect, u)
		}
	}
	for _, u := range direct {
		if IsIndirect(u) {
			gotDirect = append(gotDirect, u)
		}
	}

	if diff := cmp.Diff([]string(nil), gotIndirect); diff != "" {
		t.Errorf("indirect urls not detected (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string(nil), gotDirect); diff != "" {
		t.Errorf("direct urls flagged as indirect (-want +got):\n%s", diff)
	}
}
