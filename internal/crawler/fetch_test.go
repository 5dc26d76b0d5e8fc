package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "strips scripts and styles",
			html: `<html><head><style>body{color:red}</style></head>
				<body><script>var x = 1;</script><p>Senior Java Developer</p></body></html>`,
			want: "Senior Java Developer",
		},
		{
			name: "collapses whitespace",
			html: "<p>one</p>\n\n<p>  two\tthree </p>",
			want: "one two three",
		},
		{
			name: "noscript is ignored",
			html: "<noscript>enable javascript</noscript><div>visible</div>",
			want: "visible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractText(strings.NewReader(tt.html))
			if got != tt.want {
				t.Errorf("extractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><h1>Job Posting</h1><script>track()</script><p>Python engineer wanted</p></body></html>"))
	}))
	defer srv.Close()

	f := NewTextFetcher(5 * time.Second)
	got, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	want := "Job Posting Python engineer wanted"
	if got != want {
		t.Errorf("FetchText() = %q, want %q", got, want)
	}
}

func TestFetchTextErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewTextFetcher(5 * time.Second)
	if _, err := f.FetchText(context.Background(), srv.URL); err == nil {
		t.Error("FetchText() on 404 should fail")
	}
	if _, err := f.FetchText(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Error("FetchText() on refused connection should fail")
	}
}

func TestFetchTextCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<body>" + long + "</body>"))
	}))
	defer srv.Close()

	f := NewTextFetcher(5 * time.Second)
	got, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if len(got) > maxFetchedText {
		t.Errorf("len = %d, want <= %d", len(got), maxFetchedText)
	}
}
