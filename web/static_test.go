package web

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestFS_EmbedsShell(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		b, err := fs.ReadFile(FS(""), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(b) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

// the shell is served under script-src 'self', so nothing may be inline
func TestIndex_NoInlineCode(t *testing.T) {
	b, err := fs.ReadFile(FS(""), "index.html")
	if err != nil {
		t.Fatal(err)
	}

	inline := []*regexp.Regexp{
		regexp.MustCompile(`<script>`),
		regexp.MustCompile(`<style`),
		regexp.MustCompile(`\sstyle="`),
		regexp.MustCompile(`\son[a-z]+="`),
	}
	for _, re := range inline {
		if re.Match(b) {
			t.Fatalf("index.html matches %s", re)
		}
	}
}

func TestFS_PrefersDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("override"), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := fs.ReadFile(FS(dir), "index.html")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "override" {
		t.Fatalf("got %q", b)
	}
}
