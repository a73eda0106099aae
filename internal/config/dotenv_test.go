package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestParseDotEnv(t *testing.T) {
	pairs, err := parseDotEnv(strings.NewReader(`
# pricing defaults

AIR_CHANNEL=air-sensitive
export DOMESTIC_FEE=8 # per parcel
FX_URL="https://example.com/latest?base=SGD#frag"
ADMIN_PASSWORD='p #ss'
GREETING="hello\nworld"
`))
	if err != nil {
		t.Fatalf("parseDotEnv: %v", err)
	}

	want := []envPair{
		{"AIR_CHANNEL", "air-sensitive"},
		{"DOMESTIC_FEE", "8"},
		{"FX_URL", "https://example.com/latest?base=SGD#frag"},
		{"ADMIN_PASSWORD", "p #ss"},
		{"GREETING", "hello\nworld"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d: %+v", len(pairs), len(want), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pair %d = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestParseDotEnv_RejectsMalformedLines(t *testing.T) {
	for _, content := range []string{"JUSTAKEY\n", "=value\n", "TWO WORDS=x\n"} {
		_, err := parseDotEnv(strings.NewReader("OK=1\n" + content))
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("parseDotEnv(%q): expected a line 2 error, got %v", content, err)
		}
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("KEEP", "already")
	t.Setenv("FRESH", "")

	n, err := loadDotEnv(writeDotEnv(t, "KEEP=fromfile\nFRESH=new\n"))
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("set %d variables, want 1", n)
	}
	if got := os.Getenv("KEEP"); got != "already" {
		t.Fatalf("KEEP=%q, want %q", got, "already")
	}
	if got := os.Getenv("FRESH"); got != "new" {
		t.Fatalf("FRESH=%q, want %q", got, "new")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	n, err := loadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil || n != 0 {
		t.Fatalf("loadDotEnv(missing) = %d, %v", n, err)
	}
}
