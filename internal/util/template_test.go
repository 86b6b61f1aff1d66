package util

import "testing"

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Hello {{.name}}, you work as {{.occupation}}.", map[string]any{
		"name": "Ada", "occupation": "teacher",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello Ada, you work as teacher." {
		t.Errorf("rendered = %q", out)
	}

	// Fast path: no markers means no template machinery.
	out, err = RenderTemplate("plain text", nil)
	if err != nil || out != "plain text" {
		t.Errorf("fast path = %q, %v", out, err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("no-op truncate = %q", got)
	}
	got := Truncate("abcdefghij", 4)
	if got != "abcd... (6 chars truncated)" {
		t.Errorf("truncate = %q", got)
	}
	if Truncate("x", 0) != "" {
		t.Error("zero max should yield empty string")
	}
}
