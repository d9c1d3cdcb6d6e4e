//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: hello\nwelcome_user: hello %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "hello" {
			t.Errorf("wanted 'hello', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ali"); got != "hello Ali" {
			t.Errorf("wanted 'hello Ali', got '%s'", got)
		}
	})
}

func TestNewTranslator_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/de.yaml":       {Data: []byte("greeting: hallo")},
		"locales/policy-de.txt": {Data: []byte("Datenschutz")},
		"locales/fr.yaml":       {Data: []byte("greeting: salut")},
	}
	tr, err := NewTranslator(fsys, "de")
	if err != nil {
		t.Fatal(err)
	}
	if tr.T("greeting") != "hallo" || tr.Policy() != "Datenschutz" {
		t.Errorf("got %q / %q", tr.T("greeting"), tr.Policy())
	}
	if _, err := NewTranslator(fsys, "fr"); err == nil {
		t.Error("missing policy file should fail")
	}
}

func TestEmbedded(t *testing.T) {
	tr, err := Embedded("xx")
	if err != nil {
		t.Fatalf("unknown languages should fall back to English: %v", err)
	}
	for _, key := range []string{"welcome_message", "session_ended", "rate_limited", "feedback_positive_button"} {
		if tr.T(key) == key {
			t.Errorf("key %s missing from the English locale", key)
		}
	}
	if !strings.Contains(tr.T("session_timeout", "5m0s"), "5m0s") {
		t.Error("session_timeout should take the idle duration")
	}
	if tr.Policy() == "" {
		t.Error("policy text should be embedded")
	}
}
