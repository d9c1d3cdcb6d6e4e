package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves message keys for one language. Unknown keys are returned as-is.
type Translator struct {
	translations map[string]string
	policyText   string
}

// NewTranslator reads locales/<lang>.yaml and locales/policy-<lang>.txt from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}

	policyPath := path.Join("locales", fmt.Sprintf("policy-%s.txt", langCode))
	policyBytes, err := fs.ReadFile(fsys, policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", policyPath, err)
	}
	t.policyText = string(policyBytes)
	return t, nil
}

// Embedded loads langCode from the locales compiled into the binary and falls
// back to English when the language is not shipped.
func Embedded(langCode string) (*Translator, error) {
	t, err := NewTranslator(LocalesFS, langCode)
	if err != nil && langCode != "en" {
		return NewTranslator(LocalesFS, "en")
	}
	return t, err
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Policy is the data-use notice shown by /privacy.
func (t *Translator) Policy() string {
	return t.policyText
}
