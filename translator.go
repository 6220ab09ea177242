package session

// DefaultMessageKey is the mandatory fallback entry in a translator mapping.
const DefaultMessageKey = "default"

// OverrideFunc lets a caller take over translation entirely. It receives the
// provider code and returns the display string; returning "" falls back to
// the configured mapping.
type OverrideFunc func(code string) string

// Translator maps opaque provider error codes to user-facing copy. It is a
// pure lookup: no I/O, deterministic, and total (unknown codes yield the
// default entry).
type Translator struct {
	messages map[string]string
	override OverrideFunc
}

type TranslatorOption func(*Translator)

// WithOverride installs a caller-supplied translation function that takes
// precedence over the mapping.
func WithOverride(fn OverrideFunc) TranslatorOption {
	return func(t *Translator) {
		t.override = fn
	}
}

// NewTranslator builds a Translator from an error text configuration. The
// mapping must contain a non-empty DefaultMessageKey entry.
func NewTranslator(messages map[string]string, opts ...TranslatorOption) (*Translator, error) {
	if messages[DefaultMessageKey] == "" {
		return nil, ErrTranslatorNoDefault.Clone().WithMetadata(map[string]any{
			"entries": len(messages),
		})
	}

	copied := make(map[string]string, len(messages))
	for k, v := range messages {
		copied[k] = v
	}

	t := &Translator{messages: copied}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t, nil
}

// Translate returns the display message for a provider code. Never empty.
func (t *Translator) Translate(code string) string {
	if t == nil {
		return ""
	}

	if t.override != nil {
		if msg := t.override(code); msg != "" {
			return msg
		}
	}

	if msg, ok := t.messages[code]; ok && msg != "" {
		return msg
	}

	return t.messages[DefaultMessageKey]
}

// TranslateError extracts the provider code from err and translates it.
func (t *Translator) TranslateError(err error) string {
	if err == nil {
		return ""
	}
	return t.Translate(ProviderCode(err))
}
