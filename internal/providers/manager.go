package providers

import (
	"fmt"
	"strings"

	"studyflow/internal/config"
)

// ProviderRef is one entry of a provider list such as "local|openai:primary".
// The optional alias after the colon selects a key or model variant.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Name = strings.TrimSpace(x[0])
			ref.KeyAlias = strings.TrimSpace(x[1])
		} else {
			ref.Name = p
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

type NamedSpeechProvider struct {
	Ref      ProviderRef
	Provider SpeechProvider
}

type Manager struct {
	llmProviders    []NamedLLMProvider
	embedProviders  []NamedEmbedProvider
	speechProviders []NamedSpeechProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support generation", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
		// Speech capability rides on the generation list; providers that
		// cannot transcribe are simply skipped.
		if sp, ok := p.(SpeechProvider); ok {
			m.speechProviders = append(m.speechProviders, NamedSpeechProvider{Ref: ref, Provider: sp})
		}
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	if len(m.speechProviders) == 0 {
		m.speechProviders = []NamedSpeechProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(cfg.EmbedDim)}}
	}
	return m, nil
}

func (m *Manager) EmbedProviderByIndex(i int) (EmbeddingProvider, ProviderRef) {
	if i < 0 || i >= len(m.embedProviders) {
		i = 0
	}
	return m.embedProviders[i].Provider, m.embedProviders[i].Ref
}

func (m *Manager) LLMProviderByIndex(i int) (LLMProvider, ProviderRef) {
	if i < 0 || i >= len(m.llmProviders) {
		i = 0
	}
	return m.llmProviders[i].Provider, m.llmProviders[i].Ref
}

func (m *Manager) SpeechProviderByIndex(i int) (SpeechProvider, ProviderRef) {
	if i < 0 || i >= len(m.speechProviders) {
		i = 0
	}
	return m.speechProviders[i].Provider, m.speechProviders[i].Ref
}

func (m *Manager) EmbedCount() int  { return len(m.embedProviders) }
func (m *Manager) LLMCount() int    { return len(m.llmProviders) }
func (m *Manager) SpeechCount() int { return len(m.speechProviders) }

// Preferred orders put real providers before the mock so offline fallback
// only engages when everything else is down.
func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func (m *Manager) PreferredEmbedOrder() []int {
	return preferredOrder(len(m.embedProviders), func(i int) string { return strings.ToLower(m.embedProviders[i].Ref.Name) })
}

func (m *Manager) PreferredSpeechOrder() []int {
	return preferredOrder(len(m.speechProviders), func(i int) string { return strings.ToLower(m.speechProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ref ProviderRef, cfg config.Config) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "local":
		return NewLocalProvider(cfg.EmbedModel, cfg.ModelCacheDir, cfg.EmbedDim, cfg.EmbedBatchSize)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
