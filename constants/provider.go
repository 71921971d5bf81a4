package constants

import "strings"

// Provider names the AI provider variants.
type Provider string

const (
	ProviderMock      Provider = "mock"
	ProviderCloudA    Provider = "cloud-a"
	ProviderCloudB    Provider = "cloud-b"
	ProviderLocalHTTP Provider = "local"
)

var allProviders = []Provider{ProviderMock, ProviderCloudA, ProviderCloudB, ProviderLocalHTTP}

// ProviderNames returns the accepted provider flag values.
func ProviderNames() []string {
	out := make([]string, len(allProviders))
	for i, p := range allProviders {
		out[i] = string(p)
	}
	return out
}

// ParseProvider resolves a user-supplied provider name. Unknown names
// resolve to the mock variant, which is always registered.
func ParseProvider(input string) (Provider, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch normalized {
	case "", "mock":
		return ProviderMock, normalized != ""
	case "cloud-a", "clouda", "openai":
		return ProviderCloudA, true
	case "cloud-b", "cloudb", "anthropic", "claude":
		return ProviderCloudB, true
	case "local", "local-http", "ollama":
		return ProviderLocalHTTP, true
	}
	return ProviderMock, false
}
