package provider_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"sol/provider"
	"sol/provider/testutil"
	"sol/tools"
)

// ExampleNewProvider demonstrates creating an Anthropic provider using the factory.
func ExampleNewProvider() {
	cfg := provider.Config{
		Type:   provider.ProviderTypeAnthropic,
		Model:  "claude-sonnet-4-20250514",
		APIKey: "sk-ant-...",
	}

	p, err := provider.NewProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T\n", p)
	fmt.Printf("Model: %s\n", p.Model())
	// Output:
	// Provider created: *provider.AnthropicProvider
	// Model: claude-sonnet-4-20250514
}

// ExampleAnthropicProvider_Complete shows that a provider without a key can
// be built but refuses to send requests.
func ExampleAnthropicProvider_Complete() {
	p := provider.NewAnthropicProvider("", "", "")

	_, err := p.Complete(context.Background(), testutil.SingleUserMessage("Hello"), "", tools.All(), 1024)
	fmt.Println(errors.Is(err, provider.ErrMissingCredential))
	// Output: true
}
