// Package llm defines the model-client abstraction injected into agents.
// The runtime treats the client as an external collaborator: agents call
// GenerateJSON to obtain a structured reply and the engine swaps clients on
// API-key rotation. Providers register themselves via init() so that
// importing a provider package is sufficient to make it available through
// the registry:
//
//	import _ "github.com/murmurlabs/chorus/llm/providers/openai"
//
//	client, err := llm.New("openai", cfg)
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message sent to the model.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Client is the model client injected into agents. GenerateJSON sends the
// messages to the named model and returns the decoded JSON object reply.
// Implementations enforce their own request deadline and return an error on
// failure; they never panic.
type Client interface {
	GenerateJSON(ctx context.Context, model string, msgs []Message) (map[string]any, error)
}

// ClientReceiver is implemented by agents that accept client injection.
// The engine calls SetClient at registration time and again whenever the
// host rotates the API key.
type ClientReceiver interface {
	SetClient(Client)
}

// Factory is a constructor function for creating a Client from config.
type Factory func(cfg config.ProviderConfig) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a client factory under the given provider name.
// This is typically called from init() in provider implementation files.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a client by looking up the registered provider factory.
func New(name string, cfg config.ProviderConfig) (Client, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, core.NewError("llm.new", core.ErrNotRegistered,
			fmt.Sprintf("provider %q not registered", name), nil)
	}
	return factory(cfg)
}

// List returns the sorted names of all registered providers.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
