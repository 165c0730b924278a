package provision

import (
	"github.com/opencode-ai/foundry/internal/store"
)

// stateKey is the store entry holding the persisted template record.
const stateKey = "template"

// TemplateState records which template, version, and variable bindings were
// last applied to a project. It is overwritten whole on every provisioning
// pass.
type TemplateState struct {
	Name      string
	Version   string
	Variables map[string]any
}

func loadState(st *store.Store) (*TemplateState, bool) {
	raw, ok := st.Get(stateKey, nil).(map[string]any)
	if !ok {
		return nil, false
	}

	state := &TemplateState{Variables: make(map[string]any)}
	if name, ok := raw["name"].(string); ok {
		state.Name = name
	}
	if version, ok := raw["version"].(string); ok {
		state.Version = version
	}
	if variables, ok := raw["variables"].(map[string]any); ok {
		state.Variables = variables
	}

	return state, true
}

func saveState(st *store.Store, state *TemplateState) error {
	return st.Set(stateKey, map[string]any{
		"name":      state.Name,
		"version":   state.Version,
		"variables": state.Variables,
	})
}
