package router

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

// Payload schemas for the four authority operations. Malformed
// payloads are rejected here, before any consensus state is touched.
var payloadSchemas = map[contracts.OperationType]string{
	contracts.OpStatusChange: `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"new_status": {"type": "string", "enum": ["active", "inactive", "suspended"]},
			"reason": {"type": "string"}
		},
		"required": ["new_status"],
		"additionalProperties": false
	}`,
	contracts.OpDeregistration: `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"reason": {"type": "string", "minLength": 1}
		},
		"required": ["reason"],
		"additionalProperties": false
	}`,
	contracts.OpDefaultFlag: `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"wallet": {"type": "string", "minLength": 1},
			"evidence_hash": {"type": "string", "pattern": "^[0-9a-fA-F]{64}$"}
		},
		"required": ["wallet"],
		"additionalProperties": false
	}`,
	contracts.OpForceIntervention: `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["halt_minting", "halt_redemption", "freeze_wallet"]},
			"reason": {"type": "string"}
		},
		"required": ["action"],
		"additionalProperties": false
	}`,
}

// compileSchemas compiles all payload schemas once at construction.
func compileSchemas() (map[contracts.OperationType]*jsonschema.Schema, error) {
	compiled := make(map[contracts.OperationType]*jsonschema.Schema, len(payloadSchemas))
	for op, raw := range payloadSchemas {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://warden.schemas.local/authority/%s.schema.json", strings.ToLower(string(op)))
		if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("load schema for %s: %w", op, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", op, err)
		}
		compiled[op] = s
	}
	return compiled, nil
}

// validatePayload checks an authority payload against its operation's
// schema. A nil payload is treated as an empty object so operations
// whose schema has required fields reject it.
func (r *Router) validatePayload(op contracts.OperationType, payload json.RawMessage) error {
	schema, ok := r.schemas[op]
	if !ok {
		return fmt.Errorf("operation %q: %w", op, contracts.ErrInvalidOperationType)
	}

	raw := payload
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("payload for %s: %w", op, contracts.ErrInvalidPayload)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload for %s: %w: %v", op, contracts.ErrInvalidPayload, err)
	}
	return nil
}
