package assistant

import (
	"strings"

	"github.com/tuannvm/agentctl/internal/document"
)

// voiceProviderAliases maps config provider names to the platform's wire
// names.
var voiceProviderAliases = map[string]string{
	"elevenlabs": "11labs",
	"rime":       "rime-ai",
}

// BuildCreateRequest assembles the platform creation payload from a loaded
// configuration.
func BuildCreateRequest(cfg *Config) document.Document {
	req := document.Document{}

	if name, ok := cfg.Doc["name"].(string); ok && name != "" {
		req["name"] = name
	}
	if voice := buildVoice(cfg.Doc); voice != nil {
		req["voice"] = voice
	}
	req["model"] = buildModel(cfg)
	if trans, ok := cfg.Doc["transcriber"].(document.Document); ok {
		req["transcriber"] = buildTranscriber(trans)
	}
	if server := buildServer(cfg.Doc); server != nil {
		req["server"] = server
	}

	if cfg.FirstMessage != "" {
		req["firstMessage"] = cfg.FirstMessage
	} else if fm, ok := cfg.Doc["firstMessage"].(string); ok && fm != "" {
		req["firstMessage"] = fm
	}
	if mode, ok := cfg.Doc["firstMessageMode"].(string); ok && mode != "" {
		req["firstMessageMode"] = mode
	}
	if msgs, ok := cfg.Doc["serverMessages"].([]any); ok && len(msgs) > 0 {
		req["serverMessages"] = msgs
	}
	return req
}

func buildVoice(doc document.Document) document.Document {
	cfg, ok := doc["voice"].(document.Document)
	if !ok {
		return nil
	}
	voice := document.Document{}
	if provider, ok := cfg["provider"].(string); ok && provider != "" {
		if alias, aliased := voiceProviderAliases[provider]; aliased {
			provider = alias
		}
		voice["provider"] = provider
	}
	if id, ok := cfg["voiceId"].(string); ok && id != "" {
		voice["voiceId"] = id
	}
	if model, ok := cfg["model"].(string); ok && model != "" {
		voice["model"] = model
	}
	return voice
}

func buildModel(cfg *Config) document.Document {
	model := document.Document{}
	if mc, ok := cfg.Doc["model"].(document.Document); ok {
		for _, key := range []string{"model", "provider", "temperature"} {
			if v, present := mc[key]; present {
				model[key] = v
			}
		}
	}
	if tools := buildTools(cfg.Tools); len(tools) > 0 {
		model["tools"] = tools
	}
	if cfg.SystemPrompt != "" {
		model["messages"] = []any{
			document.Document{"role": "system", "content": cfg.SystemPrompt},
		}
	}
	return model
}

func buildTranscriber(cfg document.Document) document.Document {
	trans := document.Document{}
	for _, key := range []string{"model", "provider", "language"} {
		if v, present := cfg[key]; present {
			trans[key] = v
		}
	}
	return trans
}

// buildServer expands ${ENV} placeholders in the server URL and drops the
// server block entirely when the URL is empty or still unresolved.
func buildServer(doc document.Document) document.Document {
	cfg, ok := doc["server"].(document.Document)
	if !ok {
		return nil
	}
	url := document.ExpandVars(document.GetString(cfg, "url"))
	if url == "" || strings.Contains(url, "${") {
		return nil
	}
	server := document.Document{"url": url}
	if timeout, present := cfg["timeoutSeconds"]; present {
		server["timeoutSeconds"] = timeout
	}
	return server
}

// buildTools flattens the assistant's tool files into the platform's tool
// list: function tools, transfer destinations, then the endCall default.
func buildTools(toolDocs map[string]document.Document) []any {
	var tools []any

	if fnFile, ok := toolDocs["functions"]; ok {
		if functions, ok := fnFile["functions"].([]any); ok {
			for _, raw := range functions {
				fn, ok := raw.(document.Document)
				if !ok {
					continue
				}
				tool := document.Document{
					"type": "function",
					"function": document.Document{
						"name":        fn["name"],
						"description": fn["description"],
						"parameters":  paramsOrEmpty(fn),
					},
				}
				if server, ok := fn["server"].(document.Document); ok && len(server) > 0 {
					tool["server"] = server
				}
				tools = append(tools, tool)
			}
		}
	}

	if transferFile, ok := toolDocs["transfers"]; ok {
		if destinations := buildTransferDestinations(transferFile); len(destinations) > 0 {
			tools = append(tools, document.Document{
				"type":         "transferCall",
				"destinations": destinations,
			})
		}
	}

	tools = append(tools, document.Document{"type": "endCall"})
	return tools
}

func buildTransferDestinations(file document.Document) []any {
	transfers, ok := file["transfers"].([]any)
	if !ok {
		return nil
	}
	var destinations []any
	for _, raw := range transfers {
		transfer, ok := raw.(document.Document)
		if !ok {
			continue
		}
		if t, _ := transfer["type"].(string); t != "number" {
			continue
		}
		number, _ := transfer["number"].(string)
		// Unresolved environment placeholders never reach the platform.
		if number == "" || strings.HasPrefix(number, "${") {
			continue
		}
		desc, _ := transfer["description"].(string)
		destinations = append(destinations, document.Document{
			"type":        "number",
			"number":      number,
			"description": desc,
		})
	}
	return destinations
}

func paramsOrEmpty(fn document.Document) document.Document {
	if params, ok := fn["parameters"].(document.Document); ok {
		return params
	}
	return document.Document{}
}
