package dispatch

// InputSchema renders the tool's parameters as a JSON Schema object for MCP
// clients. Dates and timestamps are strings with a format hint.
func (t *Tool) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := make([]string, 0)
	for _, p := range t.Params {
		prop := map[string]any{}
		switch p.Type {
		case TypeDate:
			prop["type"] = "string"
			prop["format"] = "date"
		case TypeTimestamp:
			prop["type"] = "string"
			prop["format"] = "date-time"
		default:
			prop["type"] = string(p.Type)
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Min != nil {
			prop["minimum"] = *p.Min
		}
		if p.Max != nil {
			prop["maximum"] = *p.Max
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
