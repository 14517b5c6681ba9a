package http

import "payeerules/internal/modkit/swaggerkit"

// Doc adds the rule endpoints to the API document, prefix is the module mount point
func Doc(prefix string) swaggerkit.SpecMutator {
	return func(spec map[string]any) {
		schemas := swaggerkit.Schemas(spec)
		schemas["Rule"] = object(map[string]any{
			"key":          str(),
			"tenant_id":    str(),
			"pattern":      str(),
			"is_regex":     boolean(),
			"category":     str(),
			"created_at":   dateTime(),
			"modified_at":  dateTime(),
			"last_used_at": nullable(dateTime()),
			"match_count":  map[string]any{"type": "integer", "format": "int64"},
		})
		schemas["RuleInput"] = object(map[string]any{
			"pattern":  map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
			"is_regex": boolean(),
			"category": map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
		}, "pattern", "category")
		schemas["ApplyInput"] = object(map[string]any{
			"transactions": map[string]any{
				"type":     "array",
				"maxItems": 10000,
				"items":    object(map[string]any{"payee": str()}),
			},
		}, "transactions")
		schemas["ApplyOutput"] = object(map[string]any{
			"batch_id":      str(),
			"categories":    map[string]any{"type": "array", "items": nullable(str())},
			"touched_rules": map[string]any{"type": "integer"},
		})
		schemas["PreviewOutput"] = object(map[string]any{
			"matches": map[string]any{"type": "array", "items": object(map[string]any{
				"rule_key": str(),
				"category": str(),
				"matched":  boolean(),
			})},
		})
		schemas["ValidateResult"] = object(map[string]any{
			"ok":      boolean(),
			"kind":    map[string]any{"type": "string", "enum": []any{"ok", "empty", "unsupported", "syntax"}},
			"feature": str(),
			"message": str(),
		})

		key := []any{map[string]any{"name": "key", "in": "path", "required": true, "schema": str()}}
		paths := swaggerkit.Paths(spec)
		paths[prefix] = map[string]any{
			"get": op("List rules", nil, "Rule", []any{
				query("page", "integer"), query("page_size", "integer"),
				query("sort", "string"), query("q", "string"),
			}),
			"post": op("Create a rule", ref("RuleInput"), "Rule", nil),
		}
		paths[swaggerkit.JoinPath(prefix, "/{key}")] = map[string]any{
			"get":    op("Get a rule", nil, "Rule", key),
			"put":    op("Replace a rule", ref("RuleInput"), "Rule", key),
			"delete": op("Delete a rule", nil, "", key),
		}
		paths[swaggerkit.JoinPath(prefix, "/apply")] = map[string]any{
			"post": op("Categorize transactions and record rule usage", ref("ApplyInput"), "ApplyOutput", nil),
		}
		paths[swaggerkit.JoinPath(prefix, "/preview")] = map[string]any{
			"post": op("Categorize transactions without recording usage", ref("ApplyInput"), "PreviewOutput", nil),
		}
		paths[swaggerkit.JoinPath(prefix, "/validate")] = map[string]any{
			"post": op("Check a regex pattern", object(map[string]any{"pattern": str()}, "pattern"), "ValidateResult", nil),
		}
	}
}

func op(summary string, body map[string]any, out string, params []any) map[string]any {
	o := map[string]any{"summary": summary, "tags": []any{"Rules"}}
	if body != nil {
		o["requestBody"] = map[string]any{
			"required": true,
			"content":  map[string]any{"application/json": map[string]any{"schema": body}},
		}
	}
	if params != nil {
		o["parameters"] = params
	}
	if out == "" {
		o["responses"] = map[string]any{"204": map[string]any{"description": "No Content"}}
		return o
	}
	o["responses"] = map[string]any{
		"200": map[string]any{
			"description": "OK",
			"content":     map[string]any{"application/json": map[string]any{"schema": ref(out)}},
		},
		"404": map[string]any{"description": "Not Found"},
	}
	return o
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		o["required"] = req
	}
	return o
}

func query(name, typ string) map[string]any {
	return map[string]any{"name": name, "in": "query", "required": false, "schema": map[string]any{"type": typ}}
}

func ref(name string) map[string]any { return map[string]any{"$ref": "#/components/schemas/" + name} }
func str() map[string]any            { return map[string]any{"type": "string"} }
func boolean() map[string]any        { return map[string]any{"type": "boolean"} }

func dateTime() map[string]any { return map[string]any{"type": "string", "format": "date-time"} }

func nullable(s map[string]any) map[string]any {
	s["nullable"] = true
	return s
}
