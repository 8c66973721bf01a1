package processor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func stringProp() map[string]any { return map[string]any{"type": "string"} }

func nonEmptyStringProp() map[string]any { return map[string]any{"type": "string", "minLength": 1} }

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": stringProp()}
}

func objectOf(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

// BuildResumeJSONSchema 返回输出文件的结构约束
// 前端直接导入 resume.json，所有字段必须存在
func BuildResumeJSONSchema() map[string]any {
	schema := objectOf(map[string]any{
		"name":  nonEmptyStringProp(),
		"title": nonEmptyStringProp(),
		"contact": objectOf(map[string]any{
			"email":    stringProp(),
			"phone":    stringProp(),
			"location": stringProp(),
			"linkedin": stringProp(),
			"github":   stringProp(),
		}),
		"summary": nonEmptyStringProp(),
		"skills":  map[string]any{"type": "array", "items": nonEmptyStringProp(), "uniqueItems": true},
		"experience": arrayOf(objectOf(map[string]any{
			"title":       stringProp(),
			"company":     stringProp(),
			"period":      stringProp(),
			"description": stringProp(),
			"highlights":  stringArrayProp(),
		})),
		"education": arrayOf(objectOf(map[string]any{
			"degree":      stringProp(),
			"institution": stringProp(),
			"period":      stringProp(),
		})),
		"projects": arrayOf(objectOf(map[string]any{
			"name":         nonEmptyStringProp(),
			"description":  stringProp(),
			"technologies": stringArrayProp(),
			"link":         stringProp(),
		})),
		"certifications": arrayOf(objectOf(map[string]any{
			"name":   nonEmptyStringProp(),
			"issuer": stringProp(),
			"date":   stringProp(),
		})),
	})
	schema["$schema"] = "http://json-schema.org/draft-07/schema#"
	return schema
}

// compileSchema 编译结构约束，处理器创建时执行一次
func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("resume.schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("resume.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validatePayload 校验即将写入磁盘的JSON字节
func validatePayload(schema *jsonschema.Schema, payload []byte) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
