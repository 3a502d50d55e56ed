package services

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// ParseFrontMatter extracts a leading YAML (---), TOML (+++) or JSON block.
// It returns a nil map and the untouched content when there is none.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, error) {
	var fm map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(content), &fm)
	if err != nil {
		return nil, string(content), err
	}
	if len(fm) == 0 {
		return nil, string(content), nil
	}
	return sanitizeFrontMatter(fm), string(body), nil
}

// sanitizeFrontMatter turns nested yaml maps into string keyed maps so the
// result can be rendered as JSON.
func sanitizeFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		sanitized[k] = sanitizeFrontMatterValue(v)
	}
	return sanitized
}

func sanitizeFrontMatterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return sanitizeFrontMatter(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeFrontMatterValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatterValue(v[i])
		}
		return slice
	case []map[string]interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatter(v[i])
		}
		return slice
	default:
		return v
	}
}
