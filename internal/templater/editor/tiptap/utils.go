package tiptap

import "math"

// normalizeAttrs приводит атрибуты из JSON к типам схемы: целые числа из JSON
// приходят как float64, а схема хранит int.
func normalizeAttrs(attrs map[string]interface{}) map[string]interface{} {
	if len(attrs) == 0 {
		return attrs
	}
	res := make(map[string]interface{}, len(attrs))
	for key, val := range attrs {
		if f, ok := val.(float64); ok && f == math.Trunc(f) {
			res[key] = int(f)
			continue
		}
		res[key] = val
	}
	return res
}
