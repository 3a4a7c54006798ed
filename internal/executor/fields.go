package executor

import (
	"encoding/json"
	"strconv"
)

// formFields flattens a scalar container body into multipart form values.
// Non-scalar values are carried as their JSON encoding.
func formFields(body map[string]any) map[string]string {
	fields := make(map[string]string, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		case bool:
			fields[key] = strconv.FormatBool(v)
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			fields[key] = strconv.Itoa(v)
		case int64:
			fields[key] = strconv.FormatInt(v, 10)
		case json.Number:
			fields[key] = v.String()
		default:
			if encoded, err := json.Marshal(v); err == nil {
				fields[key] = string(encoded)
			}
		}
	}
	return fields
}
