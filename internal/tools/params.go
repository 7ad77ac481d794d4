package tools

// Argument extraction helpers tolerant of the loose types produced by JSON
// decoding of tool arguments.

func stringParam(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolParam(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func mapParam(args map[string]interface{}, key string) map[string]interface{} {
	v, _ := args[key].(map[string]interface{})
	return v
}

func listParam(args map[string]interface{}, key string) []interface{} {
	v, _ := args[key].([]interface{})
	return v
}

func stringList(args map[string]interface{}, key string) []string {
	var out []string
	for _, item := range listParam(args, key) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
