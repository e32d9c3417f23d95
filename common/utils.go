package common

import (
	"encoding/json"
	"regexp"
	"strconv"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
)

// CheckMetadataKeyAndValueLength checks the length of each metadata key and value against a shared limit.
func CheckMetadataKeyAndValueLength(limit int, metadata map[string]any) error {
	for k, v := range metadata {
		if len(k) > limit {
			return cn.ErrPayloadTooLarge
		}

		var value string
		switch t := v.(type) {
		case int:
			value = strconv.Itoa(t)
		case float64:
			value = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			value = t
		case bool:
			value = strconv.FormatBool(t)
		}

		if len(value) > limit {
			return cn.ErrPayloadTooLarge
		}
	}

	return nil
}

// StructToJSONString converts a struct to its JSON string representation.
func StructToJSONString(s any) (string, error) {
	jsonByte, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	return string(jsonByte), nil
}

// ReplaceUUIDWithPlaceholder replaces any UUID segment of a URL path with ":id", used to keep
// trace span names and access-log routes low-cardinality.
func ReplaceUUIDWithPlaceholder(path string) string {
	r := regexp.MustCompile(`[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}`)
	return r.ReplaceAllString(path, ":id")
}
