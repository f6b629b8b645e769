// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// JoinKey appends key to a dotted key path, quoting it when it contains
// characters that would make the path ambiguous.
func JoinKey(prefix, key string) string {
	return joinKey(prefix, key)
}

func joinKey(prefix, key string) string {
	if strings.ContainsAny(key, ". '\"") {
		key = "'" + key + "'"
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// sortedKeys returns the keys of m in order, so the first reported error
// does not depend on map iteration.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	case time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func shapeError(key, want string, v any) *Error {
	return Errorf(ErrSchemaViolation, key, "expected %s, found %s", want, typeName(v))
}

func bindString(v any, key string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", shapeError(key, "a string", v)
	}
	return s, nil
}

func bindBool(v any, key string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, shapeError(key, "a boolean", v)
	}
	return b, nil
}

func bindBoolPtr(v any, key string) (*bool, error) {
	b, err := bindBool(v, key)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func bindInt(v any, key string) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, shapeError(key, "an integer", v)
	}
	return n, nil
}

func bindStrings(v any, key string) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, shapeError(key, "an array of strings", v)
	}
	out := make([]string, 0, len(arr))
	for i, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, shapeError(fmt.Sprintf("%s[%d]", key, i), "a string", e)
		}
		out = append(out, s)
	}
	return out, nil
}

func bindTable(v any, key string) (map[string]any, error) {
	t, ok := v.(map[string]any)
	if !ok {
		return nil, shapeError(key, "a table", v)
	}
	return t, nil
}

func bindTableArray(v any, key string) ([]map[string]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, shapeError(key, "an array of tables", v)
	}
	out := make([]map[string]any, 0, len(arr))
	for i, e := range arr {
		t, ok := e.(map[string]any)
		if !ok {
			return nil, shapeError(fmt.Sprintf("%s[%d]", key, i), "a table", e)
		}
		out = append(out, t)
	}
	return out, nil
}

// bindInheritable handles both `key.workspace = true` and a plain value.
func bindInheritable[T any](v any, key string, conv func(any, string) (T, error)) (Inheritable[T], error) {
	if t, ok := v.(map[string]any); ok {
		if marker, found := t["workspace"]; found {
			if err := checkWorkspaceMarker(t, marker, key); err != nil {
				return Inheritable[T]{}, err
			}
			return Delegated[T](), nil
		}
	}
	val, err := conv(v, key)
	if err != nil {
		return Inheritable[T]{}, err
	}
	return Local(val), nil
}

func checkWorkspaceMarker(t map[string]any, marker any, key string) error {
	b, err := bindBool(marker, joinKey(key, "workspace"))
	if err != nil {
		return err
	}
	if !b {
		return Errorf(ErrSchemaViolation, joinKey(key, "workspace"), "`workspace` cannot be false")
	}
	if len(t) != 1 {
		return Errorf(ErrSchemaViolation, key, "no other keys are allowed next to `workspace = true`")
	}
	return nil
}

func bindEdition(v any, key string) (Edition, error) {
	s, err := bindString(v, key)
	if err != nil {
		return "", err
	}
	e := Edition(s)
	if !e.IsKnown() {
		return "", Errorf(ErrSchemaViolation, key, "unknown edition %q", s)
	}
	return e, nil
}

func bindOptionalFile(v any, key string) (OptionalFile, error) {
	switch v := v.(type) {
	case bool:
		return FileFlag(v), nil
	case string:
		return FilePath(v), nil
	default:
		return OptionalFile{}, shapeError(key, "a boolean or a path", v)
	}
}

func bindPublish(v any, key string) (Publish, error) {
	switch val := v.(type) {
	case bool:
		return Publish{Enabled: val}, nil
	case []any:
		regs, err := bindStrings(v, key)
		if err != nil {
			return Publish{}, err
		}
		return Publish{Enabled: len(regs) > 0, Registries: regs}, nil
	default:
		return Publish{}, shapeError(key, "a boolean or an array of registry names", v)
	}
}
