package apprepo

import (
	"database/sql/driver"
	"fmt"

	"github.com/segmentio/encoding/json"
)

// JSONObject is a free form json object stored in a jsonb column.
type JSONObject map[string]interface{}

// StringList is a json array of strings stored in a jsonb column.
type StringList []string

// Permission declares the stack (and optionally regions) an app may run on.
type Permission struct {
	Stack   string   `json:"stack" validate:"required"`
	Regions []string `json:"regions,omitempty"`
}

type Permissions []Permission

// Stacks return distinct stack names in declaration order.
func (p Permissions) Stacks() []string {
	seen := make(map[string]struct{}, len(p))
	out := make([]string, 0, len(p))
	for _, perm := range p {
		if _, ok := seen[perm.Stack]; ok {
			continue
		}

		seen[perm.Stack] = struct{}{}
		out = append(out, perm.Stack)
	}

	return out
}

func (o JSONObject) Value() (driver.Value, error) { return jsonValue(o, o == nil) }
func (o *JSONObject) Scan(src interface{}) error  { return jsonScan(src, o) }

func (l StringList) Value() (driver.Value, error) { return jsonValue(l, l == nil) }
func (l *StringList) Scan(src interface{}) error  { return jsonScan(src, l) }

func (p Permissions) Value() (driver.Value, error) { return jsonValue(p, p == nil) }
func (p *Permissions) Scan(src interface{}) error  { return jsonScan(src, p) }

// jsonValue return string, lib/pq would send []byte as bytea which jsonb rejects.
func jsonValue(v interface{}, isNil bool) (driver.Value, error) {
	if isNil {
		return nil, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}

	return string(b), nil
}

func jsonScan(src interface{}, dst interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}

	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	return json.Unmarshal(b, dst)
}

func iconKey(appID string, size int, version int64) string {
	return fmt.Sprintf("%s/%d/%d.png", appID, size, version)
}
