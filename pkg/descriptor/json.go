// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

type argumentObject struct {
	Rules []Rule `json:"rules,omitempty"`
	Value any    `json:"value"`
}

// UnmarshalJSON accepts a bare string or an object whose value is a string or a list.
func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Values = []string{s}
		a.Rules = nil
		return nil
	}

	var obj argumentObject
	if err := sonic.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("argument must be a string or an object: %w", err)
	}

	a.Rules = obj.Rules
	a.Values = nil
	switch v := obj.Value.(type) {
	case string:
		a.Values = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("argument value list holds %T, want string", item)
			}
			a.Values = append(a.Values, s)
		}
	case nil:
	default:
		return fmt.Errorf("argument value is %T, want string or list", v)
	}
	return nil
}

// MarshalJSON writes unconditional single tokens back as bare strings.
func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return sonic.Marshal(a.Values[0])
	}
	obj := argumentObject{Rules: a.Rules}
	if len(a.Values) == 1 {
		obj.Value = a.Values[0]
	} else {
		obj.Value = a.Values
	}
	return sonic.Marshal(obj)
}
