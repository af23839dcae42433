// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"strconv"
)

// CreditUnlimited is the sentinel grant value for unrestricted access.
// Legacy grant rows used boolean true for the same thing; CreditValue
// normalizes both forms to this constant.
const CreditUnlimited = -1

// CreditValue is a per-category entitlement: -1 for unlimited, a positive
// number for remaining credits, zero or negative (other than -1) for none.
// Grant payloads written by older billing code encode it as a bool, newer
// ones as a number, so JSON decoding accepts both.
type CreditValue int

// Sufficient reports whether the value grants at least one view.
func (c CreditValue) Sufficient() bool {
	return c == CreditUnlimited || c > 0
}

// UnmarshalJSON accepts a number, a boolean (true = unlimited, false =
// none), or a numeric string. Unrecognized shapes decode to zero.
func (c *CreditValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = CreditValue(n)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*c = CreditUnlimited
		} else {
			*c = 0
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			*c = CreditValue(n)
			return nil
		}
	}

	*c = 0
	return nil
}

// Permissions is a viewer's precomputed entitlement snapshot: a global
// premium flag plus per-category view credits. A nil *Permissions means
// the snapshot has not been loaded yet and must be treated as no access.
type Permissions struct {
	IsPremium bool                   `json:"is_premium"`
	CanView   map[string]CreditValue `json:"can_view"`
}

// Credit returns the viewer's grant for a category, zero when absent.
func (p *Permissions) Credit(category string) CreditValue {
	if p == nil || p.CanView == nil {
		return 0
	}
	return p.CanView[category]
}
