package credit

import (
	"encoding/json"
	"fmt"
	"math"
)

type balanceBody struct {
	Credits json.RawMessage `json:"credits"`
	User    *struct {
		Credits json.RawMessage `json:"credits"`
	} `json:"user"`
}

// ExtractBalance reads the balance from a /auth/me or /auth/{id} body. A
// top-level credits field wins over user.credits, and a body carrying neither
// yields 0. Null counts as missing.
func ExtractBalance(body []byte) (int, error) {
	var b balanceBody
	if err := json.Unmarshal(body, &b); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}

	if n, ok, err := parseCredits(b.Credits); err != nil || ok {
		return n, err
	}
	if b.User != nil {
		if n, ok, err := parseCredits(b.User.Credits); err != nil || ok {
			return n, err
		}
	}
	return 0, nil
}

// parseCredits reports ok=false when raw is missing or null.
func parseCredits(raw json.RawMessage) (int, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false, fmt.Errorf("credits is not a number: %s", raw)
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("credits must be a non-negative integer, got %v", f)
	}
	return int(f), true, nil
}
