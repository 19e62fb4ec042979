package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one named fee/tax entry in a price breakdown.
type Line struct {
	Label  string
	Amount decimal.Decimal
}

// Breakdown is an ordered list of fee/tax lines. The pricing service emits
// them in derivation order (commission before VAT before totals), and the
// admin UI renders them in that order, so decoding preserves wire order
// instead of collapsing into a map.
type Breakdown []Line

// Constants is the fee-schedule constant list, same wire shape as a
// breakdown.
type Constants = Breakdown

func (b *Breakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("breakdown must be a JSON object, got %v", tok)
	}

	var lines Breakdown
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("breakdown key must be a string, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		var amount decimal.Decimal
		switch v := valTok.(type) {
		case json.Number:
			amount, err = decimal.NewFromString(v.String())
		case string:
			amount, err = decimal.NewFromString(v)
		default:
			return fmt.Errorf("breakdown value for %q must be numeric, got %v", label, valTok)
		}
		if err != nil {
			return fmt.Errorf("breakdown value for %q: %w", label, err)
		}

		lines = append(lines, Line{Label: label, Amount: amount})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = lines
	return nil
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, line := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(line.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(line.Amount.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the amount for a labeled line.
func (b Breakdown) Get(label string) (decimal.Decimal, bool) {
	for _, line := range b {
		if line.Label == label {
			return line.Amount, true
		}
	}
	return decimal.Decimal{}, false
}

// Calculation is the pricing service's answer for one amount. The remote
// service is authoritative: nothing here re-derives the fee formula.
type Calculation struct {
	OrganizerAmount decimal.Decimal `json:"organizer_amount"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	Breakdown       Breakdown       `json:"breakdown"`
}
