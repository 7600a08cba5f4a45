package negotiation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

var ErrNoJSONObject = errors.New("no balanced JSON object in response")

// ExtractJSONObject returns the first balanced {...} region of text. Braces
// inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
		// Unbalanced from this brace; try the next one.
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// ParseStrategy extracts, decodes and validates a generated strategy.
func ParseStrategy(text string) (vehicle.NegotiationStrategy, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return vehicle.NegotiationStrategy{}, err
	}
	var s vehicle.NegotiationStrategy
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return vehicle.NegotiationStrategy{}, fmt.Errorf("decode strategy: %w", err)
	}
	if err := validateStrategy(s); err != nil {
		return vehicle.NegotiationStrategy{}, err
	}
	for _, list := range []*[]string{&s.KeyPoints, &s.Advantages, &s.Concerns, &s.AdditionalTips} {
		if *list == nil {
			*list = []string{}
		}
	}
	s.Source = vehicle.StrategyGenerated
	return s, nil
}

func validateStrategy(s vehicle.NegotiationStrategy) error {
	var errs []error
	if strings.TrimSpace(s.Summary) == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	if s.TargetPrice <= 0 {
		errs = append(errs, fmt.Errorf("targetPrice must be positive, got %v", s.TargetPrice))
	}
	if s.StartingOffer <= 0 {
		errs = append(errs, fmt.Errorf("startingOffer must be positive, got %v", s.StartingOffer))
	}
	if strings.TrimSpace(s.Scripts.Opening) == "" || strings.TrimSpace(s.Scripts.CounterOffer) == "" || strings.TrimSpace(s.Scripts.Closing) == "" {
		errs = append(errs, errors.New("scripts must include opening, counterOffer and closing"))
	}
	return errors.Join(errs...)
}
