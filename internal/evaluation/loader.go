package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenSurveys reads and parses a golden survey set from a JSON file.
func LoadGoldenSurveys(path string) ([]GoldenSurvey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden surveys file: %w", err)
	}

	var cases []GoldenSurvey
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse golden surveys: %w", err)
	}

	return cases, nil
}

// ValidateGoldenSurveys checks that all golden surveys have required fields and valid values.
func ValidateGoldenSurveys(cases []GoldenSurvey) error {
	seen := make(map[string]struct{}, len(cases))

	for i, c := range cases {
		if c.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if len(c.Survey) == 0 {
			return fmt.Errorf("case %q: missing survey answers", c.ID)
		}
		if !c.Difficulty.IsValid() {
			return fmt.Errorf("case %q: invalid difficulty %q (must be easy/medium/hard)", c.ID, c.Difficulty)
		}
	}

	return nil
}
