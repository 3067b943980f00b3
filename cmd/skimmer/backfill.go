package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/riskmod/riskmod/casestore"
	"github.com/riskmod/riskmod/engine"
)

// backfillFromFile seeds the case store from a JSON array of labeled cases,
// typically exported from historical moderation logs. Missing ids, source
// types, and timestamps are filled in by the engine.
func backfillFromFile(ctx context.Context, eng *engine.Engine, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading backfill file: %w", err)
	}
	var cases []casestore.ContentCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return 0, fmt.Errorf("parsing backfill file: %w", err)
	}
	for i, c := range cases {
		if c.Sentence == "" {
			return i, fmt.Errorf("backfill case %d has no sentence", i)
		}
		if err := eng.BackfillCase(ctx, c); err != nil {
			return i, fmt.Errorf("backfill case %d: %w", i, err)
		}
	}
	return len(cases), nil
}
