package reminders

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sandeepkv93/remindd/internal/model"
)

// Decode parses the mirrored array. Entries that fail to parse are skipped and
// logged; a value that is not an array at all is an error.
func Decode(raw []byte, logger *slog.Logger) ([]model.Reminder, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("reminders: decode collection: %w", err)
	}
	out := make([]model.Reminder, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		var r model.Reminder
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.Warn("skipping unreadable reminder", "index", i, "error", err)
			continue
		}
		if err := r.Validate(); err != nil {
			logger.Warn("skipping invalid reminder", "index", i, "id", r.ID, "error", err)
			continue
		}
		if seen[r.ID] {
			logger.Warn("skipping duplicate reminder", "index", i, "id", r.ID)
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	slices.SortStableFunc(out, model.Compare)
	return out, nil
}

func Encode(items []model.Reminder) ([]byte, error) {
	if items == nil {
		items = []model.Reminder{}
	}
	return json.Marshal(items)
}
