package series

import (
	"encoding/json"
	"fmt"
)

// Scope keys used in backfill payloads and in the persistence layer.
const (
	KeyOpenIssues = "open_issues"
	KeyOpenPulls  = "open_pulls"
	KeyStargazers = "stargazers"
	KeyByLabel    = "by_label"
)

// Batch is one independently-postable backfill object. Exactly one field is
// set: either Delete (a scope key whose prior rows should be cleared) or one
// of the data payloads. Batches for one run must be applied in order, so a
// delete marker always precedes the payloads that replace it.
type Batch struct {
	Delete     string           `json:"delete,omitempty"`
	OpenIssues Daily            `json:"open_issues,omitempty"`
	OpenPulls  Daily            `json:"open_pulls,omitempty"`
	Stargazers Daily            `json:"stargazers,omitempty"`
	ByLabel    map[string]Daily `json:"by_label,omitempty"`
}

// DeleteBatch returns a delete marker for the given scope key.
func DeleteBatch(key string) Batch { return Batch{Delete: key} }

// MarshalJSON encodes a point as a [date, count] tuple, the wire format the
// chart front end consumes.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Date, p.Count})
}

// UnmarshalJSON decodes a [date, count] tuple.
func (p *Point) UnmarshalJSON(data []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("series point must be a [date, count] pair: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &p.Date); err != nil {
		return fmt.Errorf("series point date: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &p.Count); err != nil {
		return fmt.Errorf("series point count: %w", err)
	}
	return nil
}
