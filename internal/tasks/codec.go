package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed task state")

// record is the persisted layout. Field names match what the browser
// version of the app wrote to local storage, so existing exports load as-is.
type record struct {
	En        *int64  `json:"en"`
	Text      *string `json:"text"`
	Date      *string `json:"date"`
	Completed *bool   `json:"completed"`
}

// Encode serialises the collection in order. An empty or nil collection
// encodes as "[]".
func Encode(tasks []Task) (string, error) {
	recs := make([]record, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		recs = append(recs, record{
			En:        &t.ID,
			Text:      &t.Text,
			Date:      &t.Date,
			Completed: &t.Completed,
		})
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode is the inverse of Encode. Anything other than an array of complete
// records with unique ids yields ErrMalformed.
func Decode(s string) ([]Task, error) {
	var recs []record
	if err := json.Unmarshal([]byte(s), &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if recs == nil {
		return nil, fmt.Errorf("%w: not an array", ErrMalformed)
	}

	out := make([]Task, 0, len(recs))
	seen := make(map[int64]struct{}, len(recs))
	for i, r := range recs {
		if r.En == nil || r.Text == nil || r.Date == nil || r.Completed == nil {
			return nil, fmt.Errorf("%w: record %d is missing fields", ErrMalformed, i)
		}
		if strings.TrimSpace(*r.Text) == "" || strings.TrimSpace(*r.Date) == "" {
			return nil, fmt.Errorf("%w: record %d has a blank text or date", ErrMalformed, i)
		}
		if _, dup := seen[*r.En]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrMalformed, *r.En)
		}
		seen[*r.En] = struct{}{}
		out = append(out, Task{
			ID:        *r.En,
			Text:      *r.Text,
			Date:      *r.Date,
			Completed: *r.Completed,
		})
	}
	return out, nil
}
