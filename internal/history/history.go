package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/model"
)

// History is the append-only list of completed quizzes, oldest first.
type History []model.CompletedQuiz

// Append returns a new History with q added at the end. The receiver is not modified.
func (h History) Append(q model.CompletedQuiz) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, q)
}

// Find returns the quiz with the given id.
func (h History) Find(id int64) (model.CompletedQuiz, bool) {
	for _, q := range h {
		if q.ID == id {
			return q, true
		}
	}
	return model.CompletedQuiz{}, false
}

// LastID returns the largest id in the history, 0 when empty.
func (h History) LastID() int64 {
	var last int64
	for _, q := range h {
		if q.ID > last {
			last = q.ID
		}
	}
	return last
}

// Merge returns h followed by every quiz in later. Quizzes from later whose id
// is not above the last id so far are renumbered to keep ids increasing.
func (h History) Merge(later History) History {
	out := make(History, len(h), len(h)+len(later))
	copy(out, h)
	last := h.LastID()
	for _, q := range later {
		if q.ID <= last {
			q.ID = last + 1
		}
		last = q.ID
		out = append(out, q)
	}
	return out
}

// Newest returns list rows, most recent first.
func (h History) Newest() []model.Summary {
	out := make([]model.Summary, 0, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i].Summarize())
	}
	return out
}

// Decode parses a serialized history. It fails only when the payload is not
// a JSON list; individual records that are malformed or structurally invalid
// are skipped.
func Decode(payload []byte) (History, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode history list: %w", err)
	}

	h := make(History, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var q model.CompletedQuiz
		if err := json.Unmarshal(r, &q); err != nil || !q.Valid() {
			skipped++
			continue
		}
		h = append(h, q)
	}
	return h, skipped, nil
}

// Encode serializes the whole history.
func Encode(h History) ([]byte, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}

// Repository loads and saves histories through a Store.
type Repository struct {
	store Store
	log   zerolog.Logger
}

// NewRepository creates a Repository over store.
func NewRepository(store Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		log:   log.With().Str("component", "history").Logger(),
	}
}

// Load reads the history under key. A missing key or a malformed payload
// yields an empty history. A failed read yields an empty history together with
// an error wrapping ErrUnavailable; that history must not be written back.
func (r *Repository) Load(ctx context.Context, key string) (History, error) {
	payload, err := r.store.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return History{}, nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Failed to read history")
		return History{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	h, skipped, err := Decode(payload)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Discarding malformed history")
		return History{}, nil
	}
	if skipped > 0 {
		r.log.Warn().Int("skipped", skipped).Str("key", key).Msg("Skipped invalid history records")
	}
	return h, nil
}

// Save writes the whole history under key.
func (r *Repository) Save(ctx context.Context, key string, h History) error {
	payload, err := Encode(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return r.store.Write(ctx, key, payload)
}
