package corpus

import (
	"fmt"
	"time"
)

// Meta identifies the embedding model a corpus was built with.
type Meta struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// ModelMismatchError reports a corpus built with a different embedding model than the one configured.
type ModelMismatchError struct {
	Corpus     Meta
	Configured string
}

func (e *ModelMismatchError) Error() string {
	return fmt.Sprintf("corpus was built with embedding model %q but %q is configured; rebuild with precompute",
		e.Corpus.Model, e.Configured)
}

// CheckModel returns a *ModelMismatchError when the corpus model is known and differs from modelID.
func (m Meta) CheckModel(modelID string) error {
	if m.Model != "" && modelID != "" && m.Model != modelID {
		return &ModelMismatchError{Corpus: m, Configured: modelID}
	}
	return nil
}
