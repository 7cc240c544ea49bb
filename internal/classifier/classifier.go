// Package classifier maps a free-text timesheet request to a workflow intent.
package classifier

import (
	"context"
	"errors"
	"fmt"
)

// Intent is the label the workflow branches on.
type Intent string

const (
	CheckPending Intent = "check_pending"
	FillPending  Intent = "fill_pending"
)

// Intents lists every label a classifier may return.
var Intents = []Intent{CheckPending, FillPending}

// ErrUnrecognizedLabel is returned when a model answers with a label outside Intents.
var ErrUnrecognizedLabel = errors.New("unrecognized intent label")

// Valid reports whether i is one of Intents.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// Classifier is the intent classification capability.
type Classifier interface {
	Classify(ctx context.Context, query string) (Intent, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, query string) (Intent, error)

func (f Func) Classify(ctx context.Context, query string) (Intent, error) {
	return f(ctx, query)
}

// Static always answers intent. Useful for tests and offline runs.
func Static(intent Intent) Classifier {
	return Func(func(context.Context, string) (Intent, error) {
		if !intent.Valid() {
			return "", fmt.Errorf("%w: %q", ErrUnrecognizedLabel, intent)
		}
		return intent, nil
	})
}
