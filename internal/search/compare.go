package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sdkdocs/internal/symbols"
)

// compareExamples is the number of usage examples kept per SDK.
const compareExamples = 3

// Comparison is how one SDK implements a concept.
type Comparison struct {
	SDK       string
	Name      string
	Variants  []string
	Classes   []Match
	Functions []Match
	Examples  []Example
	// Missing is set when the SDK has not been fetched.
	Missing bool
}

// Empty reports whether nothing was found.
func (c Comparison) Empty() bool {
	return len(c.Classes) == 0 && len(c.Functions) == 0 && len(c.Examples) == 0
}

// Compare looks up concept in each of sdkIDs (every configured SDK when
// sdkIDs is empty). An SDK's concepts map may list the names the concept
// goes by there; otherwise the concept itself is looked up.
func (e *Engine) Compare(ctx context.Context, concept string, sdkIDs []string) ([]Comparison, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, fmt.Errorf("%w: empty concept", ErrSymbolNotFound)
	}
	if len(sdkIDs) == 0 {
		sdkIDs = e.registry.IDs()
	}
	for _, id := range sdkIDs {
		if _, err := e.sdk(id); err != nil {
			return nil, err
		}
	}

	out := make([]Comparison, 0, len(sdkIDs))
	for _, id := range sdkIDs {
		c, err := e.compareOne(ctx, id, concept)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) compareOne(ctx context.Context, sdkID, concept string) (Comparison, error) {
	sdk, _ := e.sdk(sdkID)
	c := Comparison{SDK: sdk.ID, Name: sdk.Name, Variants: sdk.Concepts[concept]}
	if len(c.Variants) == 0 {
		c.Variants = []string{concept}
	}

	if _, err := e.indexes.Get(ctx, sdkID); errors.Is(err, ErrStorageMissing) {
		c.Missing = true
		return c, nil
	} else if err != nil {
		return c, err
	}

	for _, v := range c.Variants {
		if m, err := e.GetSymbol(ctx, sdkID, v, symbols.KindClass); err == nil {
			c.Classes = append(c.Classes, m)
		} else if !errors.Is(err, ErrSymbolNotFound) {
			return c, err
		}
		if m, err := e.GetSymbol(ctx, sdkID, v, symbols.KindFunction); err == nil {
			c.Functions = append(c.Functions, m)
		} else if !errors.Is(err, ErrSymbolNotFound) {
			return c, err
		}
	}

	examples, err := e.FindExamples(ctx, sdkID, concept, compareExamples)
	if err != nil {
		return c, err
	}
	c.Examples = examples
	return c, nil
}
