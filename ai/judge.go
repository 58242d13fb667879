package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"deal-scout/models"
	"deal-scout/utils"
)

const defaultCallTimeout = 60 * time.Second

// Judge asks providers, in order, whether a deal is legitimate. The first
// provider to return a parseable verdict wins.
type Judge struct {
	providers   []Provider
	logger      *utils.Logger
	callTimeout time.Duration
}

// NewJudge creates a Judge over providers in fallback order.
func NewJudge(logger *utils.Logger, providers ...Provider) (*Judge, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return &Judge{providers: providers, logger: logger, callTimeout: defaultCallTimeout}, nil
}

// Judge returns the verdict of the first provider that answers usefully.
// A provider error or an unparseable reply moves on to the next provider.
func (j *Judge) Judge(ctx context.Context, d *models.Deal, actualDiscount float64) (*models.AIVerdict, error) {
	prompt := BuildPrompt(d, actualDiscount)

	var errs []error
	for _, p := range j.providers {
		v, err := j.ask(ctx, p, prompt)
		if err == nil {
			v.Provider = p.Name()
			return v, nil
		}
		j.logger.Warn("[ai] %s failed for %q: %v", p.Name(), d.Title, err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, fmt.Errorf("ai: all %d providers failed: %w", len(j.providers), errors.Join(errs...))
}

func (j *Judge) ask(ctx context.Context, p Provider, prompt string) (*models.AIVerdict, error) {
	callCtx, cancel := context.WithTimeout(ctx, j.callTimeout)
	defer cancel()

	text, err := p.Generate(callCtx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseVerdict(text)
}

// Close releases providers that hold connections.
func (j *Judge) Close() error {
	var errs []error
	for _, p := range j.providers {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
