package options

import (
	"log/slog"

	"github.com/go-ctap/biometry/pkg/manifest"
	"github.com/go-ctap/biometry/pkg/platform"
)

type Options struct {
	Logger    *slog.Logger
	Evaluator platform.Evaluator
	Manifest  manifest.Source
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithEvaluator overrides the platform authentication service. Mainly
// useful for tests and for hosts embedding their own prompt backend.
func WithEvaluator(evaluator platform.Evaluator) Option {
	return func(opts *Options) {
		opts.Evaluator = evaluator
	}
}

// WithManifest overrides where the usage-disclosure declaration is read from.
func WithManifest(source manifest.Source) Option {
	return func(opts *Options) {
		opts.Manifest = source
	}
}

func NewOptions(opts ...Option) *Options {
	oo := &Options{
		Logger:    slog.Default(),
		Evaluator: platform.New(),
		Manifest:  &manifest.Bundle{},
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
