package svgnorm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrMissingRoot is returned when the document root is not a <svg> element.
	ErrMissingRoot = errors.New("svgnorm: missing <svg> root element")
	// ErrInvalidSize is returned when the document size can't be determined.
	ErrInvalidSize = errors.New("svgnorm: invalid document size")
	// ErrInvalidOptions is returned for configuration values outside their domain.
	ErrInvalidOptions = errors.New("svgnorm: invalid options")
)

// ErrorMode is the strategy used to handle the unsupported or invalid
// content found in a document. Invalid content is never fatal : it is
// either silently ignored or reported.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips invalid content without notice.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode skips invalid content and logs a warning.
	WarnErrorMode
)

func (m ErrorMode) String() string {
	switch m {
	case IgnoreErrorMode:
		return "ignore"
	case WarnErrorMode:
		return "warn"
	}
	return fmt.Sprintf("ErrorMode(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler
func (m ErrorMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ErrorMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ignore":
		*m = IgnoreErrorMode
	case "warn":
		*m = WarnErrorMode
	default:
		return fmt.Errorf("unknown error mode %q", text)
	}
	return nil
}

// Options configures the normalization.
type Options struct {
	// KeepNamedGroups retains the groups with an id,
	// which are unwrapped by default.
	KeepNamedGroups bool `toml:"keep_named_groups"`

	// BasePath is the directory used to resolve relative
	// image references. It is not accessed during the normalization.
	BasePath string `toml:"base_path"`

	// DPI is used to convert absolute units (in, cm, mm, pt, pc).
	DPI float64 `toml:"dpi"`

	// FontFamily and FontSize are the default font.
	FontFamily string  `toml:"font_family"`
	FontSize   float64 `toml:"font_size"`

	ErrorMode ErrorMode `toml:"error_mode"`

	// Logger is used in WarnErrorMode. If nil, the package logger is used.
	Logger *slog.Logger `toml:"-"`
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		DPI:        96,
		FontFamily: "Times New Roman",
		FontSize:   12,
	}
}

func isPositive(f float64) bool { return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) }

// Validate checks that the options are in their domain.
func (opts Options) Validate() error {
	if !isPositive(opts.DPI) {
		return fmt.Errorf("%w: dpi must be positive, got %g", ErrInvalidOptions, opts.DPI)
	}
	if !isPositive(opts.FontSize) {
		return fmt.Errorf("%w: font size must be positive, got %g", ErrInvalidOptions, opts.FontSize)
	}
	if opts.FontFamily == "" {
		return fmt.Errorf("%w: empty font family", ErrInvalidOptions)
	}
	if opts.ErrorMode > WarnErrorMode {
		return fmt.Errorf("%w: unknown error mode %d", ErrInvalidOptions, opts.ErrorMode)
	}
	return nil
}

// LoadOptions reads a TOML configuration. Missing keys keep their default
// value, unknown keys are rejected.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&opts)
	if err != nil {
		return opts, fmt.Errorf("%w: %s", ErrInvalidOptions, err)
	}
	return opts, opts.Validate()
}
