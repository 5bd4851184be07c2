package flashx

import (
	"errors"
	"fmt"

	"github.com/limkeunhak/FlashX/aio"
	"github.com/limkeunhak/FlashX/internal/pattern"
	"github.com/limkeunhak/FlashX/internal/resource"
	"github.com/limkeunhak/FlashX/workload"
)

var (
	// ErrInvalidConfig is returned when a Config cannot be run.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrCorrupt is matched by errors caused by data that differs from the
	// expected pattern.
	ErrCorrupt = errors.New("data corrupt")

	// ErrMemoryLimitExceeded is returned when the buffer pools of all
	// workers do not fit in Config.MemoryLimitBytes.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ErrInvalidConfigField describes one invalid configuration field.
//
// errors.Is(err, ErrInvalidConfig) holds for it.
type ErrInvalidConfigField struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfigField) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ErrInvalidConfigField) Unwrap() error { return ErrInvalidConfig }

func invalidField(field, format string, args ...any) error {
	return &ErrInvalidConfigField{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a read whose content differs from the pattern.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type IntegrityError struct {
	Worker   int
	Offset   int64
	Expected byte
	Actual   byte
	cause    error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data corrupt: worker %d read 0x%02x at offset %d, expected 0x%02x",
		e.Worker, e.Actual, e.Offset, e.Expected)
}

func (e *IntegrityError) Unwrap() error { return e.cause }

// Is reports whether target is ErrCorrupt.
func (e *IntegrityError) Is(target error) bool { return target == ErrCorrupt }

func translateError(worker int, err error) error {
	if err == nil {
		return nil
	}

	var m *pattern.Mismatch
	if errors.As(err, &m) {
		return &IntegrityError{Worker: worker, Offset: m.Offset, Expected: m.Expected, Actual: m.Actual, cause: err}
	}
	if errors.Is(err, aio.ErrInvalidConfig) || errors.Is(err, workload.ErrInvalidConfig) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return err
}
