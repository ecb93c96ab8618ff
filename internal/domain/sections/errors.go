package sections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/motorgen/internal/domain/model"
)

// Sentinel errors for section building.
var (
	ErrDuplicateKey = errors.New("duplicate section key")
	ErrNoColumns    = errors.New("no feature columns configured")
)

const maxExamples = 5

// KeyError lists repeated (motor_identity, section_id) keys.
type KeyError struct {
	Keys  []model.SectionKey // at most five examples
	Total int
}

func (e *KeyError) Error() string {
	ex := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		ex[i] = k.Identity + "/" + k.SectionID
	}
	return fmt.Sprintf("%s: %d key(s), e.g. %s", ErrDuplicateKey, e.Total, strings.Join(ex, ", "))
}

func (e *KeyError) Unwrap() error { return ErrDuplicateKey }
