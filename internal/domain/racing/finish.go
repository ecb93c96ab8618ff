package racing

import (
	"strings"

	"golang.org/x/text/width"
)

// FinishClass groups finish tokens.
type FinishClass string

// Finish classes.
const (
	ClassFinish  FinishClass = "finish"
	ClassDNS     FinishClass = "dns"
	ClassDSQ     FinishClass = "dsq"
	ClassDNF     FinishClass = "dnf"
	ClassFalse   FinishClass = "fs"
	ClassLate    FinishClass = "ls"
	ClassVoid    FinishClass = "void"
	ClassUnknown FinishClass = "unknown"
)

var eventClasses = map[string]FinishClass{ //nolint:gochecknoglobals // lookup table
	"欠": ClassDNS,
	"妨": ClassDSQ,
	"エ": ClassDSQ,
	"転": ClassDSQ,
	"落": ClassDSQ,
	"沈": ClassDSQ,
	"失": ClassDSQ,
	"不": ClassDNF,
	"F": ClassFalse,
	"L": ClassLate,
	"＿": ClassVoid,
	"_": ClassVoid,
}

// Finish is a classified finish token.
type Finish struct {
	Code     string
	Position int // 1..6 for ClassFinish, 0 otherwise
	Class    FinishClass
}

// IsStart reports whether the boat took part in the race. Absences, void
// races and unknown tokens do not count.
func (f Finish) IsStart() bool {
	switch f.Class {
	case ClassFinish, ClassDSQ, ClassDNF, ClassFalse, ClassLate:
		return true
	default:
		return false
	}
}

// IsFinish reports whether the token is a finishing position.
func (f Finish) IsFinish() bool { return f.Class == ClassFinish }

// ParseFinish classifies a raw finish token by exact match after width
// folding and whitespace removal. Nothing is guessed from partial matches.
func ParseFinish(raw string) Finish {
	code := strings.Join(strings.Fields(width.Fold.String(raw)), "")
	code = strings.TrimSuffix(code, ".0")
	if len(code) == 1 && code[0] >= '1' && code[0] <= '6' {
		return Finish{Code: code, Position: int(code[0] - '0'), Class: ClassFinish}
	}
	if cls, ok := eventClasses[code]; ok {
		return Finish{Code: code, Class: cls}
	}
	return Finish{Code: code, Class: ClassUnknown}
}
