// Package yard implements the depot's stack allocation and lifecycle
// engine: the position codec, placement availability rules, compatible
// stack filtering, buffer (quarantine) allocation and the stack
// lifecycle state machine. All services talk to the shared Registry.
package yard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Bounds for physical stack positions
const (
	MinStackNumber = 1
	MaxStackNumber = 99
	MaxRows        = 6
	MaxTiers       = 4
)

// Position codec error codes, exchanged as data so UI layers can
// render inline validation messages.
const (
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeInvalidStackNumber = "INVALID_STACK_NUMBER"
	ErrCodeInvalidRowNumber   = "INVALID_ROW_NUMBER"
	ErrCodeInvalidHeight      = "INVALID_HEIGHT_NUMBER"
)

// PositionError is a structured codec validation failure
type PositionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Position is the decoded form of a position identifier
type Position struct {
	StackNumber int `json:"stack_number"`
	Row         int `json:"row"`
	Tier        int `json:"tier"`
}

var (
	positionPattern       = regexp.MustCompile(`^S(\d{2})R(\d+)H(\d+)$`)
	bufferPositionPattern = regexp.MustCompile(`^S(\d{4})-R(\d+)-H(\d+)$`)
)

// BufferPositionPrefix marks the presentation-layer buffer label form,
// e.g. BUFFER-S9001-R01-H01.
const BufferPositionPrefix = "BUFFER-"

// FormatPosition encodes a position as S{stackNumber:02}R{row}H{tier},
// e.g. FormatPosition(1, 1, 1) == "S01R1H1".
func FormatPosition(stackNumber, row, tier int) string {
	return fmt.Sprintf("S%02dR%dH%d", stackNumber, row, tier)
}

// ParsePosition decodes and validates a canonical position identifier.
// The error is always a *PositionError carrying one of the codec codes.
func ParsePosition(text string) (Position, error) {
	m := positionPattern.FindStringSubmatch(text)
	if m == nil {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidFormat,
			Message: fmt.Sprintf("position %q does not match S##R#H#", text),
		}
	}

	stackNumber, _ := strconv.Atoi(m[1])
	row, _ := strconv.Atoi(m[2])
	tier, _ := strconv.Atoi(m[3])

	if stackNumber < MinStackNumber || stackNumber > MaxStackNumber {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidStackNumber,
			Message: fmt.Sprintf("stack number %d out of range %d-%d", stackNumber, MinStackNumber, MaxStackNumber),
		}
	}
	if row < 1 || row > MaxRows {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidRowNumber,
			Message: fmt.Sprintf("row %d out of range 1-%d", row, MaxRows),
		}
	}
	if tier < 1 || tier > MaxTiers {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidHeight,
			Message: fmt.Sprintf("tier %d out of range 1-%d", tier, MaxTiers),
		}
	}

	return Position{StackNumber: stackNumber, Row: row, Tier: tier}, nil
}

// FormatBufferPosition encodes a buffer assignment label. Buffer stacks
// are numbered outside the physical 1-99 range, hence the wider field.
func FormatBufferPosition(stackNumber, row, tier int) string {
	return fmt.Sprintf("%sS%04d-R%02d-H%02d", BufferPositionPrefix, stackNumber, row, tier)
}

// ParseBufferPosition decodes a buffer assignment label by stripping
// the prefix and zero padding before applying the usual row/tier bounds.
func ParseBufferPosition(text string) (Position, error) {
	rest, ok := strings.CutPrefix(text, BufferPositionPrefix)
	if !ok {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidFormat,
			Message: fmt.Sprintf("buffer position %q lacks %s prefix", text, BufferPositionPrefix),
		}
	}
	m := bufferPositionPattern.FindStringSubmatch(rest)
	if m == nil {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidFormat,
			Message: fmt.Sprintf("buffer position %q does not match S####-R##-H##", text),
		}
	}

	stackNumber, _ := strconv.Atoi(m[1])
	row, _ := strconv.Atoi(m[2])
	tier, _ := strconv.Atoi(m[3])

	if stackNumber < 1 {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidStackNumber,
			Message: fmt.Sprintf("buffer stack number %d out of range", stackNumber),
		}
	}
	if row < 1 || row > MaxRows {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidRowNumber,
			Message: fmt.Sprintf("row %d out of range 1-%d", row, MaxRows),
		}
	}
	if tier < 1 || tier > MaxTiers {
		return Position{}, &PositionError{
			Code:    ErrCodeInvalidHeight,
			Message: fmt.Sprintf("tier %d out of range 1-%d", tier, MaxTiers),
		}
	}

	return Position{StackNumber: stackNumber, Row: row, Tier: tier}, nil
}
