package collector

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldKind selects how a raw answer is checked and converted before it is
// written into the document.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindProse  FieldKind = "prose"
	KindMobile FieldKind = "mobile"
	KindEmail  FieldKind = "email"
	KindAge    FieldKind = "age"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindTime   FieldKind = "time"
)

var (
	mobileRe = regexp.MustCompile(`\b\d{10}\b`)
	emailRe  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	ageRe    = regexp.MustCompile(`\b\d{1,3}\b`)
)

// fillers are acknowledgements that never count as an answer to a chat prompt.
var fillers = map[string]bool{"ok": true, "yes": true, "no": true, "yeah": true}

// Valid reports whether k is a known kind. The zero value means text.
func (k FieldKind) Valid() bool {
	switch k {
	case "", KindText, KindProse, KindMobile, KindEmail, KindAge, KindNumber, KindDate, KindTime:
		return true
	}
	return false
}

// Extract validates a trimmed, non-empty answer and returns the value to store.
// Rejections wrap ErrInvalidAnswer.
func (k FieldKind) Extract(answer string) (any, error) {
	switch k {
	case "", KindText:
		return answer, nil
	case KindNumber:
		n, err := strconv.ParseFloat(strings.ReplaceAll(answer, ",", ""), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, answer)
		}
		if n == float64(int64(n)) {
			return int64(n), nil
		}
		return n, nil
	case KindDate:
		if _, err := time.Parse(time.DateOnly, answer); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidAnswer)
		}
		return answer, nil
	case KindTime:
		t, err := time.Parse("15:04", answer)
		if err != nil {
			return nil, fmt.Errorf("%w: time must be HH:MM", ErrInvalidAnswer)
		}
		return t.Format("15:04"), nil
	}

	if len(answer) < 2 || fillers[strings.ToLower(answer)] {
		return nil, fmt.Errorf("%w: %q does not answer the question", ErrInvalidAnswer, answer)
	}
	switch k {
	case KindMobile:
		if m := mobileRe.FindString(answer); m != "" {
			return m, nil
		}
		return nil, fmt.Errorf("%w: expected a 10 digit mobile number", ErrInvalidAnswer)
	case KindEmail:
		if m := emailRe.FindString(answer); m != "" {
			return m, nil
		}
		return nil, fmt.Errorf("%w: expected an email address", ErrInvalidAnswer)
	case KindAge:
		m := ageRe.FindString(answer)
		if m == "" {
			return nil, fmt.Errorf("%w: expected an age", ErrInvalidAnswer)
		}
		age, _ := strconv.Atoi(m)
		if age < 1 || age > 120 {
			return nil, fmt.Errorf("%w: age %d out of range 1-120", ErrInvalidAnswer, age)
		}
		return int64(age), nil
	default: // prose
		if len(answer) <= 2 {
			return nil, fmt.Errorf("%w: answer too short", ErrInvalidAnswer)
		}
		return answer, nil
	}
}
