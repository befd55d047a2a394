package validation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

// Rule is a constraint the engine evaluates against a field. Rules run in
// descending priority; the first priority level with a failure stops the
// pass for that field.
type Rule interface {
	Name() string
	Priority() int
	Applies(f *Field) bool
	Validate(ctx context.Context, f *Field) (bool, error)
	Message(f *Field) string
}

// Priorities of the built-in rules.
const (
	PriorityRequired = 512
	PriorityType     = 256
	PriorityPattern  = 64
	PriorityRange    = 30
)

type attrRule struct {
	name     string
	priority int
	applies  func(f *Field) bool
	check    func(f *Field) bool
	message  func(f *Field) string
}

func (r attrRule) Name() string          { return r.name }
func (r attrRule) Priority() int         { return r.priority }
func (r attrRule) Applies(f *Field) bool { return r.applies(f) }

func (r attrRule) Validate(ctx context.Context, f *Field) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.check(f), nil
}

func (r attrRule) Message(f *Field) string {
	if custom, ok := f.Attr(r.name + "-message"); ok && strings.TrimSpace(custom) != "" {
		return custom
	}
	return r.message(f)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compilePattern(raw string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[raw]; ok {
		return re, nil
	}
	re, err := regexp.Compile(`^(?:` + raw + `)$`)
	if err != nil {
		return nil, err
	}
	patternCache[raw] = re
	return re, nil
}

func constraintAttr(f *Field, key string) (string, bool) {
	if value, ok := dom.Attr(f.node, key); ok {
		return value, true
	}
	return f.Attr(key)
}

func intAttr(f *Field, key string) (int, bool) {
	raw, ok := constraintAttr(f, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatAttr(f *Field, key string) (float64, bool) {
	raw, ok := constraintAttr(f, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isNumberField(f *Field) bool {
	if dom.InputType(f.node) == "number" || dom.InputType(f.node) == "range" {
		return true
	}
	kind, _ := f.Attr("type")
	return kind == "number"
}

// BuiltinRules returns the attribute-driven constraints every engine starts
// with: required, email, number, pattern, minlength, maxlength, min and max.
func BuiltinRules() []Rule {
	return []Rule{
		attrRule{
			name:     "required",
			priority: PriorityRequired,
			applies: func(f *Field) bool {
				_, ok := constraintAttr(f, "required")
				return ok
			},
			check:   func(f *Field) bool { return !f.Empty() },
			message: func(*Field) string { return "This value is required." },
		},
		attrRule{
			name:     "email",
			priority: PriorityType,
			applies: func(f *Field) bool {
				kind, _ := f.Attr("type")
				return dom.InputType(f.node) == "email" || kind == "email"
			},
			check:   func(f *Field) bool { return emailPattern.MatchString(strings.TrimSpace(f.Value())) },
			message: func(*Field) string { return "This value should be a valid email." },
		},
		attrRule{
			name:     "number",
			priority: PriorityType,
			applies:  isNumberField,
			check: func(f *Field) bool {
				_, err := strconv.ParseFloat(strings.TrimSpace(f.Value()), 64)
				return err == nil
			},
			message: func(*Field) string { return "This value should be a valid number." },
		},
		attrRule{
			name:     "pattern",
			priority: PriorityPattern,
			applies: func(f *Field) bool {
				raw, ok := constraintAttr(f, "pattern")
				return ok && raw != ""
			},
			check: func(f *Field) bool {
				raw, _ := constraintAttr(f, "pattern")
				re, err := compilePattern(raw)
				if err != nil {
					return true
				}
				return re.MatchString(f.Value())
			},
			message: func(*Field) string { return "This value seems to be invalid." },
		},
		attrRule{
			name:     "minlength",
			priority: PriorityRange,
			applies: func(f *Field) bool {
				_, ok := intAttr(f, "minlength")
				return ok
			},
			check: func(f *Field) bool {
				limit, _ := intAttr(f, "minlength")
				return utf8.RuneCountInString(f.Value()) >= limit
			},
			message: func(f *Field) string {
				limit, _ := intAttr(f, "minlength")
				return fmt.Sprintf("This value is too short. It should have %d characters or more.", limit)
			},
		},
		attrRule{
			name:     "maxlength",
			priority: PriorityRange,
			applies: func(f *Field) bool {
				_, ok := intAttr(f, "maxlength")
				return ok
			},
			check: func(f *Field) bool {
				limit, _ := intAttr(f, "maxlength")
				return utf8.RuneCountInString(f.Value()) <= limit
			},
			message: func(f *Field) string {
				limit, _ := intAttr(f, "maxlength")
				return fmt.Sprintf("This value is too long. It should have %d characters or fewer.", limit)
			},
		},
		attrRule{
			name:     "min",
			priority: PriorityRange,
			applies: func(f *Field) bool {
				_, ok := floatAttr(f, "min")
				return ok && isNumberField(f)
			},
			check: func(f *Field) bool {
				limit, _ := floatAttr(f, "min")
				value, err := strconv.ParseFloat(strings.TrimSpace(f.Value()), 64)
				return err == nil && value >= limit
			},
			message: func(f *Field) string {
				raw, _ := constraintAttr(f, "min")
				return fmt.Sprintf("This value should be greater than or equal to %s.", raw)
			},
		},
		attrRule{
			name:     "max",
			priority: PriorityRange,
			applies: func(f *Field) bool {
				_, ok := floatAttr(f, "max")
				return ok && isNumberField(f)
			},
			check: func(f *Field) bool {
				limit, _ := floatAttr(f, "max")
				value, err := strconv.ParseFloat(strings.TrimSpace(f.Value()), 64)
				return err == nil && value <= limit
			},
			message: func(f *Field) string {
				raw, _ := constraintAttr(f, "max")
				return fmt.Sprintf("This value should be lower than or equal to %s.", raw)
			},
		},
	}
}
