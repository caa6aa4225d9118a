package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation messages per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing fields, sorted.
func (e *Errors) Fields() []string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error joins every message, field by field in sorted order.
func (e *Errors) Error() string {
	var msgs []string
	for _, f := range e.Fields() {
		msgs = append(msgs, e.Bag[f]...)
	}
	return strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"id": "required|identifier", "kind": "required|in:instance,autowire,config"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	done   bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.done {
		v.validate()
		v.done = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Validate runs the rules and returns the bag as an error, or nil.
func (v *Validator) Validate() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

// outcome of one rule on one field.
type outcome int

const (
	next outcome = iota // keep checking the field
	stop                // skip the remaining rules silently
	fail                // message recorded; skip the remaining rules
)

type check struct {
	field, value, param string
	present             bool
	data                map[string]string
}

// rule messages use :attribute for the field name.
type rule func(c check) (outcome, string)

var (
	alphaDash  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	identifier = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_./:*\-]*$`)
)

var rules = map[string]rule{
	"required": func(c check) (outcome, string) {
		if strings.TrimSpace(c.value) == "" {
			return fail, "The :attribute field is required."
		}
		return next, ""
	},
	"required_with": func(c check) (outcome, string) {
		if c.data[c.param] != "" && strings.TrimSpace(c.value) == "" {
			return fail, "The :attribute field is required when " + c.param + " is present."
		}
		return next, ""
	},
	"prohibited": func(c check) (outcome, string) {
		if c.value != "" {
			return fail, "The :attribute field is prohibited."
		}
		return next, ""
	},
	"nullable": func(c check) (outcome, string) {
		if c.value == "" {
			return stop, ""
		}
		return next, ""
	},
	"sometimes": func(c check) (outcome, string) {
		if !c.present {
			return stop, ""
		}
		return next, ""
	},
	"string": func(check) (outcome, string) { return next, "" },
	"numeric": func(c check) (outcome, string) {
		if _, err := strconv.ParseFloat(c.value, 64); err != nil {
			return fail, "The :attribute must be a number."
		}
		return next, ""
	},
	"integer": func(c check) (outcome, string) {
		if _, err := strconv.Atoi(c.value); err != nil {
			return fail, "The :attribute must be an integer."
		}
		return next, ""
	},
	"boolean": func(c check) (outcome, string) {
		switch strings.ToLower(c.value) {
		case "true", "false", "1", "0", "yes", "no":
			return next, ""
		}
		return fail, "The :attribute field must be true or false."
	},
	"min": func(c check) (outcome, string) {
		n, _ := strconv.Atoi(c.param)
		if utf8.RuneCountInString(c.value) < n {
			return fail, "The :attribute must be at least " + c.param + " characters."
		}
		return next, ""
	},
	"max": func(c check) (outcome, string) {
		n, _ := strconv.Atoi(c.param)
		if utf8.RuneCountInString(c.value) > n {
			return fail, "The :attribute may not be greater than " + c.param + " characters."
		}
		return next, ""
	},
	"in": func(c check) (outcome, string) {
		for _, a := range strings.Split(c.param, ",") {
			if strings.TrimSpace(a) == c.value {
				return next, ""
			}
		}
		return fail, "The selected :attribute is invalid."
	},
	"not_in": func(c check) (outcome, string) {
		for _, d := range strings.Split(c.param, ",") {
			if strings.TrimSpace(d) == c.value {
				return fail, "The selected :attribute is invalid."
			}
		}
		return next, ""
	},
	"alpha_dash": func(c check) (outcome, string) {
		if !alphaDash.MatchString(c.value) {
			return fail, "The :attribute may only contain letters, numbers, dashes and underscores."
		}
		return next, ""
	},
	"identifier": func(c check) (outcome, string) {
		if !identifier.MatchString(c.value) {
			return fail, "The :attribute must be a container identifier."
		}
		return next, ""
	},
	"regex": func(c check) (outcome, string) {
		re, err := regexp.Compile(c.param)
		if err != nil || !re.MatchString(c.value) {
			return fail, "The :attribute format is invalid."
		}
		return next, ""
	},
}

func (v *Validator) validate() {
	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value, present := v.data[field]
		for _, spec := range strings.Split(v.rules[field], "|") {
			spec = strings.TrimSpace(spec)
			if spec == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(spec, ":")
			apply, ok := rules[name]
			if !ok {
				v.errors.add(field, fmt.Sprintf("Unknown validation rule %q.", name))
				break
			}
			result, msg := apply(check{field: field, value: value, param: param, present: present, data: v.data})
			if result == fail {
				v.errors.add(field, strings.ReplaceAll(msg, ":attribute", field))
			}
			if result != next {
				break
			}
		}
	}
}
