// Package template implements slot templates for dialogue variables and
// values.
//
// A template is raw text with zero or more {slot} placeholders, e.g.
// "u_m({speaker})". Anchoring fills slots from a fixed assignment to obtain
// concrete variable names; condition evaluation runs templates the other
// way, matching concrete text and capturing slot bindings.
package template

import (
	"regexp"
	"strings"
	"sync"

	"github.com/lyssym/opendial/internal/core"
)

// slotPattern matches {slot} placeholders. Slot names start with a letter
// or underscore and may contain dots for qualified variables.
var slotPattern = regexp.MustCompile(`\{([a-zA-Z_][A-Za-z0-9_.]*)\}`)

// Template is parsed template text. The zero value is the empty template;
// construct through Parse. Templates are immutable and safe for concurrent
// use.
type Template struct {
	raw     string
	slots   []string
	matcher *regexp.Regexp
	groups  []string // matcher group index -> slot name
}

// parsed caches compiled templates by raw text. Rules and scenarios reuse
// the same patterns heavily, so compilation happens once per distinct text.
var parsed = struct {
	sync.RWMutex
	byRaw map[string]Template
}{byRaw: make(map[string]Template)}

// Parse builds a template from raw text. Text without placeholders is a
// valid (fully specified) template; malformed braces are treated as
// literal text, never an error.
func Parse(raw string) Template {
	parsed.RLock()
	t, ok := parsed.byRaw[raw]
	parsed.RUnlock()
	if ok {
		return t
	}

	parsed.Lock()
	defer parsed.Unlock()
	// Another goroutine may have compiled it between the locks.
	if t, ok := parsed.byRaw[raw]; ok {
		return t
	}

	t = compile(raw)
	parsed.byRaw[raw] = t
	return t
}

func compile(raw string) Template {
	t := Template{raw: raw}

	locs := slotPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return t
	}

	var pattern strings.Builder
	pattern.WriteString("^")
	seen := make(map[string]bool)
	last := 0
	for _, loc := range locs {
		name := raw[loc[2]:loc[3]]
		if !seen[name] {
			seen[name] = true
			t.slots = append(t.slots, name)
		}
		pattern.WriteString(regexp.QuoteMeta(raw[last:loc[0]]))
		pattern.WriteString("(.+?)")
		t.groups = append(t.groups, name)
		last = loc[1]
	}
	pattern.WriteString(regexp.QuoteMeta(raw[last:]))
	pattern.WriteString("$")

	// The pattern is built from quoted literals and fixed groups, so it
	// always compiles.
	t.matcher = regexp.MustCompile(pattern.String())
	return t
}

// Raw returns the original template text.
func (t Template) Raw() string { return t.raw }

func (t Template) String() string { return t.raw }

// Slots returns the distinct slot names in order of first appearance.
func (t Template) Slots() []string {
	out := make([]string, len(t.slots))
	copy(out, t.slots)
	return out
}

// Underspecified reports whether the template still has open slots.
func (t Template) Underspecified() bool { return len(t.slots) > 0 }

// FilledBy reports whether a binds every slot to a real value. NoneValue
// bindings do not count as filled.
func (t Template) FilledBy(a core.Assignment) bool {
	for _, slot := range t.slots {
		v, ok := a.Get(slot)
		if !ok {
			return false
		}
		if _, none := v.(core.NoneValue); none {
			return false
		}
	}
	return true
}

// Fill substitutes every slot bound in a with the value's canonical form.
// Unbound slots keep their braces, so partially filled templates stay
// recognizable as underspecified.
func (t Template) Fill(a core.Assignment) string {
	if len(t.slots) == 0 {
		return t.raw
	}
	return slotPattern.ReplaceAllStringFunc(t.raw, func(m string) string {
		slot := m[1 : len(m)-1]
		v, ok := a.Get(slot)
		if !ok {
			return m
		}
		if _, none := v.(core.NoneValue); none {
			return m
		}
		return v.String()
	})
}

// Match tests concrete text against the template. On success it returns
// the captured slot bindings (values go through core.ParseValue). A slot
// appearing more than once must capture the same text each time. Templates
// without slots match by string equality and return the empty assignment.
func (t Template) Match(s string) (core.Assignment, bool) {
	if t.matcher == nil {
		if s == t.raw {
			return core.Assignment{}, true
		}
		return core.Assignment{}, false
	}

	m := t.matcher.FindStringSubmatch(s)
	if m == nil {
		return core.Assignment{}, false
	}

	captured := make(map[string]core.Value, len(t.slots))
	for i, name := range t.groups {
		v := core.ParseValue(m[i+1])
		if prev, ok := captured[name]; ok {
			if !core.Equal(prev, v) {
				return core.Assignment{}, false
			}
			continue
		}
		captured[name] = v
	}
	return core.NewAssignment(captured), true
}
