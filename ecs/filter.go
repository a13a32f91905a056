package ecs

import (
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
)

// Rule is a single predicate of a Filter.
type Rule interface {
	Apply(e *Entity) bool
}

type ruleKind uint8

const (
	ruleIs ruleKind = iota
	ruleIsNot
	ruleHas
	ruleHasAny
	ruleHasNot
	ruleTaggedAs
	rulePartOfGroup
	ruleWhere
)

var ruleNames = [...]string{
	ruleIs:          "Is",
	ruleIsNot:       "IsNot",
	ruleHas:         "Has",
	ruleHasAny:      "HasAny",
	ruleHasNot:      "HasNot",
	ruleTaggedAs:    "TaggedAs",
	rulePartOfGroup: "PartOfGroup",
	ruleWhere:       "Where",
}

func (k ruleKind) String() string {
	return ruleNames[k]
}

func (k ruleKind) usesMask() bool {
	return k == ruleHas || k == ruleHasAny || k == ruleHasNot
}

type rule struct {
	kind  ruleKind
	types []reflect.Type
	mask  Mask
	value string
	pred  func(*Entity) bool
}

func (r *rule) Apply(e *Entity) bool {
	switch r.kind {
	case ruleIs:
		return e.kind == r.types[0]
	case ruleIsNot:
		for _, t := range r.types {
			if e.kind == t {
				return false
			}
		}
		return true
	case ruleHas:
		return e.mask.ContainsAll(r.mask)
	case ruleHasAny:
		return e.mask.ContainsAny(r.mask)
	case ruleHasNot:
		return !e.mask.ContainsAny(r.mask)
	case ruleTaggedAs:
		return e.tag == r.value
	case rulePartOfGroup:
		return e.group == r.value
	case ruleWhere:
		return r.pred(e)
	}
	return false
}

func (r *rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.kind.String())
	sb.WriteByte('(')
	switch r.kind {
	case ruleTaggedAs, rulePartOfGroup:
		sb.WriteString(r.value)
	case ruleWhere:
		sb.WriteString("func")
	default:
		for i, t := range r.types {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(t.String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Filter is a conjunction of rules selecting the entities a system works on.
// Rules are evaluated in insertion order and evaluation stops at the first failing rule,
// so cheap or narrow rules should come first.
//
//	filter := ecs.NewFilter().
//		Has(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]()).
//		HasNot(ecs.TypeOf[Frozen]())
type Filter struct {
	rules      []*rule
	registry   *TypeRegistry
	owner      *EntityView
	unresolved bool
}

// NewFilter returns an empty filter, which accepts every entity.
func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) add(r *rule) *Filter {
	if f.registry != nil {
		panic("filter modified after being bound to a system")
	}
	if r.kind.usesMask() {
		f.unresolved = true
	}
	f.rules = append(f.rules, r)
	return f
}

func normalizeTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, len(types))
	for i, t := range types {
		out[i] = normalizeType(t)
	}
	return out
}

// Is requires the entity's concrete type to be t.
func (f *Filter) Is(t reflect.Type) *Filter {
	return f.add(&rule{kind: ruleIs, types: []reflect.Type{normalizeType(t)}})
}

// IsNot requires the entity's concrete type to be none of types.
func (f *Filter) IsNot(types ...reflect.Type) *Filter {
	return f.add(&rule{kind: ruleIsNot, types: normalizeTypes(types)})
}

// Has requires the entity to own every one of the component types.
func (f *Filter) Has(types ...reflect.Type) *Filter {
	return f.add(&rule{kind: ruleHas, types: normalizeTypes(types)})
}

// HasAny requires the entity to own at least one of the component types.
func (f *Filter) HasAny(types ...reflect.Type) *Filter {
	return f.add(&rule{kind: ruleHasAny, types: normalizeTypes(types)})
}

// HasNot requires the entity to own none of the component types.
func (f *Filter) HasNot(types ...reflect.Type) *Filter {
	return f.add(&rule{kind: ruleHasNot, types: normalizeTypes(types)})
}

// TaggedAs requires the entity's tag to equal tag.
func (f *Filter) TaggedAs(tag string) *Filter {
	return f.add(&rule{kind: ruleTaggedAs, value: tag})
}

// PartOfGroup requires the entity's group to equal group.
func (f *Filter) PartOfGroup(group string) *Filter {
	return f.add(&rule{kind: rulePartOfGroup, value: group})
}

// Where adds a custom predicate. It must be pure: it may only read the entity.
func (f *Filter) Where(pred func(e *Entity) bool) *Filter {
	return f.add(&rule{kind: ruleWhere, pred: pred})
}

// Compile resolves the filter's component types against reg.
// A filter can only be bound to one registry; compiling again with the same registry is a no-op.
func (f *Filter) Compile(reg *TypeRegistry) error {
	if reg == nil {
		return eris.New("cannot compile filter without a registry")
	}
	if f.registry == reg {
		return nil
	}
	if f.registry != nil {
		return ErrFilterBound
	}

	masks := make([]Mask, len(f.rules))
	for i, r := range f.rules {
		if !r.kind.usesMask() {
			continue
		}
		for _, t := range r.types {
			info, ok := reg.GetInfo(t)
			if !ok {
				return eris.Wrapf(ErrNotAComponent, "%s rule: %s", r.kind, t)
			}
			masks[i].or(info.Mask)
		}
	}

	for i, r := range f.rules {
		if r.kind.usesMask() {
			r.mask = masks[i]
		}
	}
	f.registry = reg
	f.unresolved = false
	return nil
}

// Bound reports whether the filter has been compiled against a registry.
func (f *Filter) Bound() bool {
	return f.registry != nil
}

// Apply reports whether e passes every rule. An empty filter accepts everything.
func (f *Filter) Apply(e *Entity) bool {
	if f.unresolved {
		panic("filter with component rules applied before Compile")
	}
	for _, r := range f.rules {
		if !r.Apply(e) {
			return false
		}
	}
	return true
}

// Rules returns the filter's rules in evaluation order.
func (f *Filter) Rules() []Rule {
	rules := make([]Rule, len(f.rules))
	for i, r := range f.rules {
		rules[i] = r
	}
	return rules
}

func (f *Filter) String() string {
	if len(f.rules) == 0 {
		return "All"
	}
	parts := make([]string, len(f.rules))
	for i, r := range f.rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}
