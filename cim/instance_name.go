package cim

import "strings"

// InstanceName is a CIM object path: a class name, an optional host and
// namespace, and an ordered, case-insensitive set of keybindings
// identifying one instance of that class.
type InstanceName struct {
	ClassName string
	Host      string
	Namespace string
	keys      *OrderedMap[Value]
}

// NewInstanceName returns an InstanceName for className with no keys set.
// Namespace is normalized immediately (see [NormalizeNamespace]).
func NewInstanceName(className, namespace string) *InstanceName {
	return &InstanceName{
		ClassName: className,
		Namespace: NormalizeNamespace(namespace),
		keys:      NewOrderedMap[Value](),
	}
}

// SetKey sets keybinding name to val, preserving insertion order.
func (p *InstanceName) SetKey(name string, val Value) *InstanceName {
	if p.keys == nil {
		p.keys = NewOrderedMap[Value]()
	}
	p.keys.Set(name, val)
	return p
}

// Key looks up a keybinding case-insensitively.
func (p *InstanceName) Key(name string) (Value, bool) {
	if p == nil {
		return nil, false
	}
	return p.keys.Get(name)
}

// KeyNames returns keybinding names in insertion order.
func (p *InstanceName) KeyNames() []string {
	if p == nil {
		return nil
	}
	return p.keys.Keys()
}

// NumKeys returns the number of keybindings.
func (p *InstanceName) NumKeys() int {
	if p == nil {
		return 0
	}
	return p.keys.Len()
}

// Clone returns a deep copy of p.
func (p *InstanceName) Clone() *InstanceName {
	if p == nil {
		return nil
	}
	p2 := &InstanceName{ClassName: p.ClassName, Host: p.Host, Namespace: p.Namespace}
	if p.keys != nil {
		p2.keys = NewOrderedMap[Value]()
		p.keys.Range(func(name string, val Value) bool {
			p2.keys.Set(name, val)
			return true
		})
	}
	return p2
}

// Equal compares two object paths: class name and host case-insensitively,
// namespace after normalization, and keybindings by name (case-insensitive)
// and structural value equality, ignoring key order.
func (p *InstanceName) Equal(o *InstanceName) bool {
	if p == nil || o == nil {
		return p == o
	}
	if !Name(p.ClassName).Equal(Name(o.ClassName)) {
		return false
	}
	if !strings.EqualFold(p.Host, o.Host) {
		return false
	}
	if NormalizeNamespace(p.Namespace) != NormalizeNamespace(o.Namespace) {
		return false
	}
	if p.NumKeys() != o.NumKeys() {
		return false
	}
	match := true
	p.keys.Range(func(name string, val Value) bool {
		ov, ok := o.Key(name)
		if !ok || val == nil && ov != nil || val != nil && (ov == nil || !val.Equal(ov)) {
			match = false
			return false
		}
		return true
	})
	return match
}

// String renders a compact "namespace:Class.k1=v1,k2=v2" debug form,
// each value written with its Render text and no quoting; it is not
// the CIM-XML wire form (see package cimxml for that).
func (p *InstanceName) String() string {
	if p == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if p.Namespace != "" {
		sb.WriteString(p.Namespace)
		sb.WriteByte(':')
	}
	sb.WriteString(p.ClassName)
	if p.NumKeys() > 0 {
		sb.WriteByte('.')
		first := true
		p.keys.Range(func(name string, val Value) bool {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			sb.WriteString(name)
			sb.WriteByte('=')
			if val != nil {
				sb.WriteString(val.Render())
			}
			return true
		})
	}
	return sb.String()
}
