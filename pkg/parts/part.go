package parts

import "fmt"

// Type identifies the kind of a dependency part. Parts are stored in a
// fixed type order inside a [List]: arcs first, then labeled arcs, then the
// higher-order types.
type Type int

const (
	// TypeArc is a plain head→modifier attachment.
	TypeArc Type = iota
	// TypeLabeledArc is an attachment carrying a relation label.
	TypeLabeledArc
	// TypeNextSibling couples two consecutive modifiers of the same head.
	TypeNextSibling
	// TypeGrandparent couples an arc with the incoming arc of its head.
	TypeGrandparent
	// TypeGrandSibling couples consecutive siblings with their head's
	// incoming arc.
	TypeGrandSibling

	numTypes
)

// String returns a short lowercase name for the part type.
func (t Type) String() string {
	switch t {
	case TypeArc:
		return "arc"
	case TypeLabeledArc:
		return "labeled-arc"
	case TypeNextSibling:
		return "next-sibling"
	case TypeGrandparent:
		return "grandparent"
	case TypeGrandSibling:
		return "grandsibling"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Part is one candidate structural element of a dependency tree. It is a
// tagged variant: only the fields relevant to its Type are meaningful.
//
// For sibling-bearing parts (TypeNextSibling, TypeGrandSibling) a field
// equal to Head is the automaton seed meaning "no sibling on this side".
// Seeds are valid entries but must never be resolved through the arc index.
type Part struct {
	Type        Type
	Head        int
	Modifier    int
	Label       int // TypeLabeledArc only
	Sibling     int // TypeNextSibling, TypeGrandSibling
	Grandparent int // TypeGrandparent, TypeGrandSibling
}

// Arc creates a plain attachment part for the arc head→modifier.
func Arc(head, modifier int) Part {
	return Part{Type: TypeArc, Head: head, Modifier: modifier}
}

// LabeledArc creates a labeled attachment part.
func LabeledArc(head, modifier, label int) Part {
	return Part{Type: TypeLabeledArc, Head: head, Modifier: modifier, Label: label}
}

// NextSibling creates a consecutive-sibling part. Modifier and sibling lie
// on the same side of the head; sibling == head seeds the side's automaton.
func NextSibling(head, modifier, sibling int) Part {
	return Part{Type: TypeNextSibling, Head: head, Modifier: modifier, Sibling: sibling}
}

// Grandparent creates a grandparent part coupling the arcs
// grandparent→head and head→modifier.
func Grandparent(grandparent, head, modifier int) Part {
	return Part{Type: TypeGrandparent, Grandparent: grandparent, Head: head, Modifier: modifier}
}

// GrandSibling creates a grandsibling part: a consecutive-sibling pair
// observed together with the head's incoming arc.
func GrandSibling(grandparent, head, modifier, sibling int) Part {
	return Part{
		Type:        TypeGrandSibling,
		Grandparent: grandparent,
		Head:        head,
		Modifier:    modifier,
		Sibling:     sibling,
	}
}

// HasSibling reports whether the part type carries a sibling endpoint.
func (p Part) HasSibling() bool {
	return p.Type == TypeNextSibling || p.Type == TypeGrandSibling
}

// HasGrandparent reports whether the part type carries a grandparent endpoint.
func (p Part) HasGrandparent() bool {
	return p.Type == TypeGrandparent || p.Type == TypeGrandSibling
}

// String renders the part for error messages and logs.
func (p Part) String() string {
	switch p.Type {
	case TypeArc:
		return fmt.Sprintf("arc(%d→%d)", p.Head, p.Modifier)
	case TypeLabeledArc:
		return fmt.Sprintf("arc(%d→%d, label=%d)", p.Head, p.Modifier, p.Label)
	case TypeNextSibling:
		return fmt.Sprintf("sibling(h=%d, m=%d, s=%d)", p.Head, p.Modifier, p.Sibling)
	case TypeGrandparent:
		return fmt.Sprintf("grandparent(g=%d, h=%d, m=%d)", p.Grandparent, p.Head, p.Modifier)
	case TypeGrandSibling:
		return fmt.Sprintf("grandsibling(g=%d, h=%d, m=%d, s=%d)", p.Grandparent, p.Head, p.Modifier, p.Sibling)
	}
	return fmt.Sprintf("part(%d)", int(p.Type))
}
