package filter

import (
	"sort"
	"strings"
)

// Capability is a set of model capabilities using bitmasks. Sets combine
// with |; a model is admitted only when it satisfies every requested bit.
type Capability uint64

const (
	ImageInput Capability = 1 << iota
	StructuredOutput
	Reasoning
	ToolCalling
)

const (
	// None requests no capability filtering.
	None Capability = 0
	// Multimodal is an alias for ImageInput.
	Multimodal = ImageInput
)

// Classifier decides one capability for a descriptor.
type Classifier interface {
	Classify(d *Descriptor) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(d *Descriptor) bool

func (f ClassifierFunc) Classify(d *Descriptor) bool { return f(d) }

// classifiers is the single declaration of every atomic capability.
var classifiers = map[Capability]Classifier{
	ImageInput: ClassifierFunc(func(d *Descriptor) bool {
		return d.HasInputModality("image")
	}),
	StructuredOutput: ClassifierFunc(func(d *Descriptor) bool {
		return d.HasParameter("response_format", "structured_outputs")
	}),
	Reasoning: ClassifierFunc(func(d *Descriptor) bool {
		return d.HasParameter("reasoning", "include_reasoning")
	}),
	ToolCalling: ClassifierFunc(func(d *Descriptor) bool {
		return d.HasParameter("tools", "tool_choice")
	}),
}

var capabilityNames = map[Capability]string{
	ImageInput:       "image_input",
	StructuredOutput: "structured_output",
	Reasoning:        "reasoning",
	ToolCalling:      "tool_calling",
}

// All returns the union of every atomic capability.
func All() Capability {
	var all Capability
	for c := range classifiers {
		all |= c
	}
	return all
}

// Atoms returns the atomic capabilities set in c, lowest bit first.
func (c Capability) Atoms() []Capability {
	var atoms []Capability
	for bit := Capability(1); bit != 0 && bit <= c; bit <<= 1 {
		if c&bit != 0 {
			atoms = append(atoms, bit)
		}
	}
	return atoms
}

// Has checks if the capability set contains every bit of other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Validate rejects bits that have no classifier.
func (c Capability) Validate() error {
	if unknown := c &^ All(); unknown != 0 {
		return invalidRequest("capabilities", "unknown capability bits %#x", uint64(unknown))
	}
	return nil
}

func (c Capability) String() string {
	if c == None {
		return "none"
	}
	names := make([]string, 0, 4)
	for _, bit := range c.Atoms() {
		if name, ok := capabilityNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, "unknown")
		}
	}
	return strings.Join(names, "|")
}

// CapabilityNames lists the accepted atomic names in sorted order.
func CapabilityNames() []string {
	names := make([]string, 0, len(capabilityNames))
	for _, n := range capabilityNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseCapabilities parses a comma or pipe separated list such as
// "image_input,structured_output". "none", "all" and "multimodal" are
// accepted; an empty string is None.
func ParseCapabilities(s string) (Capability, error) {
	var c Capability
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' || r == ' ' })
	for _, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		switch name {
		case "none":
			continue
		case "all":
			c |= All()
			continue
		case "multimodal", "vision", "images":
			c |= Multimodal
			continue
		}
		found := false
		for bit, n := range capabilityNames {
			if n == name {
				c |= bit
				found = true
				break
			}
		}
		if !found {
			return None, invalidRequest("capabilities", "unknown capability %q (want one of %s)",
				f, strings.Join(CapabilityNames(), ", "))
		}
	}
	return c, nil
}

// Supports reports whether d has the single atomic capability flag.
// Non-atomic or unknown flags report false.
func Supports(d *Descriptor, flag Capability) bool {
	cl, ok := classifiers[flag]
	if !ok {
		return false
	}
	return cl.Classify(d)
}

// Admits reports whether d satisfies every capability in flags.
// None admits everything.
func Admits(d *Descriptor, flags Capability) bool {
	for _, bit := range flags.Atoms() {
		if !Supports(d, bit) {
			return false
		}
	}
	return true
}
