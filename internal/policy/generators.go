package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ppiankov/provscan/internal/model"
)

// GeneratorClass is the policy classification of a claim generator name
type GeneratorClass int

const (
	GeneratorNeutral      GeneratorClass = 0 // Not listed, no effect on scoring
	GeneratorManipulation GeneratorClass = 1 // Known editing tool
	GeneratorSuspicious   GeneratorClass = 2 // Known generative-AI tool
)

func (c GeneratorClass) String() string {
	switch c {
	case GeneratorSuspicious:
		return "suspicious"
	case GeneratorManipulation:
		return "manipulation"
	default:
		return "neutral"
	}
}

// GeneratorPolicy classifies generator names against configurable name sets
type GeneratorPolicy struct {
	suspicious   map[string]bool
	manipulation map[string]bool
}

// NewGeneratorPolicy creates a policy from configuration.
// A nil config uses the built-in lists.
func NewGeneratorPolicy(config *model.PolicyConfig) *GeneratorPolicy {
	if config == nil {
		config = &model.DefaultConfig().Policy
	}

	p := &GeneratorPolicy{
		suspicious:   make(map[string]bool, len(config.SuspiciousGenerators)),
		manipulation: make(map[string]bool, len(config.ManipulationGenerators)),
	}

	for _, name := range config.SuspiciousGenerators {
		if n := normalizeConfigured(name); n != "" {
			p.suspicious[n] = true
		}
	}

	for _, name := range config.ManipulationGenerators {
		if n := normalizeConfigured(name); n != "" {
			p.manipulation[n] = true
		}
	}

	return p
}

// Classify classifies a generator name. Suspicious takes precedence when a name
// appears in both sets.
func (p *GeneratorPolicy) Classify(name string) GeneratorClass {
	n := normalize(name)
	if p.suspicious[n] {
		return GeneratorSuspicious
	}
	if p.manipulation[n] {
		return GeneratorManipulation
	}
	return GeneratorNeutral
}

// Suspicious returns the number of suspicious names in the policy
func (p *GeneratorPolicy) Suspicious() int {
	return len(p.suspicious)
}

// Manipulation returns the number of manipulation names in the policy
func (p *GeneratorPolicy) Manipulation() int {
	return len(p.manipulation)
}

// Fingerprint identifies the effective name sets. Policies that classify every
// name the same way share a fingerprint.
func (p *GeneratorPolicy) Fingerprint() string {
	h := sha256.New()
	for _, set := range []map[string]bool{p.suspicious, p.manipulation} {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			h.Write([]byte(n))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// normalize lower-cases a generator name read from a manifest. Nothing else
// changes, so " Midjourney " does not match "midjourney".
func normalize(name string) string {
	return strings.ToLower(name)
}

// normalizeConfigured also drops whitespace around configured names
func normalizeConfigured(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
