// Package eligibility decides whether a fetched PNCP record represents a
// closed procurement. The rule is a pure function over three well-known
// fields so the rest of the pipeline never inspects record semantics.
package eligibility
