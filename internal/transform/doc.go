// Package transform implements the text stage of tag resolution.
//
// A value passes through three steps, always in this order:
//
//  1. link removal (URLs, "www." hosts and "@mentions")
//  2. replacement rules
//  3. footer rules
//
// Each step is gated by its feature toggle:
//
//	tr := transform.New(snapshot)
//	title := tr.Apply("Nasheed @someone", model.FieldTitle)
package transform
