package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rule is implemented by ReplacementRule and FooterRule.
type Rule[T any] interface {
	RuleID() int
	Clone() T
}

// ReplacementRule replaces every occurrence of Original with Replacement in
// the fields it targets.
type ReplacementRule struct {
	ID          int      `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Original    string   `json:"original" validate:"required"`
	Replacement string   `json:"replacement"`
	Fields      FieldSet `json:"tags" validate:"min=1"`
}

// RuleID implements Rule.
func (r ReplacementRule) RuleID() int { return r.ID }

// Clone implements Rule.
func (r ReplacementRule) Clone() ReplacementRule {
	r.Fields = r.Fields.Clone()
	return r
}

// FooterRule appends Text to the fields it targets.
type FooterRule struct {
	ID     int      `json:"id"`
	Name   string   `json:"name" validate:"required"`
	Text   string   `json:"text" validate:"required"`
	Fields FieldSet `json:"tags" validate:"min=1"`
}

// RuleID implements Rule.
func (r FooterRule) RuleID() int { return r.ID }

// Clone implements Rule.
func (r FooterRule) Clone() FooterRule {
	r.Fields = r.Fields.Clone()
	return r
}

// RuleSet is an ordered arena of rules addressed by integer ids.
//
// Ids are strictly monotonic: a deleted id leaves a hole and is never
// handed out again. Rules iterate in ascending id order, which is
// insertion order.
type RuleSet[T Rule[T]] struct {
	NextID int `json:"next_id"`
	Rules  []T `json:"rules"`
}

// Len returns the number of rules.
func (s *RuleSet[T]) Len() int { return len(s.Rules) }

// Get returns the rule with the given id.
func (s *RuleSet[T]) Get(id int) (T, bool) {
	for _, r := range s.Rules {
		if r.RuleID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Delete removes the rule with the given id.
func (s *RuleSet[T]) Delete(id int) error {
	for i, r := range s.Rules {
		if r.RuleID() == id {
			s.Rules = append(s.Rules[:i:i], s.Rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: rule %d", ErrNotFound, id)
}

// Clone returns an independent copy of the set.
func (s RuleSet[T]) Clone() RuleSet[T] {
	out := RuleSet[T]{NextID: s.NextID, Rules: make([]T, len(s.Rules))}
	for i, r := range s.Rules {
		out.Rules[i] = r.Clone()
	}
	return out
}

// repair raises NextID above every stored id. It reports whether NextID
// changed.
func (s *RuleSet[T]) repair() bool {
	next := s.NextID
	if next < 1 {
		next = 1
	}
	for _, r := range s.Rules {
		if r.RuleID() >= next {
			next = r.RuleID() + 1
		}
	}
	changed := next != s.NextID
	s.NextID = next
	return changed
}

// allocate hands out the next id.
func (s *RuleSet[T]) allocate() int {
	s.repair()
	id := s.NextID
	s.NextID++
	return id
}

func (s *RuleSet[T]) replace(id int, r T) {
	for i := range s.Rules {
		if s.Rules[i].RuleID() == id {
			s.Rules[i] = r
			return
		}
	}
}

// checkRule runs the struct validation and maps failures to ErrInvalidInput.
func checkRule(rule any) error {
	err := validate.Struct(rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min":
			msgs = append(msgs, "select at least one field")
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

// AddReplacementRule validates and stores a new replacement rule.
func (s *Snapshot) AddReplacementRule(name, original, replacement string, fields FieldSet) (ReplacementRule, error) {
	rule := ReplacementRule{
		Name:        strings.TrimSpace(name),
		Original:    original,
		Replacement: replacement,
		Fields:      fields.Clone(),
	}
	if strings.TrimSpace(rule.Original) == "" {
		rule.Original = ""
	}
	if err := checkRule(rule); err != nil {
		return ReplacementRule{}, err
	}
	rule.ID = s.Replacements.allocate()
	s.Replacements.Rules = append(s.Replacements.Rules, rule)
	return rule, nil
}

// AddFooterRule validates and stores a new footer rule.
func (s *Snapshot) AddFooterRule(name, text string, fields FieldSet) (FooterRule, error) {
	rule := FooterRule{
		Name:   strings.TrimSpace(name),
		Text:   text,
		Fields: fields.Clone(),
	}
	if strings.TrimSpace(rule.Text) == "" {
		rule.Text = ""
	}
	if err := checkRule(rule); err != nil {
		return FooterRule{}, err
	}
	rule.ID = s.Footers.allocate()
	s.Footers.Rules = append(s.Footers.Rules, rule)
	return rule, nil
}

// DeleteReplacementRule removes a replacement rule by id.
func (s *Snapshot) DeleteReplacementRule(id int) error {
	return s.Replacements.Delete(id)
}

// DeleteFooterRule removes a footer rule by id.
func (s *Snapshot) DeleteFooterRule(id int) error {
	return s.Footers.Delete(id)
}

// RulePart names an editable text part of a rule.
type RulePart string

const (
	PartName        RulePart = "name"
	PartOriginal    RulePart = "original"
	PartReplacement RulePart = "replacement"
	PartText        RulePart = "text"
)

// UpdateReplacementRule changes one text part of an existing replacement rule.
func (s *Snapshot) UpdateReplacementRule(id int, part RulePart, value string) (ReplacementRule, error) {
	rule, ok := s.Replacements.Get(id)
	if !ok {
		return ReplacementRule{}, fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}
	rule = rule.Clone()
	switch part {
	case PartName:
		rule.Name = strings.TrimSpace(value)
	case PartOriginal:
		rule.Original = value
		if strings.TrimSpace(value) == "" {
			rule.Original = ""
		}
	case PartReplacement:
		rule.Replacement = value
	default:
		return ReplacementRule{}, fmt.Errorf("%w: replacement rules have no %q", ErrInvalidInput, part)
	}
	if err := checkRule(rule); err != nil {
		return ReplacementRule{}, err
	}
	s.Replacements.replace(id, rule)
	return rule, nil
}

// UpdateFooterRule changes one text part of an existing footer rule.
func (s *Snapshot) UpdateFooterRule(id int, part RulePart, value string) (FooterRule, error) {
	rule, ok := s.Footers.Get(id)
	if !ok {
		return FooterRule{}, fmt.Errorf("%w: footer %d", ErrNotFound, id)
	}
	rule = rule.Clone()
	switch part {
	case PartName:
		rule.Name = strings.TrimSpace(value)
	case PartText:
		rule.Text = value
		if strings.TrimSpace(value) == "" {
			rule.Text = ""
		}
	default:
		return FooterRule{}, fmt.Errorf("%w: footers have no %q", ErrInvalidInput, part)
	}
	if err := checkRule(rule); err != nil {
		return FooterRule{}, err
	}
	s.Footers.replace(id, rule)
	return rule, nil
}
