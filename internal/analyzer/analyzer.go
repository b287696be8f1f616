package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/graphweave/graphweave/internal/config"
)

// Entity is one entity mention extracted from a text span.
// Text is the surface form as written; Normalized is the dedup key form.
type Entity struct {
	Text       string
	Normalized string
	Type       string
	Start      int // byte offset of the mention in the source text
}

// Relation is one subject–label–object candidate extracted from a text span.
// Source and Target are literal surface text; resolution against the graph
// happens downstream.
type Relation struct {
	Source string
	Label  string
	Target string
}

type entityRule struct {
	typ   string
	re    *regexp.Regexp
	group int
}

type relationTemplate struct {
	label string
	re    *regexp.Regexp
	subj  int
	obj   int
}

// Analyzer extracts entities and relation candidates from raw text using an
// ordered, configurable rule set. Extraction is pure: identical input and
// rules always produce identical output in identical order.
type Analyzer struct {
	rules     []entityRule
	templates []relationTemplate
}

// New compiles the configured rule set into an Analyzer. Empty rule or
// template lists fall back to the built-in defaults.
func New(cfg config.AnalyzerConfig) (*Analyzer, error) {
	ruleDefs := cfg.EntityRules
	if len(ruleDefs) == 0 {
		ruleDefs = DefaultEntityRules()
	}
	templateDefs := cfg.RelationTemplates
	if len(templateDefs) == 0 {
		templateDefs = DefaultRelationTemplates()
	}

	a := &Analyzer{}
	for _, r := range ruleDefs {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("entity rule %s: %w", r.Type, err)
		}
		if r.Group < 0 || r.Group > re.NumSubexp() {
			return nil, fmt.Errorf("entity rule %s: group %d out of range", r.Type, r.Group)
		}
		a.rules = append(a.rules, entityRule{typ: r.Type, re: re, group: r.Group})
	}
	for _, t := range templateDefs {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("relation template %s: %w", t.Label, err)
		}
		n := re.NumSubexp()
		if t.SubjectGroup < 1 || t.SubjectGroup > n || t.ObjectGroup < 1 || t.ObjectGroup > n {
			return nil, fmt.Errorf("relation template %s: endpoint groups out of range", t.Label)
		}
		a.templates = append(a.templates, relationTemplate{
			label: t.Label, re: re, subj: t.SubjectGroup, obj: t.ObjectGroup,
		})
	}
	return a, nil
}

// Extract runs entity and relation extraction over one text span.
// Entities come back in first-occurrence order; repeated mentions of the
// same form are preserved (mention counting happens downstream).
func (a *Analyzer) Extract(text string) ([]Entity, []Relation) {
	return a.extractEntities(text), a.extractRelations(text)
}

type span struct{ start, end int }

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// extractEntities evaluates rules in priority order. The first rule to match
// a span claims it; later rules cannot produce overlapping mentions.
func (a *Analyzer) extractEntities(text string) []Entity {
	var claimed []span
	var out []Entity

	for _, r := range a.rules {
		for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*r.group], m[2*r.group+1]
			if start < 0 || end <= start {
				continue
			}
			if overlaps(claimed, start, end) {
				continue
			}
			claimed = append(claimed, span{start, end})
			surface := text[start:end]
			out = append(out, Entity{
				Text:       surface,
				Normalized: Normalize(surface),
				Type:       r.typ,
				Start:      start,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// extractRelations scans each template over the full text. Each match span
// yields exactly one relation candidate.
func (a *Analyzer) extractRelations(text string) []Relation {
	var out []Relation
	for _, t := range a.templates {
		for _, m := range t.re.FindAllStringSubmatchIndex(text, -1) {
			ss, se := m[2*t.subj], m[2*t.subj+1]
			os, oe := m[2*t.obj], m[2*t.obj+1]
			if ss < 0 || os < 0 {
				continue
			}
			src := strings.TrimSpace(text[ss:se])
			dst := strings.TrimSpace(text[os:oe])
			if src == "" || dst == "" {
				continue
			}
			out = append(out, Relation{Source: src, Label: t.label, Target: dst})
		}
	}
	return out
}

// Normalize produces the identity-key form of an entity surface string:
// lowercased with whitespace collapsed.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
