// Package bundle builds composite template data around a primary subject.
//
// A Builder holds a table of named sections. Building validates the subject, always
// populates the primary section first, then the requested sections in table order. A
// section may require another one; requirements are populated once and cycles are reported
// with ErrCycle.
package bundle

import (
	"context"

	"github.com/pkg/errors"
)

// ErrCycle is returned when a section requires itself through its requirements.
var ErrCycle = errors.New("section dependency cycle")

type (
	// Bundle is the template data: section payloads plus a "has<section>" flag per section.
	Bundle map[string]interface{}

	// Routine populates a section. param is the value the section was requested with.
	Routine func(ctx context.Context, st *State, param interface{}) error

	Section struct {
		Name string
		Run  Routine
	}

	// Predicate tells whether the subject can be built upon.
	Predicate func(subject interface{}) bool

	Builder struct {
		name     string
		valid    Predicate
		primary  Section
		sections []Section
		index    map[string]Section
	}

	// State is the state of one build.
	State struct {
		Subject interface{}
		Bundle  Bundle
		// Values holds intermediate results shared between routines.
		Values map[string]interface{}

		builder *Builder
		params  map[string]interface{}
		status  map[string]sectionStatus
	}

	sectionStatus int
)

const (
	pending sectionStatus = iota
	running
	done
)

// Has returns the "has<section>" flag.
func (b Bundle) Has(section string) bool {
	v, _ := b[HasKey(section)].(bool)
	return v
}

// HasKey returns the flag key of section.
func HasKey(section string) string {
	return "has" + section
}

// NewBuilder returns a builder named name; its "has<name>" flag tells whether the subject was valid.
func NewBuilder(name string, valid Predicate, primary Section, sections ...Section) *Builder {
	b := &Builder{
		name:     name,
		valid:    valid,
		primary:  primary,
		sections: sections,
		index:    make(map[string]Section, len(sections)+1),
	}
	b.index[primary.Name] = primary
	for _, s := range sections {
		b.index[s.Name] = s
	}
	return b
}

// Name returns the name of the builder.
func (b *Builder) Name() string {
	return b.name
}

// Build populates the sections named in requested around subject. An invalid subject is not
// an error: the bundle then only holds a false "has<name>" flag.
func (b *Builder) Build(ctx context.Context, subject interface{}, requested map[string]interface{}) (Bundle, error) {
	st, err := b.Run(ctx, subject, requested)
	return st.Bundle, err
}

// Run is Build returning the state of the build, with the values its routines shared.
func (b *Builder) Run(ctx context.Context, subject interface{}, requested map[string]interface{}) (*State, error) {
	st := &State{
		Subject: subject,
		Bundle:  Bundle{HasKey(b.name): false},
		Values:  make(map[string]interface{}),
		builder: b,
		params:  make(map[string]interface{}, len(requested)),
		status:  make(map[string]sectionStatus, len(b.index)),
	}
	if !b.valid(subject) {
		return st, nil
	}
	for k, v := range requested {
		st.params[k] = v
	}

	if err := st.Require(ctx, b.primary.Name); err != nil {
		return st, err
	}
	st.Bundle[HasKey(b.name)] = true

	for _, s := range b.sections {
		if _, ok := requested[s.Name]; !ok {
			continue
		}
		if err := st.Require(ctx, s.Name); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Require populates section unless it already is.
func (st *State) Require(ctx context.Context, section string) error {
	switch st.status[section] {
	case done:
		return nil
	case running:
		return errors.Wrapf(ErrCycle, "requiring %q", section)
	}

	s, ok := st.builder.index[section]
	if !ok {
		return errors.Errorf("unknown section %q", section)
	}

	st.status[section] = running
	if err := s.Run(ctx, st, st.params[section]); err != nil {
		return errors.Wrapf(err, "populating %q", section)
	}
	st.status[section] = done
	return nil
}

// Populated tells whether section has been populated.
func (st *State) Populated(section string) bool {
	return st.status[section] == done
}

// Set stores the payload of section along its "has<section>" flag.
func (st *State) Set(section string, payload interface{}, has bool) {
	st.Bundle[section] = payload
	st.Bundle[HasKey(section)] = has
}
