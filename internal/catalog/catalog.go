package catalog

import (
	"fmt"
	"slices"
)

// Catalog is the merged, read-only content set. Lookups return copies in
// declared order.
type Catalog struct {
	classes              []Class
	streams              []Stream
	streamIndex          map[string]int
	fallbackStream       string
	states               []State
	stateIndex           map[string]int
	fallbackCollegeState string
	scholarships         []Scholarship
	pgOptions            []PGOption
	exams                []Exam
	examCategories       []ExamCategory
	faqs                 []FAQ
	contact              Contact
}

func newCatalog() *Catalog {
	return &Catalog{
		streamIndex: make(map[string]int),
		stateIndex:  make(map[string]int),
	}
}

func (c *Catalog) merge(d document) error {
	for _, s := range d.Streams {
		if _, dup := c.streamIndex[s.Name]; dup {
			return fmt.Errorf("duplicate stream %q", s.Name)
		}
		c.streamIndex[s.Name] = len(c.streams)
		c.streams = append(c.streams, s)
	}
	for _, s := range d.States {
		if _, dup := c.stateIndex[s.Name]; dup {
			return fmt.Errorf("duplicate state %q", s.Name)
		}
		c.stateIndex[s.Name] = len(c.states)
		c.states = append(c.states, s)
	}
	if err := setOnce(&c.fallbackStream, d.FallbackStream, "fallback_stream"); err != nil {
		return err
	}
	if err := setOnce(&c.fallbackCollegeState, d.FallbackCollegeState, "fallback_college_state"); err != nil {
		return err
	}
	if d.Contact != nil {
		if c.contact != (Contact{}) {
			return fmt.Errorf("contact defined twice")
		}
		c.contact = *d.Contact
	}

	c.classes = append(c.classes, d.Classes...)
	c.scholarships = append(c.scholarships, d.Scholarships...)
	c.pgOptions = append(c.pgOptions, d.PGOptions...)
	c.exams = append(c.exams, d.Exams...)
	c.examCategories = append(c.examCategories, d.ExamCategories...)
	c.faqs = append(c.faqs, d.FAQs...)
	return nil
}

func setOnce(dst *string, v, name string) error {
	if v == "" {
		return nil
	}
	if *dst != "" && *dst != v {
		return fmt.Errorf("%s set to both %q and %q", name, *dst, v)
	}
	*dst = v
	return nil
}

// check verifies cross-document references once all files are merged.
func (c *Catalog) check() error {
	if c.fallbackStream == "" {
		return fmt.Errorf("catalog: fallback_stream is not set")
	}
	if _, ok := c.streamIndex[c.fallbackStream]; !ok {
		return fmt.Errorf("catalog: fallback stream %q has no courses", c.fallbackStream)
	}
	if c.fallbackCollegeState == "" {
		return fmt.Errorf("catalog: fallback_college_state is not set")
	}
	i, ok := c.stateIndex[c.fallbackCollegeState]
	if !ok || len(c.states[i].Colleges) == 0 {
		return fmt.Errorf("catalog: fallback state %q has no colleges", c.fallbackCollegeState)
	}
	for _, e := range c.exams {
		if _, err := e.Month(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	return nil
}

// Courses returns the courses for stream, or the fallback stream's courses
// when stream is unknown.
func (c *Catalog) Courses(stream string) []Course {
	i, ok := c.streamIndex[stream]
	if !ok {
		i = c.streamIndex[c.fallbackStream]
	}
	return slices.Clone(c.streams[i].Courses)
}

// Colleges returns the colleges of state, or the fallback state's colleges
// when state is unknown or lists none.
func (c *Catalog) Colleges(state string) []College {
	if i, ok := c.stateIndex[state]; ok && len(c.states[i].Colleges) > 0 {
		return slices.Clone(c.states[i].Colleges)
	}
	return slices.Clone(c.states[c.stateIndex[c.fallbackCollegeState]].Colleges)
}

// Districts returns the districts of state. Unknown or empty state yields
// an empty list.
func (c *Catalog) Districts(state string) []string {
	i, ok := c.stateIndex[state]
	if !ok {
		return []string{}
	}
	return slices.Clone(c.states[i].Districts)
}

// HasDistrict reports whether district belongs to state.
func (c *Catalog) HasDistrict(state, district string) bool {
	return slices.Contains(c.Districts(state), district)
}

// StateNames returns the selectable states in declared order.
func (c *Catalog) StateNames() []string {
	names := make([]string, len(c.states))
	for i, s := range c.states {
		names[i] = s.Name
	}
	return names
}

// StreamNames returns the selectable streams in declared order.
func (c *Catalog) StreamNames() []string {
	names := make([]string, len(c.streams))
	for i, s := range c.streams {
		names[i] = s.Name
	}
	return names
}

func (c *Catalog) Classes() []Class               { return slices.Clone(c.classes) }
func (c *Catalog) Scholarships() []Scholarship    { return slices.Clone(c.scholarships) }
func (c *Catalog) PGOptions() []PGOption          { return slices.Clone(c.pgOptions) }
func (c *Catalog) Exams() []Exam                  { return slices.Clone(c.exams) }
func (c *Catalog) ExamCategories() []ExamCategory { return slices.Clone(c.examCategories) }
func (c *Catalog) FAQs() []FAQ                    { return slices.Clone(c.faqs) }
func (c *Catalog) Contact() Contact               { return c.contact }

// FallbackStream is the stream used for unknown stream lookups.
func (c *Catalog) FallbackStream() string { return c.fallbackStream }

// FallbackCollegeState is the state used for unknown college lookups.
func (c *Catalog) FallbackCollegeState() string { return c.fallbackCollegeState }
