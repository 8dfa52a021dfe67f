// Package domain contains pure, dependency-free domain models and types
// for the academic integrity decision engine.
package domain

import (
	"strings"
)

// Submission is the immutable unit of work entering the engine: one academic
// document together with the subject it claims to be about.
// A Submission is created once per validation request and never mutated.
type Submission struct {
	// ID uniquely identifies the assignment this document belongs to.
	ID string `json:"id"`

	// Subject is the subject the author claims the document covers
	// (e.g., "physics", "computer science").
	Subject string `json:"subject"`

	// Text is the already-extracted plain text of the document.
	// Optical extraction happens upstream; the engine never sees raw files.
	Text string `json:"text"`
}

// NewSubmission constructs a validated Submission.
// It returns ErrEmptySubmission when the body text is empty or whitespace
// and ErrEmptySubject when no subject claim is provided; both are hard
// input errors rejected before the pipeline starts.
func NewSubmission(id, subject, text string) (*Submission, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptySubmission
	}
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}
	return &Submission{ID: id, Subject: subject, Text: text}, nil
}

// Reference is a single subject-scoped comparison text supplied by the
// external reference-collection collaborator.
type Reference struct {
	// Title is the human-readable name of the source.
	Title string `json:"title"`

	// URL records where the text was retrieved from. It is evidence only;
	// the engine never fetches it.
	URL string `json:"url"`

	// Text is the reference body used for similarity comparison.
	Text string `json:"text"`
}

// Valid reports whether the reference carries enough data to compare
// against. Entries missing their text are skipped rather than failing the
// request (MalformedReferenceData is always recoverable).
func (r Reference) Valid() bool { return strings.TrimSpace(r.Text) != "" }

// ReferenceCorpus is the ordered, read-only set of references for one
// subject. The corpus is materialized and frozen before the isolation
// boundary is entered; the engine must tolerate an empty corpus by degrading
// corpus-dependent signals to zero confidence rather than failing.
type ReferenceCorpus struct {
	// Subject names the subject this corpus was collected for.
	Subject string `json:"subject"`

	// References holds the comparison texts in collection order.
	References []Reference `json:"references"`
}

// ValidReferences returns the references that carry comparable text,
// preserving corpus order. Malformed entries are dropped silently.
func (c *ReferenceCorpus) ValidReferences() []Reference {
	if c == nil {
		return nil
	}
	valid := make([]Reference, 0, len(c.References))
	for _, ref := range c.References {
		if ref.Valid() {
			valid = append(valid, ref)
		}
	}
	return valid
}

// Empty reports whether the corpus carries no usable reference text.
func (c *ReferenceCorpus) Empty() bool { return len(c.ValidReferences()) == 0 }
