package domain

// Signal names produced by the extractors. The aggregator keys its policy
// off these names, so they are fixed identifiers rather than free text.
const (
	// SignalStatistical is the lexical/statistical similarity signal
	// (term-frequency cosine against the reference corpus).
	SignalStatistical = "statistical_similarity"

	// SignalNGram is the trigram Jaccard overlap signal, reported
	// separately from the TF-cosine figure.
	SignalNGram = "ngram_similarity"

	// SignalSemantic is the dense-embedding cosine similarity signal.
	SignalSemantic = "semantic_similarity"

	// SignalAuthenticity is the stylistic/structural AI-pattern signal.
	SignalAuthenticity = "ai_confidence"

	// SignalJudged is the locally hosted model's similarity rating.
	SignalJudged = "judged_similarity"

	// SignalRelevance is the subject/topic alignment signal.
	SignalRelevance = "relevance_score"
)

// Unavailability flags recorded on soft-failed signals. Every Verdict must
// state which signals were substituted so downstream consumers can weigh
// confidence.
const (
	// FlagSemanticUnavailable marks the semantic signal as degraded because
	// the embedding backend could not be reached.
	FlagSemanticUnavailable = "semantic_unavailable"

	// FlagJudgedUnavailable marks the judged signal as degraded because the
	// local model was missing, timed out, or produced unparseable output.
	FlagJudgedUnavailable = "judged_unavailable"

	// FlagCorpusEmpty marks corpus-dependent signals as zero-confidence
	// because no usable reference text was supplied.
	FlagCorpusEmpty = "corpus_empty"
)

// SignalScore is one independently computed similarity or authenticity
// score, the common currency between extractors and the aggregator.
// Values live in [0,100]. Each extractor produces exactly one SignalScore
// per invocation.
type SignalScore struct {
	// Name identifies the signal (one of the Signal* constants).
	Name string `json:"name"`

	// Value is the scalar score in [0,100].
	Value float64 `json:"value"`

	// Unavailable marks a soft-failed signal whose Value is a neutral
	// substitute rather than a measurement. Unavailable signals are
	// excluded from failure computation.
	Unavailable bool `json:"unavailable,omitempty"`

	// Flag names the degradation when Unavailable is set (one of the
	// Flag* constants).
	Flag string `json:"flag,omitempty"`

	// Evidence carries the structured supporting detail for the score.
	Evidence Evidence `json:"evidence,omitempty"`
}

// Evidence is the structured trail attached to a SignalScore: which
// reference matched, which phrases fired, and any extractor-specific
// sub-scores.
type Evidence struct {
	// TopReference names the best-matching reference, when the signal is
	// computed against the corpus.
	TopReference string `json:"top_reference,omitempty"`

	// TopReferenceURL is the matching reference's recorded source.
	TopReferenceURL string `json:"top_reference_url,omitempty"`

	// MatchedPhrases lists the explicit self-referential AI idioms that
	// matched verbatim. Any entry here is a hard failure condition.
	MatchedPhrases []string `json:"matched_phrases,omitempty"`

	// StructuralMatches lists the formulaic connectives and list
	// scaffolding that contributed to the structural feature. These are
	// evidence, not failure conditions on their own.
	StructuralMatches []string `json:"structural_matches,omitempty"`

	// RepeatedPhrases lists the n-gram sequences repeated above the
	// frequency threshold.
	RepeatedPhrases []string `json:"repeated_phrases,omitempty"`

	// Emojis lists the emoji runes found in the text, capped by the
	// extractor.
	Emojis []string `json:"emojis,omitempty"`

	// EmojiCount is the total number of emoji code points found, which may
	// exceed len(Emojis) when the list is capped.
	EmojiCount int `json:"emoji_count,omitempty"`

	// Features carries the authenticity sub-scores when the signal is the
	// stylistic one.
	Features *FeatureVector `json:"features,omitempty"`

	// Formulaic is set when the judged model flagged the writing as
	// formulaic or non-human.
	Formulaic bool `json:"formulaic,omitempty"`

	// Comment is a short natural-language note (relevance mismatch
	// description, judged-model reasoning).
	Comment string `json:"comment,omitempty"`

	// MismatchedSubject names the competing subject the text matched
	// better than the claimed one, when relevance detected one.
	MismatchedSubject string `json:"mismatched_subject,omitempty"`
}

// FeatureVector holds the independently computed authenticity sub-scores,
// all in [0,100], stored as measured. ParagraphConsistency,
// RepetitivePatterns, and StructuralPatterns read "higher is more
// machine-like"; SentenceVariety and LexicalDiversity read "lower is more
// machine-like" and are inverted by the reducer when combined into the
// single ai_confidence score.
type FeatureVector struct {
	// ParagraphConsistency is the inverse variance of paragraph lengths;
	// uniform machine-style paragraphing scores high.
	ParagraphConsistency float64 `json:"paragraph_consistency"`

	// SentenceVariety is the normalized spread of sentence lengths;
	// monotonous sentence pacing scores low.
	SentenceVariety float64 `json:"sentence_variety"`

	// LexicalDiversity is the distinct-word ratio over total words.
	LexicalDiversity float64 `json:"lexical_diversity"`

	// RepetitivePatterns is the normalized count of n-gram sequences
	// repeated above the frequency threshold.
	RepetitivePatterns float64 `json:"repetitive_patterns"`

	// StructuralPatterns is the normalized count of formulaic connectives,
	// list scaffolding, and heading-like lines.
	StructuralPatterns float64 `json:"structural_patterns"`
}
