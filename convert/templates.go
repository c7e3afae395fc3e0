package convert

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultSystemPrompt is the system turn used for every generated
// record. It must match the existing training corpus byte for byte, or
// the validator's policy check will flag every record.
const DefaultSystemPrompt = "You are a CMMC and cybersecurity compliance expert with deep knowledge of " +
	"CMMC 2.0, NIST SP 800-171, NIST SP 800-172, NIST CSF, HIPAA Security Rule, " +
	"and related frameworks. You provide accurate, practical guidance on compliance " +
	"requirements, security controls, implementation procedures, and assessment " +
	"preparation. You cite specific standards, controls, and regulatory references."

// Template sets, keyed by how much context is known about a record.
var (
	// sourceTemplates apply when only the source document is known.
	sourceTemplates = []string{
		"What does {source} say about this topic?",
		"According to {source}, what are the key requirements?",
		"Summarize the guidance provided in {source}.",
		"What are the compliance requirements described in {source}?",
		"Explain the security controls outlined in {source}.",
		"What does {source} recommend for implementation?",
		"What guidance does {source} provide?",
	}

	// topicTemplates apply when both source and topic are known.
	topicTemplates = []string{
		"What does {source} say about {topic}?",
		"What are the requirements for {topic} according to {source}?",
		"Explain {topic} as described in {source}.",
		"How does {source} address {topic}?",
		"What controls does {source} require for {topic}?",
	}

	federalRegisterTemplates = []string{
		"What changes does this Federal Register notice introduce regarding {topic}?",
		"Summarize the key provisions of this {doc_type} about {topic}.",
		"What are the compliance implications of this {doc_type} for {topic}?",
		"What does the Federal Register say about {topic} in this {doc_type}?",
	}

	regulationTemplates = []string{
		"What does {cfr_ref} require regarding {topic}?",
		"Explain the requirements in {cfr_ref} for {topic}.",
		"What are the regulatory requirements for {topic} under {cfr_ref}?",
		"Summarize {cfr_ref} section on {topic}.",
	}

	sp800171Templates = []string{
		"What does NIST SP 800-171 Rev. 3 require for {topic}?",
		"Explain the {topic} control in SP 800-171 Rev. 3 and how to assess it.",
		"What are the CUI security requirements for {topic} under SP 800-171?",
		"Describe the {topic} requirement in SP 800-171 Rev. 3 including assessment objectives.",
		"How should organizations implement {topic} per NIST SP 800-171 Rev. 3?",
	}

	csfTemplates = []string{
		"What does NIST CSF 2.0 say about {topic}?",
		"Explain the {topic} category in the NIST Cybersecurity Framework 2.0.",
		"How does NIST CSF 2.0 address {topic}?",
		"What are the CSF 2.0 recommendations for {topic}?",
	}

	dodDocumentTemplates = []string{
		"What does the {source} say about {topic}?",
		"According to the {source}, what are the key requirements for {topic}?",
		"Summarize the guidance in the {source} regarding {topic}.",
		"What does DoD guidance recommend for {topic}?",
	}
)

// fallbackTemplate is used when no context is available at all.
const fallbackTemplate = "What are the key cybersecurity compliance requirements described here?"

// Framework hints for source-specific template sets.
const (
	FrameworkSP800171    = "sp800_171"
	FrameworkCSF         = "csf"
	FrameworkDoDDocument = "dod_document"
)

// TemplateContext carries the fields a record knows about itself.
// Unset fields narrow the template choice.
type TemplateContext struct {
	Source    string
	Topic     string
	DocType   string
	CFRRef    string
	Framework string
}

// SelectTemplate picks and fills a question template. Selection is a
// pure function of the context: the same fields always yield the same
// question. The original behavior of seeding a shared RNG per record is
// replaced by hashing the context into an index, which is what that
// pattern was reproducing anyway.
func SelectTemplate(tc TemplateContext) string {
	var pool []string
	switch {
	case tc.CFRRef != "" && tc.Topic != "":
		pool = regulationTemplates
	case tc.Framework == FrameworkSP800171 && tc.Topic != "":
		pool = sp800171Templates
	case tc.Framework == FrameworkCSF && tc.Topic != "":
		pool = csfTemplates
	case tc.Framework == FrameworkDoDDocument && tc.Topic != "" && tc.Source != "":
		pool = dodDocumentTemplates
	case tc.DocType != "" && tc.Topic != "":
		pool = federalRegisterTemplates
	case tc.Source != "" && tc.Topic != "":
		pool = topicTemplates
	case tc.Source != "":
		pool = sourceTemplates
	default:
		return fallbackTemplate
	}

	seed := tc.Source + "\x00" + tc.Topic + "\x00" + tc.DocType + "\x00" + tc.CFRRef + "\x00" + tc.Framework
	idx := xxhash.Sum64String(seed) % uint64(len(pool))
	return fill(pool[idx], tc)
}

func fill(template string, tc TemplateContext) string {
	r := strings.NewReplacer(
		"{source}", tc.Source,
		"{topic}", tc.Topic,
		"{doc_type}", tc.DocType,
		"{cfr_ref}", tc.CFRRef,
	)
	return r.Replace(template)
}
