// Package convert turns raw scraped records into three-turn chat
// training records.
//
// Conversion sits at the boundary between loosely-typed source output
// and the explicit record schema the rest of the pipeline trusts, so
// each converter validates the fields it reads and a record that fails
// conversion is skipped, never fatal to the batch.
package convert

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/curago/curago/model"
)

var headingRe = regexp.MustCompile(`^[\d.]+\s+(.+?)(?:\n|$)`)

// ExtractTopic pulls a topic out of text using heading patterns like
// "3.2.1 Service Discovery Mechanism Threats", falling back to the
// first line when it looks like a title. Returns "" when nothing
// plausible is found.
func ExtractTopic(text string) string {
	if m := headingRe.FindStringSubmatch(text); m != nil {
		topic := strings.TrimSpace(m[1])
		if len(topic) > 10 && len(topic) < 100 {
			return topic
		}
	}

	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if len(firstLine) > 10 && len(firstLine) < 100 {
		if r := []rune(firstLine)[0]; unicode.IsLetter(r) {
			return firstLine
		}
	}
	return ""
}

// Converter converts one raw record into zero or more chat records.
type Converter func(raw model.Raw) ([]model.Record, error)

// Converters maps the known source types to their converters.
func Converters(systemPrompt string) map[string]Converter {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return map[string]Converter{
		"nist_csrc":        one(convertNIST(systemPrompt)),
		"federal_register": one(convertFederalRegister(systemPrompt)),
		"ecfr":             one(convertECFR(systemPrompt)),
		"nist_sp800_171":   one(convertSP800171(systemPrompt)),
		"nist_csf":         one(convertCSF(systemPrompt)),
		"dod_documents":    one(convertDoDDocument(systemPrompt)),
	}
}

func one(f func(model.Raw) (model.Record, error)) Converter {
	return func(raw model.Raw) ([]model.Record, error) {
		rec, err := f(raw)
		if err != nil {
			return nil, err
		}
		return []model.Record{rec}, nil
	}
}

func requireText(raw model.Raw) (string, error) {
	text := raw.Text("text")
	if model.TrimEmpty(text) {
		return "", fmt.Errorf("record has no text")
	}
	return text, nil
}

func convertNIST(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		source := raw.Text("source")
		if source == "" {
			source = "NIST Publication"
		}
		topic := ExtractTopic(text)
		if topic == "" {
			topic = raw.Text("title")
		}

		question := SelectTemplate(TemplateContext{Source: source, Topic: topic})
		return model.NewRecord(systemPrompt, question, text,
			"nist_csrc_"+raw.Text("control_id")), nil
	}
}

func convertFederalRegister(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		title := raw.Text("title")
		docType := raw.Text("doc_type")
		if docType == "" {
			docType = "Document"
		}

		topic := title
		if len(topic) > 100 {
			topic = topic[:100]
		}
		if topic == "" {
			topic = ExtractTopic(text)
		}

		question := SelectTemplate(TemplateContext{Topic: topic, DocType: docType})
		sourceID := "federal_register_" + raw.Text("document_number")
		if idx := raw.Int("chunk_index"); idx > 0 {
			sourceID += fmt.Sprintf("_chunk%d", idx)
		}
		return model.NewRecord(systemPrompt, question, text, sourceID), nil
	}
}

func convertECFR(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		topic := raw.Text("title")
		if topic == "" {
			topic = ExtractTopic(text)
		}

		question := SelectTemplate(TemplateContext{CFRRef: raw.Text("cfr_ref"), Topic: topic})
		section := strings.ReplaceAll(raw.Text("section_number"), ".", "_")
		sourceID := fmt.Sprintf("ecfr_%d_%d_%s", raw.Int("cfr_title"), raw.Int("cfr_part"), section)
		return model.NewRecord(systemPrompt, question, text, sourceID), nil
	}
}

func convertSP800171(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		topic := raw.Text("title")
		if topic == "" {
			topic = ExtractTopic(text)
		}

		question := SelectTemplate(TemplateContext{
			Source:    "NIST SP 800-171 Rev. 3",
			Topic:     topic,
			Framework: FrameworkSP800171,
		})
		return model.NewRecord(systemPrompt, question, text,
			"nist_sp800_171_"+raw.Text("control_id")), nil
	}
}

func convertCSF(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		topic := raw.Text("title")
		if topic == "" {
			topic = ExtractTopic(text)
		}
		id := raw.Text("subcategory_id")
		if id == "" {
			id = raw.Text("category_id")
		}

		question := SelectTemplate(TemplateContext{
			Source:    "NIST CSF 2.0",
			Topic:     topic,
			Framework: FrameworkCSF,
		})
		return model.NewRecord(systemPrompt, question, text, "nist_csf_"+id), nil
	}
}

func convertDoDDocument(systemPrompt string) func(model.Raw) (model.Record, error) {
	return func(raw model.Raw) (model.Record, error) {
		text, err := requireText(raw)
		if err != nil {
			return model.Record{}, err
		}
		docName := raw.Text("doc_name")
		if docName == "" {
			docName = raw.Text("source")
		}

		topic := raw.Text("title")
		if topic == "" || strings.HasPrefix(topic, docName) {
			topic = ExtractTopic(text)
		}

		question := SelectTemplate(TemplateContext{
			Source:    docName,
			Topic:     topic,
			Framework: FrameworkDoDDocument,
		})
		sourceID := fmt.Sprintf("dod_%s_chunk%d",
			strings.ToLower(strings.ReplaceAll(raw.Text("doc_name"), " ", "_")),
			raw.Int("chunk_index"))
		return model.NewRecord(systemPrompt, question, text, sourceID), nil
	}
}

// Stats counts conversion outcomes for one batch.
type Stats struct {
	Total     int
	Converted int
	Skipped   int
}

// ConvertBatch converts raw records of a known source type. Records
// that fail conversion are counted and skipped; a bad record never
// aborts the batch. An unknown source type is an error.
func ConvertBatch(raws []model.Raw, sourceType, systemPrompt string) ([]model.Record, Stats, error) {
	converter, ok := Converters(systemPrompt)[sourceType]
	if !ok {
		return nil, Stats{}, fmt.Errorf("unknown source type: %s", sourceType)
	}

	stats := Stats{Total: len(raws)}
	var out []model.Record
	for _, raw := range raws {
		recs, err := converter(raw)
		if err != nil {
			stats.Skipped++
			continue
		}
		out = append(out, recs...)
		stats.Converted += len(recs)
	}
	return out, stats, nil
}
