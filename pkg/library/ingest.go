package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/coolbeans/gazette/pkg/gazette"
)

// dateLayout is the publication date format used throughout the library.
const dateLayout = "2006-01-02"

// DetectFormat guesses a gazette's format from its top-level keys: an
// initial gazette lists "ministers", a person gazette carries "TERMINATE" or
// appointments with a "name", and anything else with "ADD" or "OMIT" is an
// amendment.
func DetectFormat(data []byte) (gazette.Format, error) {
	var topLevel map[string]json.RawMessage
	if err := json.Unmarshal(data, &topLevel); err != nil {
		return "", fmt.Errorf("failed to detect format: %w", err)
	}

	keys := make(map[string]json.RawMessage, len(topLevel))
	for key, value := range topLevel {
		keys[strings.ToUpper(key)] = value
	}

	if _, ok := keys["MINISTERS"]; ok {
		return gazette.FormatInitial, nil
	}
	if _, ok := keys["TERMINATE"]; ok {
		return gazette.FormatPerson, nil
	}
	if _, ok := keys["OMIT"]; ok {
		return gazette.FormatAmendment, nil
	}
	if additions, ok := keys["ADD"]; ok {
		var firstEntries []map[string]json.RawMessage
		if err := json.Unmarshal(additions, &firstEntries); err == nil && len(firstEntries) > 0 {
			if _, hasName := firstEntries[0]["name"]; hasName {
				return gazette.FormatPerson, nil
			}
		}
		return gazette.FormatAmendment, nil
	}

	return "", fmt.Errorf("failed to detect format: no ministers, ADD, OMIT or TERMINATE key")
}

// inspectGazette decodes data as format and counts what it contains.
func inspectGazette(data []byte, format gazette.Format, source string) (*GazetteStats, error) {
	if len(data) == 0 {
		return nil, &gazette.ParseError{Source: source, Err: fmt.Errorf("document is empty")}
	}

	stats := &GazetteStats{SourceBytes: len(data)}
	reader := bytes.NewReader(data)

	switch format {
	case gazette.FormatInitial:
		document, err := gazette.DecodeInitial(reader, source)
		if err != nil {
			return nil, err
		}
		stats.Ministries = len(document.Ministries)
		for _, listing := range document.Ministries {
			stats.Departments += len(listing.Departments)
		}

	case gazette.FormatAmendment:
		document, err := gazette.DecodeAmendment(reader, source)
		if err != nil {
			return nil, err
		}
		entries := document.Entries()
		stats.Entries = len(entries)
		stats.ColumnIIEntries = len(gazette.FilterColumn(entries, gazette.ColumnII))
		for _, entry := range entries {
			stats.DetailLines += len(entry.Details)
		}

	case gazette.FormatPerson:
		document, err := gazette.DecodePerson(reader, source)
		if err != nil {
			return nil, err
		}
		stats.PersonAdds = len(document.Add)
		stats.PersonTerminates = len(document.Terminate)

	default:
		return nil, &gazette.ParseError{Source: source, Err: fmt.Errorf("unknown format %q", format)}
	}

	return stats, nil
}

// ParseFileName reads a gazette number and date from a file name of the form
// "<number>_<YYYY-MM-DD>.json". Either part is empty when absent.
func ParseFileName(filePath string) (number string, date string) {
	baseName := filepath.Base(filePath)
	if idx := strings.LastIndex(baseName, "."); idx != -1 {
		baseName = baseName[:idx]
	}

	if idx := strings.LastIndex(baseName, "_"); idx != -1 {
		candidate := baseName[idx+1:]
		if validDate(candidate) {
			return baseName[:idx], candidate
		}
	}
	return baseName, ""
}

func validDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}
