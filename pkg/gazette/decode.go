package gazette

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDocumentNotFound is wrapped by ParseError when the gazette file does
// not exist.
var ErrDocumentNotFound = errors.New("gazette document not found")

// ParseError reports a gazette document that is missing or structurally
// invalid. It is fatal for the whole run.
type ParseError struct {
	Source string
	Err    error
}

func (parseError *ParseError) Error() string {
	return fmt.Sprintf("gazette %s: %v", parseError.Source, parseError.Err)
}

func (parseError *ParseError) Unwrap() error {
	return parseError.Err
}

// DecodeAmendment decodes an amendment gazette. source names the document in
// errors.
func DecodeAmendment(reader io.Reader, source string) (*AmendmentDocument, error) {
	var document AmendmentDocument
	if err := decodeStrict(reader, source, &document); err != nil {
		return nil, err
	}
	if document.Add == nil && document.Omit == nil {
		return nil, &ParseError{Source: source, Err: errors.New("document has neither ADD nor OMIT entries")}
	}
	return &document, nil
}

// DecodePerson decodes a person gazette.
func DecodePerson(reader io.Reader, source string) (*PersonDocument, error) {
	var document PersonDocument
	if err := decodeStrict(reader, source, &document); err != nil {
		return nil, err
	}
	if document.Add == nil && document.Terminate == nil {
		return nil, &ParseError{Source: source, Err: errors.New("document has neither ADD nor TERMINATE entries")}
	}
	return &document, nil
}

// DecodeInitial decodes an initial gazette.
func DecodeInitial(reader io.Reader, source string) (*InitialDocument, error) {
	var document InitialDocument
	if err := decodeStrict(reader, source, &document); err != nil {
		return nil, err
	}
	if len(document.Ministries) == 0 {
		return nil, &ParseError{Source: source, Err: errors.New("document lists no ministers")}
	}
	return &document, nil
}

// ReadAmendmentFile opens and decodes an amendment gazette from disk.
func ReadAmendmentFile(path string) (*AmendmentDocument, error) {
	file, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeAmendment(file, path)
}

// ReadPersonFile opens and decodes a person gazette from disk.
func ReadPersonFile(path string) (*PersonDocument, error) {
	file, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodePerson(file, path)
}

// ReadInitialFile opens and decodes an initial gazette from disk.
func ReadInitialFile(path string) (*InitialDocument, error) {
	file, err := openDocument(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeInitial(file, path)
}

// Validate decodes data as format, returning a ParseError if it does not fit.
func Validate(data []byte, format Format, source string) error {
	var err error
	reader := bytes.NewReader(data)
	switch format {
	case FormatInitial:
		_, err = DecodeInitial(reader, source)
	case FormatAmendment:
		_, err = DecodeAmendment(reader, source)
	case FormatPerson:
		_, err = DecodePerson(reader, source)
	default:
		err = &ParseError{Source: source, Err: fmt.Errorf("unknown format %q", format)}
	}
	return err
}

func openDocument(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ParseError{Source: path, Err: ErrDocumentNotFound}
		}
		return nil, &ParseError{Source: path, Err: err}
	}
	return file, nil
}

func decodeStrict(reader io.Reader, source string, target any) error {
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return &ParseError{Source: source, Err: errors.New("document is empty")}
		}
		return &ParseError{Source: source, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	return nil
}
