package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coolbeans/gazette/pkg/gazette"
)

// File names written by WriteCSVs.
const (
	AddFile       = "add.csv"
	TerminateFile = "terminate.csv"
	MoveFile      = "move.csv"
)

var (
	relationHeader       = []string{"transaction_id", "parent", "parent_type", "child", "child_type", "rel_type", "date"}
	departmentMoveHeader = []string{"transaction_id", "old_parent", "new_parent", "child", "type", "date"}
	personMoveHeader     = []string{"transaction_id", "old_parent", "new_parent", "parent_type", "child", "child_type", "rel_type", "date"}
)

// OutputDir returns <root>/<kind>/<date>/<gazette number>.
func OutputDir(root string, rows *Rows) string {
	return filepath.Join(root, string(rows.Kind), rows.Date, rows.GazetteNumber)
}

// WriteCSVs writes rows under OutputDir(root, rows) and returns the paths
// written. Empty groups produce no file.
func WriteCSVs(root string, rows *Rows) ([]string, error) {
	directory := OutputDir(root, rows)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string

	if len(rows.Adds) > 0 {
		path := filepath.Join(directory, AddFile)
		if err := writeFile(path, relationHeader, relationRecords(rows.Adds)); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(rows.Terminates) > 0 {
		path := filepath.Join(directory, TerminateFile)
		if err := writeFile(path, relationHeader, relationRecords(rows.Terminates)); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(rows.Moves) > 0 {
		path := filepath.Join(directory, MoveFile)
		header, records := departmentMoveHeader, departmentMoveRecords(rows.Moves)
		if rows.Kind == gazette.KindPerson {
			header, records = personMoveHeader, personMoveRecords(rows.Moves)
		}
		if err := writeFile(path, header, records); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func writeFile(path string, header []string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func relationRecords(relations []Relation) [][]string {
	records := make([][]string, 0, len(relations))
	for _, relation := range relations {
		records = append(records, []string{
			relation.TransactionID, relation.Parent, relation.ParentType,
			relation.Child, relation.ChildType, relation.RelType, relation.Date,
		})
	}
	return records
}

func departmentMoveRecords(movements []Movement) [][]string {
	records := make([][]string, 0, len(movements))
	for _, movement := range movements {
		records = append(records, []string{
			movement.TransactionID, movement.OldParent, movement.NewParent,
			movement.Child, movement.RelType, movement.Date,
		})
	}
	return records
}

func personMoveRecords(movements []Movement) [][]string {
	records := make([][]string, 0, len(movements))
	for _, movement := range movements {
		records = append(records, []string{
			movement.TransactionID, movement.OldParent, movement.NewParent, movement.ParentType,
			movement.Child, movement.ChildType, movement.RelType, movement.Date,
		})
	}
	return records
}
