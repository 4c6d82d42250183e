package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ImportDirectory scans dirPath for gazette files named
// "<number>_<YYYY-MM-DD>.json" and adds each one. Files already in the
// library and not failed are skipped. A file without a date in its name, or
// one that does not decode, is reported as failed and does not stop the scan.
func ImportDirectory(lib *Library, dirPath string) (*ImportReport, error) {
	matches, err := filepath.Glob(filepath.Join(dirPath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob directory: %w", err)
	}
	sort.Strings(matches)

	importReport := &ImportReport{
		TotalAttempted: len(matches),
		Entries:        make([]ImportEntryState, 0, len(matches)),
	}

	for _, sourcePath := range matches {
		number, date := ParseFileName(sourcePath)

		if existing, err := lib.Info(number); err == nil && existing.Status != StatusFailed {
			importReport.Skipped++
			importReport.Entries = append(importReport.Entries, ImportEntryState{
				Number: number,
				Path:   sourcePath,
				Status: "skipped",
			})
			continue
		}

		if date == "" {
			importReport.recordFailure(number, sourcePath, fmt.Errorf("file name has no _YYYY-MM-DD date suffix"))
			continue
		}

		data, err := os.ReadFile(sourcePath)
		if err != nil {
			importReport.recordFailure(number, sourcePath, err)
			continue
		}

		opts := AddOptions{
			Date:       date,
			SourceInfo: sourcePath,
			Force:      true,
		}
		if _, err := lib.AddGazette(number, data, opts); err != nil {
			importReport.recordFailure(number, sourcePath, err)
			continue
		}

		importReport.Succeeded++
		importReport.Entries = append(importReport.Entries, ImportEntryState{
			Number: number,
			Path:   sourcePath,
			Status: "added",
		})
	}

	return importReport, nil
}

func (importReport *ImportReport) recordFailure(number, sourcePath string, err error) {
	importReport.Failed++
	importReport.Entries = append(importReport.Entries, ImportEntryState{
		Number: number,
		Path:   sourcePath,
		Status: "failed",
		Error:  err.Error(),
	})
}
