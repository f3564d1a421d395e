package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("fileintegrity", func(log logger.Logger) Analyzer { return NewFileIntegrityAnalyzer(log) })
}

// knownGoodHashes maps a path relative to GameRootPath to its expected
// SHA-256 hex digest. An empty digest means only the file's presence is
// checked; every entry here has an empty digest, so Scan performs no hash
// comparison and HashValidations stays empty.
var knownGoodHashes = map[string]string{
	"Fallout4.exe":           "",
	"Data/Fallout4.esm":      "",
	"f4se_loader.exe":        "",
}

// FileIntegrityAnalyzer (FCX) checks that a handful of core game files are
// present, compares hashes for those with a digest in knownGoodHashes (none
// at present), and reports missing files as deviations. Runs ahead of
// the parallel batch; see FcxDecorator for how it is invoked as a
// whole-batch pre-pass.
type FileIntegrityAnalyzer struct {
	log logger.Logger
}

func NewFileIntegrityAnalyzer(log logger.Logger) *FileIntegrityAnalyzer {
	return &FileIntegrityAnalyzer{log: log}
}

func (a *FileIntegrityAnalyzer) Name() string           { return "fileintegrity" }
func (a *FileIntegrityAnalyzer) Priority() int          { return 1 }
func (a *FileIntegrityAnalyzer) CanRunInParallel() bool { return false }

func (a *FileIntegrityAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	fcx, err := a.Scan(log.GameRootPath)
	if err != nil {
		res.AddError(err.Error())
		return res, nil
	}

	for _, check := range fcx.FileChecks {
		if !check.OK {
			res.AddLine(fmt.Sprintf("%s: expected %s, found %s", check.Path, check.Expected, check.Observed))
		}
	}
	for _, hv := range fcx.HashValidations {
		if !hv.Match {
			res.AddLine(fmt.Sprintf("%s: hash mismatch (game files modified or outdated)", hv.Path))
		}
	}
	res.Data["GameStatus"] = fcx.GameStatus.String()
	res.Data["FcxResult"] = fcx

	return res, nil
}

// Scan performs the file-integrity pre-check directly, independent of the
// Analyzer interface. FcxDecorator calls this directly with its configured
// game root path; no CrashLog is involved.
func (a *FileIntegrityAnalyzer) Scan(gameRootPath string) (*FcxResult, error) {
	fcx := &FcxResult{Result: NewResult(a.Name()), GameStatus: Good}

	if gameRootPath == "" {
		fcx.GameStatus = Warning
		fcx.AddLine("GameRootPath not set; file-integrity check skipped")
		return fcx, nil
	}

	for relPath, expectedHash := range knownGoodHashes {
		fullPath := filepath.Join(gameRootPath, relPath)
		info, err := os.Stat(fullPath)
		if err != nil {
			fcx.FileChecks = append(fcx.FileChecks, FileCheck{Path: relPath, Expected: "present", Observed: "missing", OK: false})
			fcx.GameStatus = Critical
			continue
		}
		fcx.FileChecks = append(fcx.FileChecks, FileCheck{Path: relPath, Expected: "present", Observed: "present", OK: true})

		if expectedHash == "" || info.IsDir() {
			continue
		}
		actual, err := hashFile(fullPath)
		if err != nil {
			fcx.AddError(fmt.Sprintf("hashing %s: %v", relPath, err))
			continue
		}
		match := actual == expectedHash
		fcx.HashValidations = append(fcx.HashValidations, HashValidation{Path: relPath, Expected: expectedHash, Actual: actual, Match: match})
		if !match && fcx.GameStatus == Good {
			fcx.GameStatus = Warning
		}
	}

	return fcx, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
