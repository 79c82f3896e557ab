// Command postprocess is the CLI surface of §6: a one-shot batch tool that
// inspects or rewrites a single G-code file and reports its progress as a
// stream of line-delimited JSON records (or, outside --non-interactive, as
// plain log lines in the teacher's style).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Masterminds/semver/v3"

	"github.com/ratos/gcode-postprocessor/config"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/postprocessor"
	"github.com/ratos/gcode-postprocessor/warnings"
)

// fallbackVersion is embedded for development builds: whenever
// RATOS_SCRIPT_DIR is unset or `git describe --tags` fails there, this is
// the post-processor version reported and written into output files.
const fallbackVersion = "0.2.0-dev"

func main() {
	nonInteractive := flag.Bool("non-interactive", false, "emit line-delimited JSON records on stdout instead of log lines")

	var idex bool
	flag.BoolVar(&idex, "i", false, "printer has independent dual extruders (shorthand)")
	flag.BoolVar(&idex, "idex", false, "printer has independent dual extruders")

	var overwrite bool
	flag.BoolVar(&overwrite, "o", false, "overwrite the output path if it already exists (shorthand)")
	flag.BoolVar(&overwrite, "overwrite", false, "overwrite the output path if it already exists")

	overwriteInput := flag.Bool("O", false, "write the result back over the input file")
	flag.BoolVar(overwriteInput, "overwrite-input", false, "write the result back over the input file")

	var allowUnsupported bool
	flag.BoolVar(&allowUnsupported, "a", false, "allow unsupported slicer versions (shorthand)")
	flag.BoolVar(&allowUnsupported, "allow-unsupported-slicer-versions", false, "allow unsupported slicer versions")

	var allowUnknown bool
	flag.BoolVar(&allowUnknown, "u", false, "allow an unrecognized generator header (shorthand)")
	flag.BoolVar(&allowUnknown, "allow-unknown-generator", false, "allow an unrecognized generator header")

	flag.Parse()

	rec := newRecorder(*nonInteractive)

	inputPath, outputPath, err := resolvePaths(flag.Args(), *overwriteInput)
	if err != nil {
		rec.errorRecord(err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyShutdown(cancel)

	versions, err := loadVersionsWithOverride()
	if err != nil {
		rec.errorRecord(err)
		os.Exit(1)
	}

	rec.waiting(fmt.Sprintf("post-processor %s starting on %s", versions.PostProcessorVersion, inputPath))

	opts := postprocessor.Options{
		IDEX:                    idex,
		AllowUnsupportedSlicers: allowUnsupported,
		AllowUnknownGenerator:   allowUnknown,
		Overwrite:               overwrite || *overwriteInput,
		Versions:                versions,
		Tunables:                config.DefaultTunables(),
		Warnings:                warnings.Func(rec.warning),
		OnProgress:              rec.progress,
	}

	result, err := run(ctx, inputPath, outputPath, opts, rec)
	if err != nil {
		rec.errorRecord(err)
		os.Exit(1)
	}

	rec.success(result)
}

// run inspects the file first so an already-unsupported or already-processed
// input is reported without ever opening an output file, then transforms it.
func run(ctx context.Context, inputPath, outputPath string, opts postprocessor.Options, rec *recorder) (*postprocessor.TransformResult, error) {
	inspection, err := postprocessor.Inspect(inputPath, opts)
	if err != nil {
		return nil, err
	}

	switch inspection.Printability {
	case postprocessor.PrintabilityNotSupported:
		return nil, fmt.Errorf("%s: %s", inspection.Printability, inspection.Reason)
	case postprocessor.PrintabilityMustReprocess, postprocessor.PrintabilityCouldReprocess:
		return nil, fmt.Errorf("%s is already processed (%s); re-slice from source before processing again",
			filepath.Base(inputPath), inspection.Reason)
	}
	if inspection.Identification != nil && inspection.Identification.Processed() {
		return nil, &perr.AlreadyProcessedError{Identification: inspection.Identification}
	}

	if outputPath == inputPath {
		return transformInPlace(ctx, inputPath, opts)
	}
	return postprocessor.Transform(ctx, inputPath, outputPath, opts)
}

// transformInPlace writes to a sibling temp file and renames over the
// original only once streaming and finalisation have fully succeeded, so a
// failed run never leaves a half-written input behind.
func transformInPlace(ctx context.Context, path string, opts postprocessor.Options) (*postprocessor.TransformResult, error) {
	tmp := path + ".ratos-tmp"
	opts.Overwrite = true
	result, err := postprocessor.Transform(ctx, path, tmp, opts)
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("postprocess: replacing %s with transformed output: %w", path, err)
	}
	return result, nil
}

func resolvePaths(args []string, overwriteInput bool) (input, output string, err error) {
	switch {
	case len(args) == 0:
		return "", "", fmt.Errorf("postprocess: missing <input> path")
	case len(args) == 1:
		if !overwriteInput {
			return "", "", fmt.Errorf("postprocess: missing [output] path (or pass -O/--overwrite-input)")
		}
		return args[0], args[0], nil
	case len(args) == 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("postprocess: unexpected extra arguments: %s", strings.Join(args[2:], " "))
	}
}

// loadVersionsWithOverride loads the embedded allow-list, then replaces its
// post-processor version with the one `git describe --tags` reports inside
// RATOS_SCRIPT_DIR — the installed RatOS tree's checked-out tag — falling
// back to fallbackVersion for development builds.
func loadVersionsWithOverride() (*config.SupportedVersions, error) {
	sv, err := config.LoadSupportedVersions()
	if err != nil {
		return nil, err
	}
	sv.PostProcessorVersion = currentVersion()
	return sv, nil
}

func currentVersion() *semver.Version {
	if dir := os.Getenv("RATOS_SCRIPT_DIR"); dir != "" {
		cmd := exec.Command("git", "describe", "--tags")
		cmd.Dir = dir
		if out, err := cmd.Output(); err == nil {
			if v, err := semver.NewVersion(strings.TrimSpace(string(out))); err == nil {
				return v
			}
		}
	}
	v, err := semver.NewVersion(fallbackVersion)
	if err != nil {
		panic("postprocess: fallbackVersion does not parse as semver: " + err.Error())
	}
	return v
}

// notifyShutdown cancels ctx on SIGINT/SIGTERM, mirroring the teacher's
// graceful-shutdown signal handling in main.go.
func notifyShutdown(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
}

// record is one line of the §6 JSON contract.
type record struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
	Line    int    `json:"line,omitempty"`
	Lines   int    `json:"lines,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
}

// recorder emits progress either as JSON records (--non-interactive) or as
// plain log.Printf lines, matching the teacher's own logging style when not
// operating as a tool-host subprocess.
type recorder struct {
	json bool
}

func newRecorder(nonInteractive bool) *recorder {
	return &recorder{json: nonInteractive}
}

func (r *recorder) emit(rec record) {
	if !r.json {
		if rec.Message != "" {
			log.Printf("postprocess: %s — %s", rec.Result, rec.Message)
		} else {
			log.Printf("postprocess: %s", rec.Result)
		}
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Fatalf("postprocess: marshalling JSON record: %v", err)
	}
	fmt.Println(string(data))
}

func (r *recorder) waiting(msg string) { r.emit(record{Result: "waiting", Message: msg}) }

func (r *recorder) progress(lines int) {
	r.emit(record{Result: "progress", Lines: lines})
}

func (r *recorder) warning(kind warnings.Kind, msg string, line int) {
	r.emit(record{Result: "warning", Message: fmt.Sprintf("%s: %s", kind, msg), Line: line})
}

func (r *recorder) errorRecord(err error) {
	var already *perr.AlreadyProcessedError
	if errors.As(err, &already) && already.Identification != nil {
		r.emit(record{Result: "error", Message: fmt.Sprintf(
			"already processed by RatOS.PostProcessor %s on %s",
			already.Identification.PostProcessorVersion, already.Identification.PostProcessorTime.Format("2006-01-02 15:04:05"))})
		return
	}
	r.emit(record{Result: "error", Message: err.Error()})
}

func (r *recorder) success(result *postprocessor.TransformResult) {
	if result == nil {
		r.emit(record{Result: "success"})
		return
	}
	r.emit(record{Result: "success", Bytes: result.BytesWritten})
}
