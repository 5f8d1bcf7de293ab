package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/template"
	"github.com/deixis/contractcheck/internal/verify"
)

// CheckRequest describes one failing-program check.
type CheckRequest struct {
	Process      string // executable name, resolved under the test directory
	Debug        bool   // the build carries diagnostic text
	Expected     string // inline expected-output template
	ExpectedFile string // path to an expected-output template; wins over Expected
	Scheme       string // template scheme: "regex" (default) or "percent"
	Category     string // percent-scheme key; derived from Process when empty
	Dir          string // working directory inside the workspace; the root when empty
}

// Check runs the program once and verifies it failed its contract check
// the way the build mode requires. A failed verification is reported in
// the returned Report, not as an error; errors mean the check itself could
// not be carried out (bad template, missing file, timeout, exec failure).
func (e *Engine) Check(ctx context.Context, req CheckRequest) (*report.Report, error) {
	prog, err := e.ResolveProgram(req.Process, true)
	if err != nil {
		return nil, err
	}

	tmpl, err := e.loadTemplate(req)
	if err != nil {
		return nil, err
	}

	inv := verify.NewInvocation(prog.Display, req.Debug, tmpl)
	inv.Table = e.Table()
	inv.Sentinel = e.Config.Sentinel()
	if req.Category != "" {
		inv.TestKind = template.TestKind(req.Category)
	}

	log := e.logger().With("process", prog.Display)
	log.Debug("running", "path", prog.Path, "dir", req.Dir, "debug", req.Debug)

	res, err := e.Runner.Run(ctx, []string{prog.Path}, req.Dir)
	if err != nil {
		return nil, err
	}
	if res.RunID == "" {
		res.RunID = uuid.New().String()
	}
	log.Debug("finished", "run", res.RunID, "exit_code", res.ExitCode, "signal", res.Signal,
		"stdout_bytes", len(res.Stdout), "stderr_bytes", len(res.Stderr))

	rep := newReport(report.Check, prog, res)
	rep.Debug = req.Debug

	if err := verify.Check(inv, res); err != nil {
		var v *verify.Violation
		if !errors.As(err, &v) {
			return nil, err
		}
		e.applyViolation(rep, v)
	}

	e.save(rep)
	return rep, nil
}

func (e *Engine) loadTemplate(req CheckRequest) (*template.Template, error) {
	scheme, err := template.ParseScheme(req.Scheme)
	if err != nil {
		return nil, err
	}

	text := req.Expected
	if req.ExpectedFile != "" {
		text, err = e.readFile(req.ExpectedFile)
		if err != nil {
			return nil, err
		}
	}
	if text == "" {
		if req.Debug {
			return nil, fmt.Errorf("expected output is required when checking a debug build")
		}
		return nil, nil
	}

	tmpl, err := template.Parse(text, scheme)
	if err != nil {
		return nil, fmt.Errorf("parsing expected output: %w", err)
	}
	return tmpl, nil
}

func (e *Engine) applyViolation(rep *report.Report, v *verify.Violation) {
	rep.Passed = false
	rep.Violation = string(v.Kind)
	rep.Message = v.Message
	rep.Pattern = v.Pattern
	rep.Diff = v.Diff
	for _, m := range v.Mismatches {
		rep.Mismatches = append(rep.Mismatches, report.LineMismatch(m))
	}

	if v.Kind == verify.OutputMismatch && e.Diffs != nil {
		expPath, actPath, err := e.Diffs.WriteDiffInputs(rep.ID, v.Expected, v.Actual)
		if err != nil {
			e.logger().Warn("writing diff inputs", "run", rep.ID, "error", err)
			return
		}
		rep.ExpectedPath = expPath
		rep.ActualPath = actPath
	}
}
