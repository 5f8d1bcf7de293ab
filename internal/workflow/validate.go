package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/deixis/contractcheck/internal/report"
	"github.com/deixis/contractcheck/internal/verify"
)

// ValidateRequest describes one strict line-by-line validation.
type ValidateRequest struct {
	Process      string // executable path, resolved against the workspace
	ExpectedFile string // path to the expected output
	Dir          string // working directory inside the workspace; the root when empty
}

// Validate runs the program once and compares its stderr line by line with
// the expected file. As with Check, a failed validation is reported in the
// Report and errors are reserved for problems carrying it out.
func (e *Engine) Validate(ctx context.Context, req ValidateRequest) (*report.Report, error) {
	prog, err := e.ResolveProgram(req.Process, false)
	if err != nil {
		return nil, err
	}

	expected, err := e.readFile(req.ExpectedFile)
	if err != nil {
		return nil, err
	}

	log := e.logger().With("process", prog.Display)
	log.Debug("running", "path", prog.Path, "dir", req.Dir)

	res, err := e.Runner.Run(ctx, []string{prog.Path}, req.Dir)
	if err != nil {
		return nil, err
	}
	if res.RunID == "" {
		res.RunID = uuid.New().String()
	}
	log.Debug("finished", "run", res.RunID, "exit_code", res.ExitCode)

	rep := newReport(report.Validate, prog, res)
	if err := verify.ValidateLines(prog.Display, expected, res); err != nil {
		var v *verify.Violation
		if !errors.As(err, &v) {
			return nil, err
		}
		e.applyViolation(rep, v)
	}

	e.save(rep)
	return rep, nil
}
