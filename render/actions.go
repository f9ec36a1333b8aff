package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
)

// Action is what happens to a rendered template.
type Action string

const (
	// ActionGenerate writes the output and stops.
	ActionGenerate Action = "generate"
	// ActionCompare shows the differences with the installed file.
	ActionCompare Action = "compare"
	// ActionInstall overwrites the installed file.
	ActionInstall Action = "install"
	// ActionCheck reports only when the installed file differs.
	ActionCheck Action = "check"
)

// Actions lists the valid actions.
var Actions = []Action{ActionGenerate, ActionCompare, ActionInstall, ActionCheck}

// ParseAction validates an action name. The empty name is generate.
func ParseAction(name string) (Action, error) {
	if name == "" {
		return ActionGenerate, nil
	}
	for _, a := range Actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (generate, compare, install, check)", name)
}

// Job locates the files of one rendering.
type Job struct {
	Table    string
	Template string
	// Output is the generated file. When empty the result is printed.
	Output string
	// Installed is the reference copy compared and installed to.
	Installed string
}

// Result records what an action did.
type Result struct {
	Output    string
	Written   bool
	Seeded    bool
	Differs   bool
	Installed bool
}

// Installer applies actions to rendered output.
type Installer struct {
	Fs afero.Fs
	// CompareTool is an external program invoked as "tool output installed".
	// When empty a unified diff is printed instead.
	CompareTool string
	Out         io.Writer
	Verbose     bool
}

// NewInstaller returns an installer over the OS filesystem.
func NewInstaller(out io.Writer) *Installer {
	return &Installer{Fs: afero.NewOsFs(), Out: out}
}

// Apply writes output as described by job and performs action.
func (in *Installer) Apply(ctx context.Context, job Job, output string, action Action) (*Result, error) {
	res := &Result{Output: output}

	if job.Output != "" {
		if err := in.write(job.Output, output); err != nil {
			return res, err
		}
		res.Written = true
		if in.Verbose {
			fmt.Fprintf(in.Out, "📄 file %s generated\n", job.Output)
		}
	} else {
		fmt.Fprint(in.Out, output)
	}

	if job.Installed == "" {
		if action == ActionGenerate {
			return res, nil
		}
		return res, fmt.Errorf("action %s needs an installed file", action)
	}

	// A missing installed file is seeded with the output, whatever the action.
	exists, err := afero.Exists(in.Fs, job.Installed)
	if err != nil {
		return res, err
	}
	if !exists {
		if err := in.write(job.Installed, output); err != nil {
			return res, err
		}
		res.Seeded = true
		fmt.Fprintf(in.Out, "⚠️  file %s did not exist, it has been created\n", job.Installed)
	}
	if action == ActionGenerate {
		return res, nil
	}

	installed, err := afero.ReadFile(in.Fs, job.Installed)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", job.Installed, err)
	}
	res.Differs = !bytes.Equal(installed, []byte(output))

	switch action {
	case ActionCompare:
		if !res.Differs {
			color.New(color.FgGreen).Fprintf(in.Out, "✅ no differences between %s and %s\n", job.Output, job.Installed)
			return res, nil
		}
		if in.CompareTool != "" && job.Output != "" {
			return res, in.runTool(ctx, job.Output, job.Installed)
		}
		return res, in.printDiff(string(installed), output, job)

	case ActionInstall:
		if err := in.write(job.Installed, output); err != nil {
			return res, err
		}
		res.Installed = true
		fmt.Fprintf(in.Out, "✅ file %s has been replaced\n", job.Installed)

	case ActionCheck:
		if res.Differs {
			color.New(color.FgRed).Fprintf(in.Out, "❌ differences for %s %s\n", job.Table, filepath.Base(job.Template))
		} else if in.Verbose {
			fmt.Fprintf(in.Out, "✅ file %s is the same as %s\n", job.Output, job.Installed)
		}
	}
	return res, nil
}

func (in *Installer) write(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := in.Fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(in.Fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// runTool starts the external comparator. Diff tools exit non-zero when the
// files differ, which is not a failure here.
func (in *Installer) runTool(ctx context.Context, output, installed string) error {
	args := strings.Fields(in.CompareTool)
	args = append(args, output, installed)
	fmt.Fprintln(in.Out, "📋", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = in.Out
	cmd.Stderr = in.Out
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}

func (in *Installer) printDiff(installed, output string, job Job) error {
	from := job.Installed
	to := job.Output
	if to == "" {
		to = "generated"
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(installed),
		B:        difflib.SplitLines(output),
		FromFile: from,
		ToFile:   to,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diffing %s: %w", job.Installed, err)
	}

	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(in.Out, line)
		case strings.HasPrefix(line, "+"):
			add.Fprint(in.Out, line)
		case strings.HasPrefix(line, "-"):
			del.Fprint(in.Out, line)
		case strings.HasPrefix(line, "@@"):
			hunk.Fprint(in.Out, line)
		default:
			fmt.Fprint(in.Out, line)
		}
	}
	return nil
}
