package templating

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valyala/fasttemplate"
)

const (
	// DefaultStartTag opens a placeholder. It differs from
	// the braces used by JSON documents.
	DefaultStartTag = "<%="

	// DefaultEndTag closes a placeholder.
	DefaultEndTag = "=>"

	// DefaultBinding is the name templates use to reach
	// the resolver, as in <%= a.env("HOST") =>.
	DefaultBinding = "a"
)

// Binding is a value exposed to template expressions
// under a name. Call receives the method name and the
// literal arguments of one expression.
type Binding interface {
	Call(
		ctx context.Context,
		method string,
		args []string,
	) (string, error)
}

// Engine renders documents containing <%= ... =>
// placeholders against a set of bindings.
type Engine struct {
	StartTag string
	EndTag   string
	Bindings map[string]Binding

	// Validate parses rendered output according to the
	// template file extension before it is written.
	Validate bool
}

// Render substitutes every placeholder in doc, left to
// right, in a single pass. Substituted values are not
// scanned again. The first failing placeholder aborts
// rendering and no output is returned.
func (en *Engine) Render(
	ctx context.Context,
	doc string,
) (string, error) {
	const errCtx = "rendering"

	startTag, endTag := en.tags()

	out, err := fasttemplate.ExecuteFuncStringWithErr(
		doc, startTag, endTag,
		func(wr io.Writer, tag string) (int, error) {
			val, err := en.evaluate(ctx, tag)
			if err != nil {
				return 0, err
			}

			return io.WriteString(wr, val)
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// evaluate parses one placeholder body and calls the
// bound value.
func (en *Engine) evaluate(
	ctx context.Context,
	tag string,
) (string, error) {
	ex, err := ParseExpression(tag)
	if err != nil {
		return "", err
	}

	binding, ok := en.Bindings[ex.Binding]
	if !ok {
		return "", fmt.Errorf(
			"%w: %s in %s",
			ErrUnknownBinding, ex.Binding, ex,
		)
	}

	val, err := binding.Call(ctx, ex.Method, ex.Args)
	if err != nil {
		return "", fmt.Errorf("evaluating %s: %w", ex, err)
	}

	return val, nil
}

// ExpandFile reads the template at tplPath, renders it
// fully in memory and only then writes the result to
// outPath. An empty tplPath reads stdin and an empty
// outPath writes stdout. When outPath names the template
// itself and rendering changed nothing, the file is left
// untouched.
func (en *Engine) ExpandFile(
	ctx context.Context,
	tplPath string,
	outPath string,
) error {
	const errCtx = "expanding template"

	tplContent, perm, err := en.readTemplate(tplPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	rendered, err := en.Render(ctx, string(tplContent))
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if en.Validate {
		if err := ValidateDocument(
			tplPath, []byte(rendered),
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if outPath != "" && outPath == tplPath &&
		rendered == string(tplContent) {
		slog.Info(
			"no placeholders left, file unchanged",
			"path", outPath,
		)

		return nil
	}

	out, closer, err := en.openOutput(outPath, perm)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := io.WriteString(out, rendered); err != nil {
		_ = closer() //nolint:errcheck // write error wins

		return fmt.Errorf(
			"%s: writing output: %w", errCtx, err,
		)
	}

	if err := closer(); err != nil {
		return fmt.Errorf(
			"%s: closing output: %w", errCtx, err,
		)
	}

	slog.Info("rendered template", "path", outPath)

	return nil
}

// tags returns the configured start/end tags, falling
// back to the <%= / => defaults.
func (en *Engine) tags() (string, string) {
	startTag := en.StartTag
	if startTag == "" {
		startTag = DefaultStartTag
	}

	endTag := en.EndTag
	if endTag == "" {
		endTag = DefaultEndTag
	}

	return startTag, endTag
}

// readTemplate reads the template from a file path along
// with its permission bits. If tplPath is empty it reads
// from stdin.
func (en *Engine) readTemplate(
	tplPath string,
) ([]byte, os.FileMode, error) {
	const (
		errCtx      = "reading template"
		defaultPerm = 0o644
	)

	if tplPath == "" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, 0, fmt.Errorf(
				"%s: reading stdin: %w", errCtx, err,
			)
		}

		return content, defaultPerm, nil
	}

	fi, err := os.Stat(tplPath)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	content, err := os.ReadFile(tplPath) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return content, fi.Mode().Perm(), nil
}

// openOutput returns a writer for the result. When
// outPath is empty it returns stdout. The returned closer
// must be called to finalize the file.
func (en *Engine) openOutput(
	outPath string,
	perm os.FileMode,
) (io.Writer, func() error, error) {
	const errCtx = "opening output"

	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	fi, err := os.OpenFile( //nolint:gosec // path from CLI flag
		outPath,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		perm,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return fi, fi.Close, nil
}
