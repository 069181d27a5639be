package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oy3o/parcel/synth"
)

type generateOptions struct {
	roots []string
}

func registerGenerateCmd(parent *cobra.Command, a *app) {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write encode and decode functions for a schema file",
		Example: `  # Generate from the roots the schema file lists
  parcelgen generate -s model.yaml -o model_parcel.go

  # Generate for selected roots only
  parcelgen generate -s model.yaml --root Order --root "Page<Order>"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, a, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.roots, "root", nil, "Root type, repeatable (default from the schema file)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	bind(a.v, cmd.Flags().Lookup, map[string]string{"output": "output"})

	parent.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, a *app, opts *generateOptions) error {
	f, u, err := a.unit(opts.roots)
	if err != nil {
		return err
	}

	pkg := a.cfg.Package
	if pkg == "" {
		pkg = f.Package
	}
	if pkg == "" {
		return fmt.Errorf("%s: no package: set package in the schema file or pass --package", a.cfg.Schema)
	}
	src, err := synth.Render(u, synth.RenderOptions{Package: pkg, Generator: "parcelgen", Imports: f.Imports})
	if err != nil {
		return err
	}

	if a.cfg.Output == "" {
		_, err = cmd.OutOrStdout().Write(src)
		return err
	}
	if err := os.WriteFile(a.cfg.Output, src, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	a.log.Info("codecs written",
		zap.String("output", a.cfg.Output),
		zap.Int("codecs", len(u.Codecs)),
		zap.Int("bytes", len(src)))
	return nil
}
