package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oy3o/parcel/synth"
)

type manifest struct {
	Package string           `yaml:"package,omitempty"`
	Schemas []schemaManifest `yaml:"schemas"`
}

type schemaManifest struct {
	Name             string             `yaml:"name"`
	GoType           string             `yaml:"goType"`
	Encode           string             `yaml:"encode"`
	Decode           string             `yaml:"decode"`
	Context          bool               `yaml:"context,omitempty"`
	Singleton        bool               `yaml:"singleton,omitempty"`
	Constructor      []string           `yaml:"constructor,omitempty"`
	DescribeContents int                `yaml:"describeContents,omitempty"`
	Properties       []propertyManifest `yaml:"properties,omitempty"`
	Adapters         []adapterManifest  `yaml:"adapters,omitempty"`
	Fingerprint      string             `yaml:"fingerprint"`
}

type propertyManifest struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Kind     string `yaml:"kind"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

type adapterManifest struct {
	Type     string `yaml:"type"`
	Adapter  string `yaml:"adapter"`
	Scope    string `yaml:"scope"`
	NullSafe bool   `yaml:"nullSafe,omitempty"`
	Context  bool   `yaml:"context,omitempty"`
}

type inspectOptions struct {
	roots []string
}

func registerInspectCmd(parent *cobra.Command, a *app) {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the derived schemas as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, a, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.roots, "root", nil, "Root type, repeatable (default from the schema file)")

	parent.AddCommand(cmd)
}

func runInspect(cmd *cobra.Command, a *app, opts *inspectOptions) error {
	f, u, err := a.unit(opts.roots)
	if err != nil {
		return err
	}
	m := manifest{Package: a.cfg.Package}
	if m.Package == "" {
		m.Package = f.Package
	}
	for _, c := range u.Codecs {
		m.Schemas = append(m.Schemas, describe(c))
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

func describe(c *synth.Codec) schemaManifest {
	sc := c.Schema
	out := schemaManifest{
		Name:             sc.Name,
		GoType:           c.GoType,
		Encode:           c.Encode.Name,
		Decode:           c.Decode.Name,
		Context:          sc.RequiresContext,
		Singleton:        sc.Singleton,
		DescribeContents: sc.DescribeContents,
		Fingerprint:      c.Fingerprint,
	}
	for _, p := range sc.Constructor {
		out.Constructor = append(out.Constructor, p.Name)
	}
	for _, p := range sc.Properties {
		out.Properties = append(out.Properties, propertyManifest{
			Name:     p.Name,
			Type:     p.Slot.Type.String(),
			Kind:     p.Slot.String(),
			Nullable: p.Nullable(),
		})
	}
	for _, b := range sc.Adapters {
		out.Adapters = append(out.Adapters, adapterManifest{
			Type:     b.Source.String(),
			Adapter:  b.Adapter,
			Scope:    b.Scope.String(),
			NullSafe: b.NullSafe,
			Context:  b.RequiresContext,
		})
	}
	return out
}
