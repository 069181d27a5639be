package commands

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oy3o/parcel/derive"
	"github.com/oy3o/parcel/schema"
	"github.com/oy3o/parcel/synth"
)

var errNoSchema = errors.New("no schema file: set --schema or schema in the config")

// unit loads the configured schema file, derives roots (the file's own
// roots when empty) and synthesizes every schema reached.
func (a *app) unit(roots []string) (*schema.File, *synth.Unit, error) {
	if a.cfg.Schema == "" {
		return nil, nil, errNoSchema
	}
	f, err := schema.Load(a.cfg.Schema)
	if err != nil {
		return nil, nil, err
	}
	u, err := f.Universe()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", a.cfg.Schema, err)
	}
	if len(roots) == 0 {
		roots = f.Roots
	}
	if len(roots) == 0 {
		return nil, nil, fmt.Errorf("%s: no roots: list them under roots or pass --root", a.cfg.Schema)
	}
	types, err := schema.ParseTypes(roots)
	if err != nil {
		return nil, nil, err
	}

	reg, err := derive.Derive(u, types, derive.Options{
		AllowOpaque:   a.cfg.AllowOpaque,
		InstanceField: a.cfg.InstanceField,
		Adapters:      f.Adapters,
		Logger:        a.log,
	})
	if err != nil {
		return nil, nil, err
	}
	out, err := synth.New(reg, synth.Options{Logger: a.log}).SynthesizeAll()
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("schemas derived",
		zap.String("file", a.cfg.Schema),
		zap.Strings("roots", roots),
		zap.Int("schemas", reg.Len()))
	return f, out, nil
}
