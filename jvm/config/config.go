// Package config loads rendering option profiles from YAML.
//
// A profile looks like:
//
//	mode: besteffort
//	flags: [show-pool-index, hex]
//	target-version: "55:0"
//	max-steps: 100000
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// Profile is the on-disk form of jvm.Options.
type Profile struct {
	Mode          string   `yaml:"mode"`
	Flags         []string `yaml:"flags"`
	TargetVersion string   `yaml:"target-version"`
	MaxSteps      int      `yaml:"max-steps"`
}

// Options converts p, rejecting unknown flag names.
func (p Profile) Options() (jvm.Options, error) {
	mode, err := jvm.ParseMode(p.Mode)
	if err != nil {
		return jvm.Options{}, err
	}
	opt := jvm.Options{Mode: mode, MaxSteps: p.MaxSteps}
	var unknown []string
	for _, name := range p.Flags {
		f, ok := jvm.FlagByName(strings.TrimSpace(name))
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		opt.Flags |= f
	}
	if len(unknown) > 0 {
		return jvm.Options{}, fmt.Errorf("unknown flags %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(jvm.FlagNames(), ", "))
	}
	if p.TargetVersion != "" {
		v, err := jvm.ParseVersion(p.TargetVersion)
		if err != nil {
			return jvm.Options{}, err
		}
		opt.TargetVersion = v
	}
	if p.MaxSteps < 0 {
		return jvm.Options{}, fmt.Errorf("max-steps must be >= 0, got %d", p.MaxSteps)
	}
	return opt, nil
}

// Parse decodes a profile document. Unknown keys are rejected.
func Parse(r io.Reader) (jvm.Options, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Profile
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return jvm.Options{}, fmt.Errorf("config: %w", err)
	}
	opt, err := p.Options()
	if err != nil {
		return jvm.Options{}, fmt.Errorf("config: %w", err)
	}
	return opt, nil
}

// Load reads the profile at path.
func Load(path string) (jvm.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jvm.Options{}, fmt.Errorf("config: %w", err)
	}
	opt, err := Parse(bytes.NewReader(data))
	if err != nil {
		return jvm.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opt, nil
}

// Merge layers cli on top of base: flags are OR-ed, and any non-zero
// scalar in cli wins. cli.Mode applies only when modeSet.
func Merge(base, cli jvm.Options, modeSet bool) jvm.Options {
	out := base
	out.Flags |= cli.Flags
	if modeSet {
		out.Mode = cli.Mode
	}
	if !cli.TargetVersion.IsZero() {
		out.TargetVersion = cli.TargetVersion
	}
	if cli.MaxSteps > 0 {
		out.MaxSteps = cli.MaxSteps
	}
	return out
}
