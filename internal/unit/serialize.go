package unit

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

const (
	sectionUnit    = "Unit"
	sectionService = "Service"
	sectionInstall = "Install"
)

// Options returns the descriptor as ordered unit options. Sections appear in
// the order [Unit], [Service], [Install].
func (d Descriptor) Options() []*unit.UnitOption {
	opts := []*unit.UnitOption{
		unit.NewUnitOption(sectionUnit, "Description", d.Description),
	}
	for _, after := range d.After {
		opts = append(opts, unit.NewUnitOption(sectionUnit, "After", after))
	}
	for _, wants := range d.Wants {
		opts = append(opts, unit.NewUnitOption(sectionUnit, "Wants", wants))
	}
	opts = append(opts,
		unit.NewUnitOption(sectionUnit, "StartLimitBurst", strconv.Itoa(d.StartLimit.Burst)),
		unit.NewUnitOption(sectionUnit, "StartLimitIntervalSec", strconv.Itoa(d.StartLimit.IntervalSec)),

		unit.NewUnitOption(sectionService, "Type", d.Type),
		unit.NewUnitOption(sectionService, "ExecStart", execLine(d.ExecStart)),
		unit.NewUnitOption(sectionService, "WorkingDirectory", d.WorkingDir),
		unit.NewUnitOption(sectionService, "User", d.User),
		unit.NewUnitOption(sectionService, "Restart", d.Restart.Policy),
		unit.NewUnitOption(sectionService, "RestartSec", strconv.Itoa(d.Restart.IntervalSec)),
		unit.NewUnitOption(sectionService, "LimitNOFILE", strconv.Itoa(d.Limits.OpenFiles)),
		unit.NewUnitOption(sectionService, "NoNewPrivileges", strconv.FormatBool(d.Security.NoNewPrivileges)),
		unit.NewUnitOption(sectionService, "PrivateTmp", strconv.FormatBool(d.Security.PrivateTmp)),
		unit.NewUnitOption(sectionService, "StandardOutput", d.Logging.Stdout),
		unit.NewUnitOption(sectionService, "StandardError", d.Logging.Stderr),
		unit.NewUnitOption(sectionService, "SyslogIdentifier", d.Logging.Identifier),

		unit.NewUnitOption(sectionInstall, "WantedBy", d.WantedBy),
	)
	return opts
}

// Serialize renders the descriptor into unit file text.
func (d Descriptor) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, unit.Serialize(d.Options())); err != nil {
		return nil, fmt.Errorf("unit: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

// execLine joins argv into an ExecStart value, quoting words systemd would
// otherwise split or expand.
func execLine(argv []string) string {
	words := make([]string, len(argv))
	for i, arg := range argv {
		words[i] = quoteArg(arg)
	}
	return strings.Join(words, " ")
}

func quoteArg(arg string) string {
	// % and $ introduce specifiers and variable expansions.
	arg = strings.ReplaceAll(arg, "%", "%%")
	arg = strings.ReplaceAll(arg, "$", "$$")
	if arg != "" && !strings.ContainsAny(arg, " \t\"'\\;") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
