// Package report renders the set of free GPUs for people and for scripts.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shepherd-project/freegpu/internal/gpu"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"
)

// NoFreeMessage is printed when every device is at or above the threshold.
const NoFreeMessage = "No free GPUs found."

// Render formats free devices as text.
//
// The default form is the device indexes separated by single spaces, ready
// for CUDA_VISIBLE_DEVICES style use. Verbose adds a header and one detail
// line per device.
func Render(free []gpu.Record, verbose bool) string {
	if len(free) == 0 {
		return NoFreeMessage
	}

	if verbose {
		lines := make([]string, 0, len(free)+1)
		lines = append(lines, "Free GPUs found:")
		for _, r := range free {
			lines = append(lines, fmt.Sprintf("  GPU %d: %s (%dMB / %dMB used)",
				r.Index, r.Name, r.MemoryUsedMB, r.MemoryTotalMB))
		}
		return strings.Join(lines, "\n")
	}

	indexes := make([]string, len(free))
	for i, r := range free {
		indexes[i] = strconv.Itoa(r.Index)
	}
	return strings.Join(indexes, " ")
}

// Format selects how a Document is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", errors.Newf("unknown output format %q", s)
	}
}

// Host identifies the machine the devices belong to.
type Host struct {
	Hostname        string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	OS              string `json:"os,omitempty" yaml:"os,omitempty"`
	Platform        string `json:"platform,omitempty" yaml:"platform,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty" yaml:"platformVersion,omitempty"`
	KernelVersion   string `json:"kernelVersion,omitempty" yaml:"kernelVersion,omitempty"`
}

// HostCollector returns the identity of the current host.
type HostCollector func(ctx context.Context) Host

// CollectHost reads host identity through gopsutil. Failures yield an empty
// Host; the report is still useful without it.
func CollectHost(ctx context.Context) Host {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil {
		return Host{}
	}
	return Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}
}

// Device is a record as it appears in structured output.
type Device struct {
	gpu.Record   `yaml:",inline"`
	MemoryFreeMB int64 `json:"memoryFreeMb" yaml:"memoryFreeMb"`
}

// NewDevices converts records into their structured form, keeping order.
func NewDevices(records []gpu.Record) []Device {
	devices := make([]Device, len(records))
	for i, r := range records {
		devices[i] = Device{Record: r, MemoryFreeMB: r.MemoryFreeMB()}
	}
	return devices
}

// Document is the structured form of one run.
type Document struct {
	Host        Host     `json:"host" yaml:"host"`
	ThresholdMB int64    `json:"thresholdMb" yaml:"thresholdMb"`
	Devices     []Device `json:"devices" yaml:"devices"`
	Free        []Device `json:"free" yaml:"free"`
}

// Writer writes documents to an output stream in a fixed format.
type Writer struct {
	out     io.Writer
	format  Format
	verbose bool
	quiet   bool
}

// NewWriter creates a Writer. verbose and quiet only affect FormatText.
func NewWriter(out io.Writer, format Format, verbose, quiet bool) *Writer {
	return &Writer{
		out:     out,
		format:  format,
		verbose: verbose,
		quiet:   quiet,
	}
}

// Write renders doc. In text mode an empty free set under quiet writes
// nothing at all; structured formats always emit the whole document.
func (w *Writer) Write(doc *Document) error {
	if doc.Devices == nil {
		doc.Devices = []Device{}
	}
	if doc.Free == nil {
		doc.Free = []Device{}
	}

	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode json report")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode yaml report")
		}
		return errors.Wrap(enc.Close(), "failed to flush yaml report")
	default:
		if len(doc.Free) == 0 && w.quiet {
			return nil
		}
		free := make([]gpu.Record, len(doc.Free))
		for i, d := range doc.Free {
			free[i] = d.Record
		}
		_, err := fmt.Fprintln(w.out, Render(free, w.verbose))
		return errors.Wrap(err, "failed to write report")
	}
}
