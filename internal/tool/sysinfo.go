package tool

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"toolchat/internal/domain"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

const unknown = "Unknown"

// SysInfoTool reports static facts about the host.
type SysInfoTool struct{}

func NewSysInfoTool() *SysInfoTool {
	return &SysInfoTool{}
}

func (t *SysInfoTool) Name() string { return "system_info" }
func (t *SysInfoTool) Description() string {
	return "Report system information: OS, release, architecture, processor and runtime version."
}
func (t *SysInfoTool) Parameters() map[string]any {
	return ToolParameters(nil, nil)
}

func (t *SysInfoTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	system, release, arch, processor := runtime.GOOS, "", runtime.GOARCH, ""

	if hi, err := host.InfoWithContext(ctx); err == nil && hi != nil {
		if hi.Platform != "" {
			system = fmt.Sprintf("%s (%s)", hi.OS, hi.Platform)
		}
		release = firstNonEmpty(hi.KernelVersion, hi.PlatformVersion)
		arch = firstNonEmpty(hi.KernelArch, arch)
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		processor = infos[0].ModelName
	}

	info := []string{
		"System information:",
		"- System: " + orUnknown(system),
		"- Release: " + orUnknown(release),
		"- Machine: " + orUnknown(arch),
		"- Processor: " + orUnknown(processor),
		"- Runtime: " + runtime.Version(),
	}
	return strings.Join(info, "\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

var _ domain.Tool = (*SysInfoTool)(nil)
