package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InputExtensions lists the scan formats the CLI picks up on its own.
var InputExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp", ".pdf"}

// DefaultWorkers is the number of physical cores, falling back to the Go
// runtime's logical CPU count when the host does not report one.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

type MemoryStats struct {
	TotalMB     uint64
	AvailableMB uint64
	UsedPercent float64
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("%d/%d MB available (%.1f%% used)", m.AvailableMB, m.TotalMB, m.UsedPercent)
}

// MemoryUsage reports host memory, used for the -stats summary.
func MemoryUsage() (MemoryStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, err
	}
	return MemoryStats{
		TotalMB:     vm.Total >> 20,
		AvailableMB: vm.Available >> 20,
		UsedPercent: vm.UsedPercent,
	}, nil
}

// IsInput reports whether name has one of InputExtensions.
func IsInput(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range InputExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestInput returns the most recently modified scan or PDF in dir.
func FindLatestInput(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsInput(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no scans found in %s", dir)
	}

	return latestFile, nil
}
