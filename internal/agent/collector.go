// Package agent collects host statistics and posts them to the receiver.
package agent

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TimeLayout formats the sample timestamp in local time.
const TimeLayout = "2006-01-02 15:04:05"

// Unavailable marks a reading that could not be taken.
const Unavailable = -1.0

const bytesPerGiB = 1024 * 1024 * 1024

// Sample is one snapshot of host statistics.
type Sample struct {
	Hostname  string  `json:"hostname" yaml:"hostname"`
	Time      string  `json:"time" yaml:"time"`
	CPULoad   float64 `json:"cpu_load" yaml:"cpu_load"`
	CPUTemp   float64 `json:"cpu_temp" yaml:"cpu_temp"`
	RAMUsage  float64 `json:"ram_usage" yaml:"ram_usage"`
	DiskUsage float64 `json:"disk_usage" yaml:"disk_usage"`
	DiskTotal float64 `json:"disk_total" yaml:"disk_total"`
}

// DiskStats reports the total and free bytes of the filesystem at path.
type DiskStats func(path string) (total, free uint64, err error)

// Collector reads host statistics from procfs, sysfs and the filesystem.
type Collector struct {
	procRoot string
	sysRoot  string
	diskPath string

	hostname  func() (string, error)
	now       func() time.Time
	diskStats DiskStats
}

// NewCollector creates a Collector reading under the given roots.
func NewCollector(procRoot, sysRoot, diskPath string) *Collector {
	return &Collector{
		procRoot:  procRoot,
		sysRoot:   sysRoot,
		diskPath:  diskPath,
		hostname:  os.Hostname,
		now:       time.Now,
		diskStats: statfs,
	}
}

// Collect takes one sample. Unreadable CPU and memory readings are reported
// as Unavailable; a disk statistics failure fails the whole sample.
func (c *Collector) Collect() (Sample, error) {
	total, free, err := c.diskStats(c.diskPath)
	if err != nil {
		return Sample{}, fmt.Errorf("disk stats for %s: %w", c.diskPath, err)
	}

	return Sample{
		Hostname:  c.host(),
		Time:      c.now().Local().Format(TimeLayout),
		CPULoad:   round2(c.cpuLoad()),
		CPUTemp:   round2(c.cpuTemp()),
		RAMUsage:  round2(c.ramUsage()),
		DiskUsage: round2(float64(total-free) / bytesPerGiB),
		DiskTotal: round2(float64(total) / bytesPerGiB),
	}, nil
}

func (c *Collector) host() string {
	name, err := c.hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

// cpuLoad returns the 1-minute load average.
func (c *Collector) cpuLoad() float64 {
	data, err := os.ReadFile(filepath.Join(c.procRoot, "loadavg"))
	if err != nil {
		return Unavailable
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Unavailable
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Unavailable
	}
	return load
}

// cpuTemp returns the first thermal zone temperature in degrees Celsius.
func (c *Collector) cpuTemp() float64 {
	data, err := os.ReadFile(filepath.Join(c.sysRoot, "class", "thermal", "thermal_zone0", "temp"))
	if err != nil {
		return Unavailable
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return Unavailable
	}
	return float64(milli) / 1000.0
}

// ramUsage returns the share of memory in use as a percentage.
func (c *Collector) ramUsage() float64 {
	f, err := os.Open(filepath.Join(c.procRoot, "meminfo"))
	if err != nil {
		return Unavailable
	}
	defer f.Close()

	var total, available uint64
	var haveTotal, haveAvailable bool
	sc := bufio.NewScanner(f)
	for sc.Scan() && !(haveTotal && haveAvailable) {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, haveTotal = n, true
		case "MemAvailable:":
			available, haveAvailable = n, true
		}
	}

	if !haveTotal || total == 0 || !haveAvailable || available > total {
		return Unavailable
	}
	return float64(total-available) / float64(total) * 100.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
