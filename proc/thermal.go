package proc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ftahirops/herakles/model"
)

// ReadThermal walks /sys/class/thermal/thermal_zone* and /sys/class/hwmon/hwmon*
// for millidegree-Celsius temperature readings, converting to degrees.
func ReadThermal() []model.ThermalSensor {
	var sensors []model.ThermalSensor
	sensors = append(sensors, readThermalZones()...)
	sensors = append(sensors, readHwmon()...)
	return sensors
}

func readThermalZones() []model.ThermalSensor {
	entries, err := os.ReadDir("/sys/class/thermal")
	if err != nil {
		return nil
	}
	var out []model.ThermalSensor
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		base := filepath.Join("/sys/class/thermal", e.Name())
		milli, ok := readMilliC(filepath.Join(base, "temp"))
		if !ok {
			continue
		}
		name := strings.TrimSpace(readSysFile(filepath.Join(base, "type")))
		if name == "" {
			name = e.Name()
		}
		out = append(out, model.ThermalSensor{Sensor: name, Celsius: milli / 1000})
	}
	return out
}

func readHwmon() []model.ThermalSensor {
	entries, err := os.ReadDir("/sys/class/hwmon")
	if err != nil {
		return nil
	}
	var out []model.ThermalSensor
	for _, e := range entries {
		base := filepath.Join("/sys/class/hwmon", e.Name())
		chipName := strings.TrimSpace(readSysFile(filepath.Join(base, "name")))
		inputs, _ := filepath.Glob(filepath.Join(base, "temp*_input"))
		for _, input := range inputs {
			milli, ok := readMilliC(input)
			if !ok {
				continue
			}
			label := strings.TrimSuffix(filepath.Base(input), "_input")
			if l := readSysFile(strings.TrimSuffix(input, "_input") + "_label"); l != "" {
				label = strings.TrimSpace(l)
			}
			name := label
			if chipName != "" {
				name = chipName + "/" + label
			}
			out = append(out, model.ThermalSensor{Sensor: name, Celsius: milli / 1000})
		}
	}
	return out
}

func readMilliC(path string) (float64, bool) {
	s := readSysFile(path)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readSysFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
