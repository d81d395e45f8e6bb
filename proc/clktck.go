package proc

// clockTicksPerSecond is the kernel's USER_HZ value used to convert
// jiffie counters in /proc/[pid]/stat into seconds. Go has no portable
// non-cgo sysconf(_SC_CLK_TCK); every mainstream Linux platform in
// practice reports 100, so that is the fixed value used here; the rate
// is not probed at startup.
var clockTicksPerSecond float64 = 100

// ClockTicksPerSecond returns the clock tick rate (100 unless overridden).
func ClockTicksPerSecond() float64 {
	return clockTicksPerSecond
}

// SetClockTicksPerSecond overrides the rate; non-positive values are
// ignored.
func SetClockTicksPerSecond(v float64) {
	if v > 0 {
		clockTicksPerSecond = v
	}
}
