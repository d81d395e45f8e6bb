package globalscan

import (
	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/proc"
)

func collectCPU(g *model.GlobalMetrics) error {
	total, perCPU, err := proc.ReadCPUStat()
	if err != nil {
		return err
	}
	g.CPU.Total = total
	g.CPU.PerCPU = perCPU
	g.CPU.NumCPUs = len(perCPU)
	la, err := proc.ReadLoadAvg()
	if err != nil {
		return err
	}
	g.CPU.LoadAvg = la
	return nil
}

func collectMemory(g *model.GlobalMetrics) error {
	mem, err := proc.ReadMeminfo()
	if err != nil {
		return err
	}
	g.Memory = mem
	return nil
}

func collectPSI(g *model.GlobalMetrics) error {
	psi, err := proc.ReadPSI()
	if err != nil {
		return err
	}
	g.PSI = psi
	return nil
}

func collectDisks(g *model.GlobalMetrics) error {
	disks, err := proc.ReadDiskStats()
	if err != nil {
		return err
	}
	g.Disks = disks
	return nil
}

func collectNetwork(g *model.GlobalMetrics) error {
	nets, err := proc.ReadNetDev()
	if err != nil {
		return err
	}
	g.Network = nets
	return nil
}

func collectTCPStates(g *model.GlobalMetrics) error {
	st, err := proc.ReadTCPConnState()
	if err != nil {
		return err
	}
	g.TCPStates = st
	return nil
}

func collectMounts(g *model.GlobalMetrics) error {
	mounts, err := proc.ReadMounts()
	if err != nil {
		return err
	}
	g.Mounts = mounts
	return nil
}

func collectThermal(g *model.GlobalMetrics) error {
	g.Thermal = proc.ReadThermal()
	return nil
}

func collectUname(g *model.GlobalMetrics) error {
	u, err := proc.ReadUname()
	if err != nil {
		return err
	}
	g.Uname = u
	return nil
}

func collectKernel(g *model.GlobalMetrics) error {
	ks, err := proc.ReadKernelCounters()
	if err != nil {
		return err
	}
	g.Kernel = ks
	return nil
}

func collectFD(g *model.GlobalMetrics) error {
	fd, err := proc.ReadFD()
	if err != nil {
		return err
	}
	g.FD = fd
	return nil
}
