package gpu

// Record describes one device row reported by nvidia-smi.
// Memory figures are in megabytes, exactly as the utility prints them with
// nounits; used <= total is expected but not checked.
type Record struct {
	Index         int    `json:"index" yaml:"index"`
	Name          string `json:"name" yaml:"name"`
	MemoryUsedMB  int64  `json:"memoryUsedMb" yaml:"memoryUsedMb"`
	MemoryTotalMB int64  `json:"memoryTotalMb" yaml:"memoryTotalMb"`
}

// MemoryFreeMB returns the unused memory of the device, never below zero.
func (r Record) MemoryFreeMB() int64 {
	if free := r.MemoryTotalMB - r.MemoryUsedMB; free > 0 {
		return free
	}
	return 0
}
