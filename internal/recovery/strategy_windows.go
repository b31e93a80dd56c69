package recovery

// DefaultStrategies returns the Windows restart strategies: Restart-Service, and then net stop/start.
func DefaultStrategies(service string) []Strategy {
	return []Strategy{
		{
			Method: "powershell_restart_service",
			Steps: [][]string{
				{"powershell", "-NoProfile", "-NonInteractive", "-Command", "Restart-Service -Name " + service + " -ErrorAction Stop"},
			},
		},
		{
			Method: "net_stop_start",
			Steps: [][]string{
				{"net", "stop", service},
				{"net", "start", service},
			},
		},
	}
}
