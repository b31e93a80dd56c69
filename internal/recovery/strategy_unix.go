//go:build !windows

package recovery

// DefaultStrategies returns the restart strategies for systemd hosts: systemctl restart, and then service stop/start.
func DefaultStrategies(service string) []Strategy {
	return []Strategy{
		{
			Method: "systemctl_restart",
			Steps: [][]string{
				{"systemctl", "restart", service},
			},
		},
		{
			Method: "service_stop_start",
			Steps: [][]string{
				{"service", service, "stop"},
				{"service", service, "start"},
			},
		},
	}
}
