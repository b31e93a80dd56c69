package logconv

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	XLSX_SHEET    = "history"
	XLSX_MAX_ROWS = 100000
)

func excelPos(x, y uint) string {
	pos, err := excelize.CoordinatesToCellName(int(x+1), int(y+1))
	if err != nil {
		panic(err)
	}
	return pos
}

func contains[T comparable](xs []T, x T) bool {
	for _, a := range xs {
		if x == a {
			return true
		}
	}
	return false
}

var xlsxHeaders = []string{"status", "process running", "pid", "internet", "dns", "services up", "duration"}

// ToXlsx writes the records as a spreadsheet.
// Every service gets its own column after the fixed columns, and the records over XLSX_MAX_ROWS are dropped.
func ToXlsx(w io.Writer, records Records, createdAt time.Time) error {
	xlsx := excelize.NewFile()
	defer xlsx.Close()
	xlsx.SetSheetName("Sheet1", XLSX_SHEET)

	xlsx.SetAppProps(&excelize.AppProperties{
		Application: "nbwatchdog",
	})
	xlsx.SetDocProps(&excelize.DocProperties{
		Created:        createdAt.Format(time.RFC3339),
		Modified:       createdAt.Format(time.RFC3339),
		Creator:        "nbwatchdog",
		LastModifiedBy: "nbwatchdog",
	})

	zone, _ := createdAt.Zone()
	xlsx.SetCellStr(XLSX_SHEET, "A1", fmt.Sprintf("time (%s)", zone))
	for i, h := range xlsxHeaders {
		xlsx.SetCellStr(XLSX_SHEET, excelPos(uint(1+i), 0), h)
	}

	colors := map[api.Status]string{
		api.StatusHealthy:  "89C923",
		api.StatusDegraded: "DDA100",
		api.StatusFailed:   "FF2D00",
		api.StatusUnknown:  "000000",
	}

	setValue := func(x, y uint, value any, color string, style int, format *string) {
		pos := excelPos(x, y)
		xlsx.SetCellValue(XLSX_SHEET, pos, value)
		sid, _ := xlsx.NewStyle(&excelize.Style{
			CustomNumFmt: format,
			Border:       []excelize.Border{{Type: "bottom", Style: style, Color: color}},
		})
		xlsx.SetCellStyle(XLSX_SHEET, pos, pos, sid)
	}
	datefmt := "yyyy-mm-dd hh:mm:ss"
	durationfmt := "#,##0 \"ms\""

	var services []api.ServiceStatusMap
	var serviceNames []string

	var row uint
	err := records(func(r api.HealthCheckRecord) error {
		if row >= XLSX_MAX_ROWS {
			return nil
		}
		row++

		status := statusOf(r)
		color := colors[status]
		style, _ := xlsx.NewStyle(&excelize.Style{Border: []excelize.Border{{Type: "bottom", Style: 1, Color: color}}})
		xlsx.SetRowStyle(XLSX_SHEET, int(row+1), int(row+1), style)

		setValue(0, row, r.Timestamp.In(createdAt.Location()), color, 1, &datefmt)
		setValue(1, row, status.String(), color, 5, nil)
		setValue(2, row, r.Running, color, 1, nil)
		if r.PID != nil {
			setValue(3, row, int64(*r.PID), color, 1, nil)
		}
		setValue(4, row, r.InternetReachable, color, 1, nil)
		setValue(5, row, r.DNSWorking, color, 1, nil)
		setValue(6, row, servicesUp(r), color, 1, nil)
		setValue(7, row, r.CheckDurationMs, color, 1, &durationfmt)

		services = append(services, r.Services)
		for _, name := range r.Services.Names() {
			if !contains(serviceNames, name) {
				serviceNames = append(serviceNames, name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	first := uint(1 + len(xlsxHeaders))

	for col, name := range serviceNames {
		xlsx.SetCellStr(XLSX_SHEET, excelPos(first+uint(col), 0), name)
	}

	for i, m := range services {
		for col, name := range serviceNames {
			s, ok := m[name]
			if !ok {
				continue
			}
			v := "down"
			if s.Reachable {
				v = "up"
			}
			if s.StatusCode != nil {
				v += " (" + strconv.Itoa(*s.StatusCode) + ")"
			}
			xlsx.SetCellStr(XLSX_SHEET, excelPos(first+uint(col), uint(1+i)), v)
		}
	}

	err = xlsx.SetPanes(XLSX_SHEET, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return err
	}

	xlsx.SetColWidth(XLSX_SHEET, "A", "A", 20)
	xlsx.SetColWidth(XLSX_SHEET, "C", "C", 15)
	xlsx.SetColWidth(XLSX_SHEET, "G", "G", 12)
	xlsx.SetColWidth(XLSX_SHEET, "H", "H", 12)

	last := excelPos(first+uint(len(serviceNames))-1, 0)
	if err := xlsx.AutoFilter(XLSX_SHEET, "A1:"+last, nil); err != nil {
		return err
	}

	return xlsx.Write(w)
}
