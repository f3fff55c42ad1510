//go:build !noxlsx

package extract

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

func init() { xlsxHandler = readXLSX }

func readXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		lines = append(lines, "# Sheet: "+sheet)
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		// GetRows drops trailing empty cells; pad back to the sheet width.
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}
		cells := make([]string, width)
		for _, row := range rows {
			clear(cells)
			copy(cells, row)
			line := strings.TrimSpace(strings.Join(cells, ", "))
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
