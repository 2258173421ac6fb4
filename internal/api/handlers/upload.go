package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"hydrogen-admin/internal/csvio"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20

// readTable parses the "file" form field as CSV or, by extension, XLSX.
func readTable(c *gin.Context) (*csvio.Table, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	if header.Size > maxUploadSize {
		return nil, fmt.Errorf("file too large: %d bytes", header.Size)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".xlsm":
		return csvio.ParseXLSX(file)
	default:
		return csvio.Parse(file)
	}
}

// writeTable sends a table as a CSV or XLSX attachment.
func writeTable(c *gin.Context, table *csvio.Table, name, format string) {
	if format == "xlsx" {
		data, err := csvio.ExportXLSX(table, name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvio.Export(table)))
}
