package codec

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/props"
	measurementdomain "github.com/smallbiznis/sensorlog/internal/measurement/domain"
)

// PDFReport describes the heading of a PDF export.
type PDFReport struct {
	Title       string
	GeneratedAt time.Time
	Filter      string
}

var (
	pdfHeaderText = props.Text{Style: fontstyle.Bold, Size: 8}
	pdfCellText   = props.Text{Size: 8}
	pdfValueText  = props.Text{Size: 8, Align: align.Right}
)

// WritePDF renders items as a landscape table.
func WritePDF(w io.Writer, report PDFReport, items []measurementdomain.Response, loc *time.Location) error {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageNumber(props.PageNumber{
			Pattern: "Seite {current} von {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := report.Title
	if title == "" {
		title = "Messdaten"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(6,
		text.NewCol(6, "Erstellt: "+formatTimestamp(report.GeneratedAt, loc), props.Text{Size: 9}),
		text.NewCol(6, fmt.Sprintf("%d Datensätze", len(items)), props.Text{Size: 9, Align: align.Right}),
	)
	if report.Filter != "" {
		m.AddRow(6, text.NewCol(12, "Filter: "+report.Filter, props.Text{Size: 9}))
	}

	m.AddRow(8,
		text.NewCol(2, ExportHeader[1], pdfHeaderText),
		text.NewCol(1, ExportHeader[2], props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		text.NewCol(1, ExportHeader[3], pdfHeaderText),
		text.NewCol(2, ExportHeader[4], pdfHeaderText),
		text.NewCol(2, ExportHeader[5], pdfHeaderText),
		text.NewCol(3, ExportHeader[6], pdfHeaderText),
		text.NewCol(1, ExportHeader[7], pdfHeaderText),
	)
	m.AddRow(1, line.NewCol(12))

	for _, item := range items {
		m.AddRow(6,
			text.NewCol(2, item.SensorName, pdfCellText),
			text.NewCol(1, strconv.FormatFloat(item.Value, 'f', 4, 64), pdfValueText),
			text.NewCol(1, item.Unit, pdfCellText),
			text.NewCol(2, formatTimestamp(item.Timestamp, loc), pdfCellText),
			text.NewCol(2, item.Location, pdfCellText),
			text.NewCol(3, item.Description, pdfCellText),
			text.NewCol(1, item.CreatedBy, pdfCellText),
		)
	}
	if len(items) == 0 {
		m.AddRow(8, col.New(12).Add(text.New("Keine Messdaten gefunden.", pdfCellText)))
	}

	doc, err := m.Generate()
	if err != nil {
		return err
	}
	_, err = w.Write(doc.GetBytes())
	return err
}
