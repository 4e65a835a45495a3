package formatter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// FormatMatrix writes one row per participant. Breakdown columns follow the
// snapshot's name order.
func (f *CSVFormatter) FormatMatrix(w io.Writer, snapshot aggregator.Snapshot) error {
	cw := csv.NewWriter(w)

	headers := []string{"name", "messagesSent", "totalReceived", "totalGiven"}
	for _, name := range snapshot.Names {
		headers = append(headers, "received_from:"+name)
	}
	for _, name := range snapshot.Names {
		headers = append(headers, "given_to:"+name)
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, p := range snapshot.Participants {
		record := make([]string, 0, len(headers))
		record = append(record,
			p.Name,
			strconv.Itoa(p.MessagesSent),
			strconv.Itoa(p.TotalReceived),
			strconv.Itoa(p.TotalGiven),
		)
		for _, count := range p.ReceivedFrom {
			record = append(record, strconv.Itoa(count))
		}
		for _, count := range p.GivenTo {
			record = append(record, strconv.Itoa(count))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (f *CSVFormatter) FormatSeries(w io.Writer, series *aggregator.BucketSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"participant", "date", "count"}); err != nil {
		return err
	}
	for _, p := range series.Points {
		if err := cw.Write([]string{p.Participant, p.Date, strconv.Itoa(p.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
