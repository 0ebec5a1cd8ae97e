package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cast"

	"offer-classifier/internal/models"
)

// WriteCSV writes rows as offer_id,text,is_suspicious with a header line.
func WriteCSV(w io.Writer, rows []models.TrainingRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"offer_id", "text", "is_suspicious"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{cast.ToString(r.OfferID), r.Text, cast.ToString(r.IsSuspicious)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.OfferID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
