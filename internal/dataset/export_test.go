package dataset

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-classifier/internal/models"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []models.TrainingRow{
		{OfferID: 7, Text: `Audi "igła", zadbany`, IsSuspicious: true},
		{OfferID: 9, Text: "BMW", IsSuspicious: false},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"offer_id,text,is_suspicious\n"+
			"7,\"Audi \"\"igła\"\", zadbany\",true\n"+
			"9,BMW,false\n",
		buf.String())
}
